package oref

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/homefront-io/redalert-gateway/pkg/config"
	"github.com/homefront-io/redalert-gateway/pkg/models"
)

// ErrSourceUnavailable indicates the public alert source returned a
// non-success status or an unreadable body. Callers should skip the current
// poll cycle and retry on the next one.
var ErrSourceUnavailable = errors.New("alert source unavailable")

const (
	districtsPath  = "/Shared/Ajax/GetDistricts.aspx?lang=en"
	categoriesPath = "/Leftovers/en.Leftovers.json"
	alertsPath     = "/WarningMessages/alert/alerts.json"
)

// utf8BOM prefixes the bodies served by the source; it has to be stripped
// before JSON decoding.
var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Client polls the public civil-alert endpoints. It only fetches and maps
// payloads; dedup and expiry logic live in the store.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new source client
func NewClient(cfg *config.OrefConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientWithHTTPClient creates a source client with an injected HTTP
// client, used by tests to point at a local server.
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// rawDistrict mirrors the district catalog wire format
type rawDistrict struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	ID        string `json:"id"`
	AreaID    int    `json:"areaid"`
	AreaName  string `json:"areaname"`
	LabelHe   string `json:"label_he"`
	MigunTime int    `json:"migun_time"`
}

// rawCategory mirrors the category catalog wire format
type rawCategory struct {
	Category    int    `json:"category"`
	Code        string `json:"code"`
	Duration    int    `json:"duration"`
	Label       string `json:"label"`
	Description string `json:"description1"`
}

// rawAlert mirrors the alert snapshot wire format
type rawAlert struct {
	ID    string   `json:"id"`
	Cat   string   `json:"cat"`
	Title string   `json:"title"`
	Data  []string `json:"data"`
	Desc  string   `json:"desc"`
}

// FetchDistricts fetches the current district catalog
func (c *Client) FetchDistricts(ctx context.Context) ([]models.District, error) {
	body, err := c.get(ctx, districtsPath)
	if err != nil {
		return nil, err
	}

	var raw []rawDistrict
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding district catalog: %v", ErrSourceUnavailable, err)
	}

	districts := make([]models.District, 0, len(raw))
	for _, d := range raw {
		districts = append(districts, models.District{
			ID:          d.ID,
			AreaID:      strconv.Itoa(d.AreaID),
			AreaName:    d.AreaName,
			EnglishName: d.Label,
			HebrewName:  d.LabelHe,
			Code:        d.Value,
			MigunTimeS:  d.MigunTime,
		})
	}
	return districts, nil
}

// FetchCategories fetches the current alert category catalog
func (c *Client) FetchCategories(ctx context.Context) ([]models.AlertCategory, error) {
	body, err := c.get(ctx, categoriesPath)
	if err != nil {
		return nil, err
	}

	var raw []rawCategory
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding category catalog: %v", ErrSourceUnavailable, err)
	}

	categories := make([]models.AlertCategory, 0, len(raw))
	for _, cat := range raw {
		categories = append(categories, models.AlertCategory{
			ID:              cat.Category,
			CodeName:        cat.Code,
			DurationMinutes: cat.Duration,
			Label:           cat.Label,
			Description:     cat.Description,
		})
	}
	return categories, nil
}

// FetchCurrentAlert fetches the current alert snapshot. It returns nil when
// no alert is active: the source serves an empty or non-JSON body in that
// case, which is not an error.
func (c *Client) FetchCurrentAlert(ctx context.Context) (*models.Alert, error) {
	body, err := c.get(ctx, alertsPath)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var raw rawAlert
	if err := json.Unmarshal(body, &raw); err != nil {
		logrus.Debugf("Alert snapshot body is not JSON, treating as no alert: %v", err)
		return nil, nil
	}

	return &models.Alert{
		ID:          raw.ID,
		CategoryID:  raw.Cat,
		Title:       raw.Title,
		Locations:   raw.Data,
		Description: raw.Desc,
	}, nil
}

// get performs a GET against the source with browser-like headers and
// returns the body with any UTF-8 BOM stripped.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	// The source rejects requests without a browser-like header set.
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", c.baseURL+"/en")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrSourceUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrSourceUnavailable, path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body of %s: %v", ErrSourceUnavailable, path, err)
	}

	return bytes.TrimPrefix(body, utf8BOM), nil
}
