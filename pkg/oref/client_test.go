package oref

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClientWithHTTPClient(server.URL, server.Client()), server
}

func TestFetchDistricts(t *testing.T) {
	body := append([]byte{0xef, 0xbb, 0xbf}, []byte(`[
		{"label": "Tel Aviv", "value": "TLV", "id": "d1", "areaid": 15,
		 "areaname": "Dan", "label_he": "תל אביב", "migun_time": 90}
	]`)...)

	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Shared/Ajax/GetDistricts.aspx", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		w.Write(body)
	})
	defer server.Close()

	districts, err := client.FetchDistricts(context.Background())
	require.NoError(t, err)
	require.Len(t, districts, 1)

	d := districts[0]
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, "15", d.AreaID)
	assert.Equal(t, "Dan", d.AreaName)
	assert.Equal(t, "Tel Aviv", d.EnglishName)
	assert.Equal(t, "תל אביב", d.HebrewName)
	assert.Equal(t, "TLV", d.Code)
	assert.Equal(t, 90, d.MigunTimeS)
}

func TestFetchCategories(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Leftovers/en.Leftovers.json", r.URL.Path)
		w.Write([]byte(`[
			{"category": 1, "code": "missiles", "duration": 10,
			 "label": "Rocket fire", "description1": "Enter shelter"}
		]`))
	})
	defer server.Close()

	categories, err := client.FetchCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)

	cat := categories[0]
	assert.Equal(t, 1, cat.ID)
	assert.Equal(t, "missiles", cat.CodeName)
	assert.Equal(t, 10, cat.DurationMinutes)
	assert.Equal(t, "Rocket fire", cat.Label)
	assert.Equal(t, "Enter shelter", cat.Description)
}

func TestFetchCurrentAlert(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/WarningMessages/alert/alerts.json", r.URL.Path)
		w.Write([]byte(`{"id": "133042653750000000", "cat": "1",
			"title": "Rocket fire", "data": ["תל אביב", "חולון"],
			"desc": "Enter shelter"}`))
	})
	defer server.Close()

	alert, err := client.FetchCurrentAlert(context.Background())
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, "133042653750000000", alert.ID)
	assert.Equal(t, "1", alert.CategoryID)
	assert.Equal(t, []string{"תל אביב", "חולון"}, alert.Locations)
	assert.Equal(t, "Enter shelter", alert.Description)
}

func TestFetchCurrentAlertEmptyBody(t *testing.T) {
	// The source serves a BOM-prefixed whitespace body between alerts.
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xef, 0xbb, 0xbf, '\r', '\n'})
	})
	defer server.Close()

	alert, err := client.FetchCurrentAlert(context.Background())
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestFetchCurrentAlertNonJSONBody(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	})
	defer server.Close()

	alert, err := client.FetchCurrentAlert(context.Background())
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestFetchSourceUnavailable(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.FetchCurrentAlert(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))

	_, err = client.FetchDistricts(context.Background())
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestFetchDistrictsMalformedCatalog(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	})
	defer server.Close()

	_, err := client.FetchDistricts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}
