package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/homefront-io/redalert-gateway/pkg/models"
	"github.com/homefront-io/redalert-gateway/pkg/query"
)

// APIHandler handles HTTP API requests
type APIHandler struct {
	querySvc *query.Service
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(querySvc *query.Service) *APIHandler {
	return &APIHandler{querySvc: querySvc}
}

// StatusResponse is the payload of the alert status endpoint
type StatusResponse struct {
	Alerts interface{} `json:"alerts"`
	Exists bool        `json:"exists"`
	Full   bool        `json:"full"`
}

// CompactAlert is the projection returned when the caller does not ask for
// full records.
type CompactAlert struct {
	Category    string `json:"category"`
	Area        string `json:"area"`
	AreaID      string `json:"area_id"`
	DistrictID  string `json:"district_id"`
	MigunTimeS  int    `json:"migun_time_s"`
	CreatedAtS  int64  `json:"created_at_s"`
	Description string `json:"description"`
}

// GetStatus returns the currently active alerts
// @Summary Get active alerts
// @Description Returns live alert records, filtered by area or district
// @Param a query []string false "area ids"
// @Param d query []string false "district ids"
// @Param full query string false "return full records when set to 1"
// @Success 200 {object} StatusResponse
// @Router /api/alerts [get]
func (h *APIHandler) GetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	params := c.QueryParams()

	records := make([]models.ActiveAlertRecord, 0)
	var err error

	switch {
	case len(params["a"]) > 0:
		for _, areaID := range params["a"] {
			areaRecords, areaErr := query.Collect(h.querySvc.ByArea(ctx, areaID))
			if areaErr != nil {
				err = areaErr
				break
			}
			records = append(records, areaRecords...)
		}
	case len(params["d"]) > 0:
		records, err = query.Collect(h.querySvc.ByDistricts(ctx, params["d"]))
	default:
		records, err = query.Collect(h.querySvc.All(ctx))
	}

	if err != nil {
		logrus.Errorf("Error querying active alerts: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to query active alerts"})
	}

	full := c.QueryParam("full") == "1"
	resp := StatusResponse{Exists: len(records) > 0, Full: full}
	if full {
		resp.Alerts = records
	} else {
		compact := make([]CompactAlert, 0, len(records))
		for i := range records {
			rec := &records[i]
			compact = append(compact, CompactAlert{
				Category:    rec.AlertCategory.Label,
				Area:        rec.District.AreaName,
				AreaID:      rec.District.AreaID,
				DistrictID:  rec.District.ID,
				MigunTimeS:  rec.District.MigunTimeS,
				CreatedAtS:  rec.CreatedAtS,
				Description: rec.AlertCategory.Description,
			})
		}
		resp.Alerts = compact
	}

	return c.JSON(http.StatusOK, resp)
}

// GetHealth reports liveness
func (h *APIHandler) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// SetupRoutes sets up the API routes
func (h *APIHandler) SetupRoutes(e *echo.Echo) {
	e.GET("/api/alerts", h.GetStatus)
	e.GET("/api/health", h.GetHealth)
}
