package http

import (
	"net/http"
	"strconv"
	"strings"

	"golang-idea-tracker/internal/dashboard/dto"
	"golang-idea-tracker/internal/dashboard/service"
	"golang-idea-tracker/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardHandler handles HTTP requests for the dashboard snapshot and the
// polling and sync controls around it.
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *logger.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService service.DashboardService, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, logger: logger}
}

// RegisterRoutes registers the dashboard routes to the Echo group.
func (h *DashboardHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard", h.GetDashboard)
	g.GET("/prices/live", h.GetLivePrices)
	g.POST("/polling", h.SetPolling)
	g.GET("/polling/status", h.GetPollingStatus)
	g.POST("/sync", h.RequestSync)
	g.GET("/syncs", h.GetSyncRuns)
	g.GET("/disclosures", h.GetDisclosures)
}

// GetDashboard godoc
// @Summary Get the dashboard snapshot
// @Description Get every idea with valuations, the aggregate, live prices, disclosures and mentions
// @Tags dashboard
// @Produce  json
// @Success 200 {object} dto.DashboardResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c echo.Context) error {
	dashboard, err := h.dashboardService.GetDashboard(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to build dashboard", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build dashboard"})
	}
	return c.JSON(http.StatusOK, dashboard)
}

// GetLivePrices godoc
// @Summary Get live prices
// @Description Get the current live price overlay, optionally filtered by stock codes
// @Tags dashboard
// @Produce  json
// @Param   codes  query    string false    "Comma-separated stock codes"
// @Success 200 {object} dto.LivePricesResponse
// @Router /prices/live [get]
func (h *DashboardHandler) GetLivePrices(c echo.Context) error {
	prices, err := h.dashboardService.GetLivePrices(c.Request().Context(), parseStockCodes(c.QueryParam("codes")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, prices)
}

// SetPolling godoc
// @Summary Enable or disable live price polling
// @Description Enable polling for every open position, or disable it
// @Tags polling
// @Accept  json
// @Produce  json
// @Param   polling  body    dto.PollingRequest   true    "Desired polling state"
// @Success 200 {object} dto.PollerStatus
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /polling [post]
func (h *DashboardHandler) SetPolling(c echo.Context) error {
	var req dto.PollingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	status, err := h.dashboardService.SetPolling(c.Request().Context(), req.Enabled)
	if err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, status)
}

// GetPollingStatus godoc
// @Summary Get the poller status
// @Description Get the poller state, tracked codes and fetch counters
// @Tags polling
// @Produce  json
// @Success 200 {object} dto.PollerStatus
// @Router /polling/status [get]
func (h *DashboardHandler) GetPollingStatus(c echo.Context) error {
	status, err := h.dashboardService.GetPollingStatus(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, status)
}

// RequestSync godoc
// @Summary Request an on-demand sync
// @Description Enqueue a sync run for the background worker
// @Tags sync
// @Accept  json
// @Produce  json
// @Param   sync  body    dto.SyncRequest   true    "Sync kind"
// @Success 202 {object} dto.SyncRunResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sync [post]
func (h *DashboardHandler) RequestSync(c echo.Context) error {
	var req dto.SyncRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	run, err := h.dashboardService.RequestSync(c.Request().Context(), req.Kind)
	if err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, run)
}

// GetSyncRuns godoc
// @Summary Get recent sync runs
// @Description Get recent sync executions, newest first
// @Tags sync
// @Produce  json
// @Param   limit  query    int false    "Maximum number of runs"
// @Success 200 {array} dto.SyncRunResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /syncs [get]
func (h *DashboardHandler) GetSyncRuns(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	runs, err := h.dashboardService.GetSyncRuns(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get sync runs", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get sync runs"})
	}
	return c.JSON(http.StatusOK, runs)
}

// GetDisclosures godoc
// @Summary Get recent disclosures
// @Description Get recent disclosures, optionally filtered by stock codes
// @Tags dashboard
// @Produce  json
// @Param   codes  query    string false    "Comma-separated stock codes"
// @Param   limit  query    int false    "Maximum number of entries"
// @Success 200 {array} dto.DisclosureResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /disclosures [get]
func (h *DashboardHandler) GetDisclosures(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	disclosures, err := h.dashboardService.GetDisclosures(c.Request().Context(), parseStockCodes(c.QueryParam("codes")), limit)
	if err != nil {
		h.logger.Error("Failed to get disclosures", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get disclosures"})
	}
	return c.JSON(http.StatusOK, disclosures)
}

func parseStockCodes(raw string) []string {
	if raw == "" {
		return nil
	}
	var codes []string
	for _, code := range strings.Split(raw, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
