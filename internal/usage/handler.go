package usage

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eleven-am/transcript-demo/internal/dto"
	"github.com/eleven-am/transcript-demo/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetMetrics)
	g.GET("/summary", h.GetSummary)
}

func metricsToResponse(m *Metrics) dto.UsageResponse {
	return dto.UsageResponse{
		Date:      m.Date,
		Hour:      m.Hour,
		Sessions:  m.Sessions,
		Plays:     m.Plays,
		Resets:    m.Resets,
		Ticks:     m.Ticks,
		Words:     m.Words,
		Uploads:   m.Uploads,
		RemoteErr: m.RemoteErrors,
	}
}

// GetMetrics returns hourly usage counters
// @Summary      Hourly usage
// @Tags         metrics
// @Produce      json
// @Param        hours query int false "Hours to look back (1-168)" default(24)
// @Success      200 {object} dto.UsageListResponse
// @Failure      500 {object} shared.APIError
// @Router       /metrics [get]
func (h *Handler) GetMetrics(c echo.Context) error {
	hours := 24
	if hoursStr := c.QueryParam("hours"); hoursStr != "" {
		if hr, err := strconv.Atoi(hoursStr); err == nil && hr > 0 && hr <= 168 {
			hours = hr
		}
	}

	metrics, err := h.store.GetMetrics(c.Request().Context(), hours)
	if err != nil {
		h.logger.Error("failed to get usage metrics", "error", err)
		return shared.InternalError("get_metrics_failed", "failed to get metrics")
	}

	response := make([]dto.UsageResponse, len(metrics))
	for i, m := range metrics {
		response[i] = metricsToResponse(m)
	}

	return c.JSON(http.StatusOK, dto.UsageListResponse{
		Hours:   hours,
		Metrics: response,
	})
}

// GetSummary aggregates the last seven days
// @Summary      Usage summary
// @Tags         metrics
// @Produce      json
// @Success      200 {object} dto.UsageSummaryResponse
// @Failure      500 {object} shared.APIError
// @Router       /metrics/summary [get]
func (h *Handler) GetSummary(c echo.Context) error {
	metrics, err := h.store.GetMetricsForLast7Days(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to get usage summary", "error", err)
		return shared.InternalError("get_metrics_failed", "failed to get metrics")
	}

	summary := dto.UsageSummaryResponse{Period: "7d"}
	for _, m := range metrics {
		summary.TotalSessions += m.Sessions
		summary.TotalPlays += m.Plays
		summary.TotalResets += m.Resets
		summary.TotalTicks += m.Ticks
		summary.TotalWords += m.Words
		summary.TotalUploads += m.Uploads
		summary.RemoteErrors += m.RemoteErrors
	}

	if summary.TotalTicks > 0 {
		summary.WordsPerTick = float64(summary.TotalWords) / float64(summary.TotalTicks)
	}

	return c.JSON(http.StatusOK, summary)
}
