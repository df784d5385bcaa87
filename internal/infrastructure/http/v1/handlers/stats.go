package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/saeidmoini/salehi-panel/internal/domain/stats"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/middleware"
)

// StatsHandler serves dashboard aggregates.
type StatsHandler struct {
	*BaseHandler
	service *stats.Service
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(base *BaseHandler, service *stats.Service) *StatsHandler {
	return &StatsHandler{BaseHandler: base, service: service}
}

// NumbersSummary returns pool counts grouped by the company view of status.
func (h *StatsHandler) NumbersSummary(c *gin.Context) {
	summary, err := h.service.NumbersSummary(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// AttemptTrend returns per-day attempt and connect counts for the trailing
// window.
func (h *StatsHandler) AttemptTrend(c *gin.Context) {
	days := h.ParseIntQuery(c, "days", 7)
	trend, err := h.service.AttemptTrend(c.Request.Context(), middleware.CompanyID(c), days)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, trend)
}
