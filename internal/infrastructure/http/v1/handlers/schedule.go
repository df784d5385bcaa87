package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/saeidmoini/salehi-panel/internal/domain/schedule"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/dto"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/middleware"
)

// ScheduleHandler serves the company calling schedule.
type ScheduleHandler struct {
	*BaseHandler
	service *schedule.Service
}

// NewScheduleHandler creates a schedule handler.
func NewScheduleHandler(base *BaseHandler, service *schedule.Service) *ScheduleHandler {
	return &ScheduleHandler{BaseHandler: base, service: service}
}

// Get returns the config plus all calling windows.
func (h *ScheduleHandler) Get(c *gin.Context) {
	state, err := h.service.Get(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, state)
}

// Update applies a partial config change and optionally replaces the windows.
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	state, err := h.service.Update(c.Request.Context(), middleware.CompanyID(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, state)
}

// SetWalletAndCost writes the wallet balance and per-call cost directly.
// Superuser only.
func (h *ScheduleHandler) SetWalletAndCost(c *gin.Context) {
	var req dto.WalletOverrideRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cfg, err := h.service.SetWalletAndCost(c.Request.Context(), middleware.CompanyID(c),
		req.WalletBalance, req.CostPerConnected)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cfg)
}
