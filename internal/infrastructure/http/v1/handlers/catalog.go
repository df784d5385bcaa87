package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/saeidmoini/salehi-panel/internal/domain/dialer"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/dto"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/middleware"
)

// CatalogHandler serves operator scenario and outbound line management.
type CatalogHandler struct {
	*BaseHandler
	service *dialer.Service
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(base *BaseHandler, service *dialer.Service) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, service: service}
}

// ListScenarios returns every scenario of the company.
func (h *CatalogHandler) ListScenarios(c *gin.Context) {
	scenarios, err := h.service.ListScenarios(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if scenarios == nil {
		scenarios = []dialer.Scenario{}
	}
	h.OK(c, scenarios)
}

// CreateScenario registers a scenario.
func (h *CatalogHandler) CreateScenario(c *gin.Context) {
	var req dto.ScenarioRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sc, err := h.service.CreateScenario(c.Request.Context(), middleware.CompanyID(c), dialer.ScenarioInput{
		Name:             req.Name,
		DisplayName:      req.DisplayName,
		CostPerConnected: req.CostPerConnected,
		Active:           req.IsActive,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, sc)
}

// UpdateScenario patches a scenario.
func (h *CatalogHandler) UpdateScenario(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ScenarioRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sc, err := h.service.UpdateScenario(c.Request.Context(), middleware.CompanyID(c), id, dialer.ScenarioInput{
		DisplayName:      req.DisplayName,
		CostPerConnected: req.CostPerConnected,
		Active:           req.IsActive,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sc)
}

// ListLines returns every outbound line of the company.
func (h *CatalogHandler) ListLines(c *gin.Context) {
	lines, err := h.service.ListLines(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if lines == nil {
		lines = []dialer.OutboundLine{}
	}
	h.OK(c, lines)
}

// CreateLine registers an outbound line.
func (h *CatalogHandler) CreateLine(c *gin.Context) {
	var req dto.OutboundLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	line, err := h.service.CreateLine(c.Request.Context(), middleware.CompanyID(c), dialer.LineInput{
		PhoneNumber: req.PhoneNumber,
		DisplayName: req.DisplayName,
		Active:      req.IsActive,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, line)
}

// UpdateLine patches an outbound line.
func (h *CatalogHandler) UpdateLine(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.OutboundLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	line, err := h.service.UpdateLine(c.Request.Context(), middleware.CompanyID(c), id, dialer.LineInput{
		DisplayName: req.DisplayName,
		Active:      req.IsActive,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, line)
}
