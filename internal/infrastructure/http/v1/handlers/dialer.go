package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/domain/dialer"
	"github.com/saeidmoini/salehi-panel/internal/domain/tenant"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/dto"
)

// DialerHandler serves the dialer poll/report surface.
type DialerHandler struct {
	*BaseHandler
	service   *dialer.Service
	companies *tenant.Service
}

// NewDialerHandler creates a dialer handler.
func NewDialerHandler(base *BaseHandler, service *dialer.Service, companies *tenant.Service) *DialerHandler {
	return &DialerHandler{BaseHandler: base, service: service, companies: companies}
}

// NextBatch claims a batch of numbers for the company.
func (h *DialerHandler) NextBatch(c *gin.Context) {
	company, ok := h.resolveCompany(c, c.Query("company"))
	if !ok {
		return
	}

	size, ok := h.optionalIntQuery(c, "size")
	if !ok {
		return
	}
	lines, ok := h.optionalIntQuery(c, "active_lines_count")
	if !ok {
		return
	}

	resp, err := h.service.FetchNextBatch(c.Request.Context(), company.ID, size, lines)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, resp)
}

// ReportResult ingests one call outcome.
func (h *DialerHandler) ReportResult(c *gin.Context) {
	var req dto.DialerReportRequest
	if !h.BindJSON(c, &req) {
		return
	}
	company, ok := h.resolveCompany(c, req.Company)
	if !ok {
		return
	}

	ack, err := h.service.ReportResult(c.Request.Context(), company.ID, &req.Report)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ack)
}

// RegisterScenarios upserts the dialer's scenarios on startup.
func (h *DialerHandler) RegisterScenarios(c *gin.Context) {
	var req dto.RegisterScenariosRequest
	if !h.BindJSON(c, &req) {
		return
	}
	company, ok := h.resolveCompany(c, req.Company)
	if !ok {
		return
	}

	counts, err := h.service.RegisterScenarios(c.Request.Context(), company.ID, req.Scenarios)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, counts)
}

// RegisterOutboundLines upserts the dialer's lines on startup.
func (h *DialerHandler) RegisterOutboundLines(c *gin.Context) {
	var req dto.RegisterOutboundLinesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	company, ok := h.resolveCompany(c, req.Company)
	if !ok {
		return
	}

	counts, err := h.service.RegisterOutboundLines(c.Request.Context(), company.ID, req.OutboundLines)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, counts)
}

func (h *DialerHandler) resolveCompany(c *gin.Context, slug string) (*tenant.Company, bool) {
	if slug == "" {
		h.Error(c, apperror.NewValidation("company is required").WithDetail("field", "company"))
		return nil, false
	}
	company, err := h.companies.Resolve(c.Request.Context(), slug)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return company, true
}

// optionalIntQuery returns nil when the parameter is absent and rejects
// non-numeric values.
func (h *DialerHandler) optionalIntQuery(c *gin.Context, key string) (*int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid integer parameter").WithDetail("param", key))
		return nil, false
	}
	return &parsed, true
}
