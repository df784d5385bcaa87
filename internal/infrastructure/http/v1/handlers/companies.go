package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/saeidmoini/salehi-panel/internal/domain/tenant"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/dto"
)

// CompaniesHandler serves superuser company administration.
type CompaniesHandler struct {
	*BaseHandler
	service *tenant.Service
}

// NewCompaniesHandler creates a companies handler.
func NewCompaniesHandler(base *BaseHandler, service *tenant.Service) *CompaniesHandler {
	return &CompaniesHandler{BaseHandler: base, service: service}
}

// List returns all companies, active first.
func (h *CompaniesHandler) List(c *gin.Context) {
	companies, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if companies == nil {
		companies = []tenant.Company{}
	}
	h.OK(c, companies)
}

// Create registers a company.
func (h *CompaniesHandler) Create(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	company, err := h.service.Create(c.Request.Context(), req.Slug, req.DisplayName)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, company)
}

// SetActive enables or disables a company.
func (h *CompaniesHandler) SetActive(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.SetActive(c.Request.Context(), id, *req.Active); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "updated")
}
