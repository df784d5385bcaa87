package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/dto"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/middleware"
)

// NumbersHandler serves operator number management.
type NumbersHandler struct {
	*BaseHandler
	service *numbers.Service
}

// NewNumbersHandler creates a numbers handler.
func NewNumbersHandler(base *BaseHandler, service *numbers.Service) *NumbersHandler {
	return &NumbersHandler{BaseHandler: base, service: service}
}

// List returns the company view of the pool with search and pagination.
func (h *NumbersHandler) List(c *gin.Context) {
	filter := numbers.ListFilter{
		Search: c.Query("search"),
		Skip:   h.ParseIntQuery(c, "skip", 0),
		Limit:  h.ParseIntQuery(c, "limit", 50),
	}
	if raw := c.Query("status"); raw != "" {
		status := numbers.CallStatus(raw)
		filter.Status = &status
	}

	items, total, err := h.service.List(c.Request.Context(), middleware.CompanyID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []numbers.TenantNumber{}
	}
	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Skip,
	})
}

// Add bulk-inserts phones into the shared pool.
func (h *NumbersHandler) Add(c *gin.Context) {
	var req dto.AddNumbersRequest
	if !h.BindJSON(c, &req) {
		return
	}
	summary, err := h.service.AddNumbers(c.Request.Context(), req.Numbers)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// UpdateStatus overrides the latest per-company status of one number.
func (h *NumbersHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateNumberStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	err := h.service.UpdateLatestStatus(c.Request.Context(), middleware.CompanyID(c), id,
		numbers.CallStatus(req.Status), req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "updated")
}

// BulkReset returns the given pairs to the queue.
func (h *NumbersHandler) BulkReset(c *gin.Context) {
	var req dto.BulkResetRequest
	if !h.BindJSON(c, &req) {
		return
	}
	reset, err := h.service.BulkReset(c.Request.Context(), middleware.CompanyID(c), req.NumberIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"reset": reset})
}
