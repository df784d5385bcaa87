package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/saeidmoini/salehi-panel/internal/domain/billing"
	"github.com/saeidmoini/salehi-panel/internal/domain/schedule"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/dto"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/middleware"
)

// BillingHandler serves wallet and transaction operations.
type BillingHandler struct {
	*BaseHandler
	service  *billing.Service
	schedule *schedule.Service
}

// NewBillingHandler creates a billing handler.
func NewBillingHandler(base *BaseHandler, service *billing.Service, sched *schedule.Service) *BillingHandler {
	return &BillingHandler{BaseHandler: base, service: service, schedule: sched}
}

// Wallet returns the current balance and per-call cost.
func (h *BillingHandler) Wallet(c *gin.Context) {
	state, err := h.schedule.Get(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"wallet_balance":     state.Config.WalletBalance,
		"cost_per_connected": state.Config.CostPerConnected,
		"enabled":            state.Config.Enabled,
		"disabled_by_dialer": state.Config.DisabledByDialer,
		"version":            state.Config.Version,
	})
}

// Adjust credits or debits the wallet manually. Superuser only.
func (h *BillingHandler) Adjust(c *gin.Context) {
	var req dto.AdjustWalletRequest
	if !h.BindJSON(c, &req) {
		return
	}
	txn, err := h.service.ManualAdjust(c.Request.Context(), middleware.CompanyID(c),
		req.AmountToman, req.Operation, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, txn)
}

// MatchTopup claims a parsed bank deposit by amount and Jalali minute and
// credits the wallet with it.
func (h *BillingHandler) MatchTopup(c *gin.Context) {
	var req dto.MatchTopupRequest
	if !h.BindJSON(c, &req) {
		return
	}
	txn, err := h.service.MatchAndCharge(c.Request.Context(),
		middleware.CompanyID(c), middleware.CompanySlug(c),
		req.AmountToman, req.JalaliDate, req.Hour, req.Minute)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, txn)
}

// ListTransactions returns the wallet ledger, optionally bounded by Jalali
// dates.
func (h *BillingHandler) ListTransactions(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 50)
	offset := h.ParseIntQuery(c, "offset", 0)

	items, total, err := h.service.ListTransactions(c.Request.Context(), middleware.CompanyID(c),
		c.Query("from_date"), c.Query("to_date"), limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []billing.WalletTransaction{}
	}
	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	})
}
