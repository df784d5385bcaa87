package handlers

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/domain/banksms"
)

// SmsHandler serves the provider's inbound SMS webhook.
type SmsHandler struct {
	*BaseHandler
	service *banksms.Service
}

// NewSmsHandler creates an SMS webhook handler.
func NewSmsHandler(base *BaseHandler, service *banksms.Service) *SmsHandler {
	return &SmsHandler{BaseHandler: base, service: service}
}

// Ingest accepts one SMS. The provider appends ";http…" to the query string
// verbatim; everything from that marker on is dropped before parsing.
func (h *SmsHandler) Ingest(c *gin.Context) {
	raw := c.Request.URL.RawQuery
	if idx := strings.Index(raw, ";http"); idx >= 0 {
		raw = raw[:idx]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("malformed query").WithDetail("error", err.Error()))
		return
	}

	sender := values.Get("from")
	body := values.Get("body")
	if sender == "" || body == "" {
		h.Error(c, apperror.NewValidation("from and body are required"))
		return
	}
	var receiver *string
	if to := values.Get("to"); to != "" {
		receiver = &to
	}

	sms, err := h.service.Ingest(c.Request.Context(), sender, receiver, body)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := gin.H{"ok": true, "stored": sms != nil}
	if sms != nil {
		resp["id"] = sms.ID
	}
	h.OK(c, resp)
}
