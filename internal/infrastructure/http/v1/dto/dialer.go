package dto

import "github.com/saeidmoini/salehi-panel/internal/domain/dialer"

// DialerReportRequest is the report-result body: the report fields plus the
// acting company slug.
type DialerReportRequest struct {
	Company string `json:"company" binding:"required"`
	dialer.Report
}

// RegisterScenariosRequest is the startup scenario upsert.
type RegisterScenariosRequest struct {
	Company   string                `json:"company" binding:"required"`
	Scenarios []dialer.ScenarioInfo `json:"scenarios" binding:"required"`
}

// RegisterOutboundLinesRequest is the startup line upsert.
type RegisterOutboundLinesRequest struct {
	Company       string            `json:"company" binding:"required"`
	OutboundLines []dialer.LineInfo `json:"outbound_lines" binding:"required"`
}
