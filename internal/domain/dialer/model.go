// Package dialer implements the batch assignment engine and result
// ingestion: the two operations remote dialer processes poll. It also owns
// the per-company scenarios and outbound lines those dialers register on
// startup.
package dialer

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
)

// Scenario is a named bot/script. A nil CostPerConnected means the company
// default applies when charging.
type Scenario struct {
	ID               int64     `db:"id" json:"id"`
	CompanyID        int64     `db:"company_id" json:"company_id"`
	Name             string    `db:"name" json:"name"`
	DisplayName      string    `db:"display_name" json:"display_name"`
	CostPerConnected *int64    `db:"cost_per_connected" json:"cost_per_connected,omitempty"`
	Active           bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// OutboundLine is an originating phone identity of the company's dialer.
type OutboundLine struct {
	ID          int64     `db:"id" json:"id"`
	CompanyID   int64     `db:"company_id" json:"company_id"`
	Phone       string    `db:"phone_number" json:"phone_number"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Active      bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Batch is one claim. The id is opaque 32-char lowercase hex.
type Batch struct {
	ID            string    `db:"id" json:"batch_id"`
	CompanyID     int64     `db:"company_id" json:"company_id"`
	RequestedSize int       `db:"requested_size" json:"requested_size"`
	ReturnedSize  int       `db:"returned_size" json:"returned_size"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// NewBatchID returns 128 bits of entropy as lowercase hex.
func NewBatchID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// BatchItem traces one number from claim to report.
type BatchItem struct {
	ID        int64     `db:"id" json:"id"`
	BatchID   string    `db:"batch_id" json:"batch_id"`
	CompanyID int64     `db:"company_id" json:"company_id"`
	NumberID  int64     `db:"number_id" json:"number_id"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`

	ReportedAt           *time.Time `db:"reported_at" json:"reported_at,omitempty"`
	ReportBatchID        *string    `db:"report_batch_id" json:"report_batch_id,omitempty"`
	ReportCallResultID   *int64     `db:"report_call_result_id" json:"report_call_result_id,omitempty"`
	ReportAttemptedAt    *time.Time `db:"report_attempted_at" json:"report_attempted_at,omitempty"`
	ReportStatus         *string    `db:"report_status" json:"report_status,omitempty"`
	ReportScenarioID     *int64     `db:"report_scenario_id" json:"report_scenario_id,omitempty"`
	ReportOutboundLineID *int64     `db:"report_outbound_line_id" json:"report_outbound_line_id,omitempty"`
	ReportReason         *string    `db:"report_reason" json:"report_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Report is one dialer-submitted call outcome.
type Report struct {
	NumberID       *int64             `json:"number_id,omitempty"`
	PhoneNumber    string             `json:"phone_number"`
	ScenarioID     *int64             `json:"scenario_id,omitempty"`
	OutboundLineID *int64             `json:"outbound_line_id,omitempty"`
	Status         numbers.CallStatus `json:"status"`
	Reason         *string            `json:"reason,omitempty"`
	UserMessage    *string            `json:"user_message,omitempty"`
	AttemptedAt    time.Time          `json:"attempted_at"`
	CallAllowed    *bool              `json:"call_allowed,omitempty"`
	BatchID        *string            `json:"batch_id,omitempty"`
	AgentID        *int64             `json:"agent_id,omitempty"`
	AgentPhone     string             `json:"agent_phone,omitempty"`
}

// ReportAck is the report-result response.
type ReportAck struct {
	ID           int64                `json:"id"`
	GlobalStatus numbers.GlobalStatus `json:"global_status"`
	PhoneNumber  string               `json:"phone_number"`
}

// ScenarioInfo is the scenario view inside a batch response.
type ScenarioInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// LineInfo is the outbound line view inside a batch response.
type LineInfo struct {
	ID          int64  `json:"id"`
	PhoneNumber string `json:"phone_number"`
	DisplayName string `json:"display_name"`
}

// AgentInfo is the agent view inside a batch response.
type AgentInfo struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone_number,omitempty"`
}

// NumberRef is one claimed number in a batch payload.
type NumberRef struct {
	ID          int64  `json:"id"`
	PhoneNumber string `json:"phone_number"`
}

// BatchPayload is the claimed set inside a NextBatchResponse.
type BatchPayload struct {
	BatchID       string      `json:"batch_id"`
	SizeRequested int         `json:"size_requested"`
	SizeReturned  int         `json:"size_returned"`
	Numbers       []NumberRef `json:"numbers"`
}

// NextBatchResponse is the full poll response. The scenario, line, and agent
// lists are empty (never null) when the gate denies.
type NextBatchResponse struct {
	CallAllowed       bool           `json:"call_allowed"`
	Timezone          string         `json:"timezone"`
	ServerTime        time.Time      `json:"server_time"`
	ScheduleVersion   int64          `json:"schedule_version"`
	Reason            string         `json:"reason,omitempty"`
	RetryAfterSeconds int            `json:"retry_after_seconds,omitempty"`
	Batch             *BatchPayload  `json:"batch,omitempty"`
	ActiveScenarios   []ScenarioInfo `json:"active_scenarios"`
	OutboundLines     []LineInfo     `json:"outbound_lines"`
	InboundAgents     []AgentInfo    `json:"inbound_agents"`
	OutboundAgents    []AgentInfo    `json:"outbound_agents"`
}

// RegisterCounts summarizes a startup upsert.
type RegisterCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}
