// Package numbers provides the shared phone-number pool and the per-tenant
// call-outcome ledger. Number rows are global: one row per phone across all
// companies; per-company state is derived from the newest CallResult for the
// (number, company) pair.
package numbers

import (
	"time"
)

// CallStatus is the outcome taxonomy for a single call attempt.
// Stored by string name; unknown values read from older rows are ignored,
// never fatal.
type CallStatus string

const (
	StatusInQueue       CallStatus = "IN_QUEUE" // derived: no result for this company yet
	StatusMissed        CallStatus = "MISSED"
	StatusConnected     CallStatus = "CONNECTED"
	StatusNotInterested CallStatus = "NOT_INTERESTED"
	StatusHangup        CallStatus = "HANGUP"
	StatusDisconnected  CallStatus = "DISCONNECTED"
	StatusFailed        CallStatus = "FAILED"
	StatusUnknown       CallStatus = "UNKNOWN"
	StatusBusy          CallStatus = "BUSY"
	StatusPowerOff      CallStatus = "POWER_OFF"
	StatusBanned        CallStatus = "BANNED"
	StatusInboundCall   CallStatus = "INBOUND_CALL"
	StatusComplained    CallStatus = "COMPLAINED"
)

// AllStatuses lists every status in taxonomy order, used by the read-side to
// zero-fill breakdowns.
var AllStatuses = []CallStatus{
	StatusInQueue,
	StatusMissed,
	StatusConnected,
	StatusNotInterested,
	StatusHangup,
	StatusDisconnected,
	StatusFailed,
	StatusUnknown,
	StatusBusy,
	StatusPowerOff,
	StatusBanned,
	StatusInboundCall,
	StatusComplained,
}

var billableStatuses = map[CallStatus]bool{
	StatusConnected:     true,
	StatusNotInterested: true,
	StatusHangup:        true,
	StatusUnknown:       true,
	StatusDisconnected:  true,
	StatusFailed:        true,
}

// operatorMutable is the set a non-superuser operator may assign when
// overriding the latest result of a pair.
var operatorMutable = map[CallStatus]bool{
	StatusInQueue:  true,
	StatusMissed:   true,
	StatusBusy:     true,
	StatusPowerOff: true,
	StatusBanned:   true,
}

// Valid reports whether s is a known status.
func (s CallStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Billable reports whether a call with this outcome deducts from the wallet.
func (s CallStatus) Billable() bool {
	return billableStatuses[s]
}

// OperatorMutable reports whether a non-superuser operator may set or
// override this status.
func (s CallStatus) OperatorMutable() bool {
	return operatorMutable[s]
}

// GlobalStatus blocks or admits a number for every company.
type GlobalStatus string

const (
	GlobalActive     GlobalStatus = "ACTIVE"
	GlobalComplained GlobalStatus = "COMPLAINED"
	GlobalPowerOff   GlobalStatus = "POWER_OFF"
)

// GlobalStatusFor derives the number-wide status from a call outcome:
// POWER_OFF and COMPLAINED poison the number for all companies, anything
// else keeps it active.
func GlobalStatusFor(s CallStatus) GlobalStatus {
	switch s {
	case StatusPowerOff:
		return GlobalPowerOff
	case StatusComplained:
		return GlobalComplained
	default:
		return GlobalActive
	}
}

// CallDirection distinguishes dialer-originated calls from calls that came
// in on their own.
type CallDirection string

const (
	DirectionInbound  CallDirection = "INBOUND"
	DirectionOutbound CallDirection = "OUTBOUND"
)

// Number is one globally-unique phone row shared by all companies.
type Number struct {
	ID                int64        `db:"id" json:"id"`
	Phone             string       `db:"phone_number" json:"phone_number"`
	GlobalStatus      GlobalStatus `db:"global_status" json:"global_status"`
	LastCalledAt      *time.Time   `db:"last_called_at" json:"last_called_at,omitempty"`
	LastCalledCompany *int64       `db:"last_called_company_id" json:"last_called_company_id,omitempty"`
	AssignedAt        *time.Time   `db:"assigned_at" json:"assigned_at,omitempty"`
	AssignedBatchID   *string      `db:"assigned_batch_id" json:"assigned_batch_id,omitempty"`
	Note              *string      `db:"note" json:"note,omitempty"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// CallResult is one immutable outcome row for a (number, company) pair.
// The newest row by (attempted_at, id) defines the pair's effective status.
type CallResult struct {
	ID             int64         `db:"id" json:"id"`
	NumberID       int64         `db:"number_id" json:"number_id"`
	CompanyID      int64         `db:"company_id" json:"company_id"`
	ScenarioID     *int64        `db:"scenario_id" json:"scenario_id,omitempty"`
	OutboundLineID *int64        `db:"outbound_line_id" json:"outbound_line_id,omitempty"`
	Direction      CallDirection `db:"call_direction" json:"call_direction"`
	Status         CallStatus    `db:"status" json:"status"`
	Reason         *string       `db:"reason" json:"reason,omitempty"`
	UserMessage    *string       `db:"user_message" json:"user_message,omitempty"`
	AgentID        *int64        `db:"agent_id" json:"agent_id,omitempty"`
	AttemptedAt    time.Time     `db:"attempted_at" json:"attempted_at"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// TenantNumber is the read-side DTO for the operator list: the number joined
// with its latest CallResult for the requested company, or no result at all
// (status IN_QUEUE).
type TenantNumber struct {
	Number
	TenantStatus CallStatus `db:"tenant_status" json:"status"`
	Attempts     int        `db:"attempts" json:"attempts"`
	LastResultAt *time.Time `db:"last_result_at" json:"last_result_at,omitempty"`
}

// ImportSummary reports the outcome of a bulk add.
type ImportSummary struct {
	Inserted       int      `json:"inserted"`
	Duplicates     int      `json:"duplicates"`
	Invalid        int      `json:"invalid"`
	InvalidSamples []string `json:"invalid_samples"`
}
