// Package billing maintains the per-company prepaid wallet and its ledger.
//
// All amounts are integral toman. Every balance mutation goes through a
// single code path that locks the schedule config row, bumps its version,
// and appends a signed ledger row, so the sum of amounts always equals the
// latest balance_after.
package billing

import "time"

// Source identifies what produced a wallet transaction.
type Source string

const (
	SourceManualAdjust Source = "MANUAL_ADJUST"
	SourceBankMatch    Source = "BANK_MATCH"
	SourceCallCharge   Source = "CALL_CHARGE"
)

// WalletTransaction is one ledger row. Amount is signed: positive for
// credits, negative for charges.
type WalletTransaction struct {
	ID              int64     `db:"id" json:"id"`
	CompanyID       int64     `db:"company_id" json:"company_id"`
	AmountToman     int64     `db:"amount_toman" json:"amount_toman"`
	BalanceAfter    int64     `db:"balance_after" json:"balance_after"`
	Source          Source    `db:"source" json:"source"`
	Note            *string   `db:"note" json:"note,omitempty"`
	TransactionAt   time.Time `db:"transaction_at" json:"transaction_at"`
	CreatedByUserID *int64    `db:"created_by_user_id" json:"created_by_user_id,omitempty"`
	BankSmsID       *int64    `db:"bank_sms_id" json:"bank_sms_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ListFilter narrows a ledger listing. Bounds are UTC instants, inclusive.
type ListFilter struct {
	FromUTC *time.Time
	ToUTC   *time.Time
	Limit   int
	Offset  int
}
