package billing

import "context"

// Repository defines wallet ledger persistence.
type Repository interface {
	// InsertTransaction appends a ledger row and fills the generated fields.
	InsertTransaction(ctx context.Context, tx *WalletTransaction) error

	// ListTransactions returns a page ordered by transaction_at desc, id
	// desc, plus the unpaged total.
	ListTransactions(ctx context.Context, companyID int64, filter ListFilter) ([]WalletTransaction, int64, error)
}
