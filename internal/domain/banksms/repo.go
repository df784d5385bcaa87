package banksms

import (
	"context"
	"time"
)

// Repository defines bank SMS persistence.
type Repository interface {
	// Insert stores an ingested SMS and fills the generated fields.
	Insert(ctx context.Context, sms *IncomingSms) error

	// GetForUpdate loads one SMS under FOR UPDATE. Must run inside a
	// transaction.
	GetForUpdate(ctx context.Context, id int64) (*IncomingSms, error)

	// FindOldestUnconsumedForUpdate returns the oldest unconsumed credit SMS
	// with the exact parsed amount and minute-precision instant, locked.
	// Returns a not-found error when nothing matches.
	FindOldestUnconsumedForUpdate(ctx context.Context, amountToman int64, transactionAt time.Time) (*IncomingSms, error)

	// MarkConsumed flags the SMS as used for a wallet top-up.
	MarkConsumed(ctx context.Context, id int64, consumedAt time.Time) error
}
