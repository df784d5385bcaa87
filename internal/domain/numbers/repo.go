package numbers

import (
	"context"
	"time"
)

// ListFilter narrows the operator number list.
type ListFilter struct {
	Status *CallStatus // per-tenant derived status
	Search string      // substring of the phone
	Skip   int
	Limit  int
}

// Repository defines Number persistence.
type Repository interface {
	// GetByID loads a number row.
	GetByID(ctx context.Context, id int64) (*Number, error)

	// GetByPhoneForUpdate loads a number row by normalized phone under a row
	// lock, skipping rows locked by concurrent reporters.
	GetByPhoneForUpdate(ctx context.Context, phone string) (*Number, error)

	// Create inserts a new number row. Returns a duplicate error on a
	// unique violation so callers can recover by re-selecting.
	Create(ctx context.Context, phone string, status GlobalStatus) (*Number, error)

	// InsertMissing inserts the given normalized phones that do not exist
	// yet and returns how many rows were created.
	InsertMissing(ctx context.Context, phones []string) (int, error)

	// ListForCompany returns numbers joined with each one's latest
	// CallResult for the company (IN_QUEUE when none), plus the total count.
	ListForCompany(ctx context.Context, companyID int64, f ListFilter) ([]TenantNumber, int64, error)

	// ClearAssignment releases the lease on the given numbers.
	ClearAssignment(ctx context.Context, ids []int64) error

	// MarkReported updates call bookkeeping after an outcome: last call
	// instant and company, lease cleared, global status replaced.
	MarkReported(ctx context.Context, id int64, companyID int64, attemptedAt time.Time, global GlobalStatus) error

	// SetGlobalStatus replaces the number-wide status.
	SetGlobalStatus(ctx context.Context, id int64, global GlobalStatus) error

	// RecomputeGlobalStatus re-derives global_status from the newest
	// CallResult across all companies.
	RecomputeGlobalStatus(ctx context.Context, id int64) (GlobalStatus, error)

	// SetNote updates the operator note.
	SetNote(ctx context.Context, id int64, note string) error
}

// ResultRepository defines CallResult persistence.
type ResultRepository interface {
	// Insert appends an outcome row and returns it with its id.
	Insert(ctx context.Context, result *CallResult) (*CallResult, error)

	// LatestForPair returns the newest result for (company, number) by
	// (attempted_at, id), or a not-found error.
	LatestForPair(ctx context.Context, companyID, numberID int64) (*CallResult, error)

	// CountForPair returns the attempt count for (company, number).
	CountForPair(ctx context.Context, companyID, numberID int64) (int, error)

	// UpdateStatus rewrites the status of one result row (operator
	// override; the only permitted mutation of the ledger).
	UpdateStatus(ctx context.Context, resultID int64, status CallStatus) error

	// DeleteForPair removes every result for (company, number), resetting
	// the pair to IN_QUEUE and re-opening it for claims.
	DeleteForPair(ctx context.Context, companyID int64, numberIDs []int64) (int64, error)
}
