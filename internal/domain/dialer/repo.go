package dialer

import (
	"context"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
)

// Repository defines batch, scenario, and line persistence.
type Repository interface {
	// ReclaimStaleAssignments clears every lease with assigned_at at or
	// before the cutoff. Returns the number of reclaimed rows.
	ReclaimStaleAssignments(ctx context.Context, cutoff time.Time) (int64, error)

	// ClaimNumbers atomically claims up to limit callable numbers for the
	// company: globally ACTIVE, unassigned, never called for this company,
	// and outside the global cooldown. Rows are taken in id order under
	// locks that skip rows held by concurrent claims, and stamped with the
	// batch id. Must run inside a transaction.
	ClaimNumbers(ctx context.Context, companyID int64, limit int, cooldownCutoff, now time.Time, batchID string) ([]numbers.Number, error)

	// InsertBatch stores the batch header.
	InsertBatch(ctx context.Context, batch *Batch) error

	// InsertBatchItems stores one trace row per claimed number.
	InsertBatchItems(ctx context.Context, items []BatchItem) error

	// GetItemByBatch finds the trace row for (batch, company, number).
	GetItemByBatch(ctx context.Context, batchID string, companyID, numberID int64) (*BatchItem, error)

	// GetNewestItem finds the latest trace row for (company, number).
	GetNewestItem(ctx context.Context, companyID, numberID int64) (*BatchItem, error)

	// InsertBatchItem stores a single trace row and fills its id.
	InsertBatchItem(ctx context.Context, item *BatchItem) error

	// UpdateItemReport writes the reported_at and report_* fields.
	UpdateItemReport(ctx context.Context, item *BatchItem) error

	// ListActiveScenarios returns the company's active scenarios by name.
	ListActiveScenarios(ctx context.Context, companyID int64) ([]Scenario, error)

	// ListScenarios returns all of the company's scenarios by name.
	ListScenarios(ctx context.Context, companyID int64) ([]Scenario, error)

	// GetScenario loads one scenario scoped to the company.
	GetScenario(ctx context.Context, companyID, id int64) (*Scenario, error)

	// CreateScenario inserts a scenario; duplicate (company, name) maps to
	// a duplicate error.
	CreateScenario(ctx context.Context, sc *Scenario) error

	// UpdateScenario writes display name, cost, and active flag.
	UpdateScenario(ctx context.Context, sc *Scenario) error

	// FindScenarioByName loads a scenario by its unique (company, name).
	FindScenarioByName(ctx context.Context, companyID int64, name string) (*Scenario, error)

	// ListActiveLines returns the company's active outbound lines.
	ListActiveLines(ctx context.Context, companyID int64) ([]OutboundLine, error)

	// ListLines returns all of the company's outbound lines.
	ListLines(ctx context.Context, companyID int64) ([]OutboundLine, error)

	// CountActiveLines returns the authoritative active line count.
	CountActiveLines(ctx context.Context, companyID int64) (int, error)

	// FindLineByPhone loads a line by its normalized phone within the
	// company.
	FindLineByPhone(ctx context.Context, companyID int64, phone string) (*OutboundLine, error)

	// GetLine loads one line scoped to the company.
	GetLine(ctx context.Context, companyID, id int64) (*OutboundLine, error)

	// CreateLine inserts an outbound line.
	CreateLine(ctx context.Context, line *OutboundLine) error

	// UpdateLine writes display name and active flag.
	UpdateLine(ctx context.Context, line *OutboundLine) error
}
