// Package dialer_repo persists batches, batch items, scenarios, and
// outbound lines, and carries the claim query that assigns numbers to
// dialers.
package dialer_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/domain/dialer"
	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
)

const (
	numbersTable   = "numbers"
	resultsTable   = "call_results"
	batchesTable   = "dialer_batches"
	itemsTable     = "dialer_batch_items"
	scenariosTable = "scenarios"
	linesTable     = "outbound_lines"
)

var numberColumns = []string{
	"id", "phone_number", "global_status", "last_called_at", "last_called_company_id",
	"assigned_at", "assigned_batch_id", "note", "created_at", "updated_at",
}

var itemColumns = []string{
	"id", "batch_id", "company_id", "number_id", "assigned_at",
	"reported_at", "report_batch_id", "report_call_result_id", "report_attempted_at",
	"report_status", "report_scenario_id", "report_outbound_line_id", "report_reason",
	"created_at",
}

var scenarioColumns = []string{
	"id", "company_id", "name", "display_name", "cost_per_connected", "is_active", "created_at",
}

var lineColumns = []string{
	"id", "company_id", "phone_number", "display_name", "is_active", "created_at",
}

// Repository implements dialer.Repository.
type Repository struct {
	txm     *postgres.TxManager
	builder sq.StatementBuilderType
}

var _ dialer.Repository = (*Repository)(nil)

// New creates a dialer repository.
func New(txm *postgres.TxManager) *Repository {
	return &Repository{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ReclaimStaleAssignments clears every lease with assigned_at at or before
// the cutoff.
func (r *Repository) ReclaimStaleAssignments(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := r.builder.
		Update(numbersTable).
		Set("assigned_at", nil).
		Set("assigned_batch_id", nil).
		Set("updated_at", time.Now().UTC()).
		Where(sq.LtOrEq{"assigned_at": cutoff.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale assignments: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClaimNumbers atomically claims up to limit callable numbers for the
// company. Candidates are globally ACTIVE, unassigned, never called for this
// company, and outside the global cooldown; they are taken in id order under
// FOR UPDATE SKIP LOCKED so concurrent claims never block or double-assign.
func (r *Repository) ClaimNumbers(ctx context.Context, companyID int64, limit int, cooldownCutoff, now time.Time, batchID string) ([]numbers.Number, error) {
	if limit <= 0 {
		return nil, nil
	}

	returning := make([]string, 0, len(numberColumns))
	for _, c := range numberColumns {
		returning = append(returning, "n."+c)
	}

	query := fmt.Sprintf(`
		UPDATE %[1]s n
		SET assigned_at = $1, assigned_batch_id = $2, updated_at = $1
		FROM (
			SELECT c.id
			FROM %[1]s c
			WHERE c.global_status = $3
			  AND c.assigned_at IS NULL
			  AND (c.last_called_at IS NULL OR c.last_called_at < $4)
			  AND NOT EXISTS (
				SELECT 1 FROM %[2]s cr
				WHERE cr.number_id = c.id AND cr.company_id = $5
			  )
			ORDER BY c.id ASC
			LIMIT $6
			FOR UPDATE SKIP LOCKED
		) picked
		WHERE n.id = picked.id
		RETURNING %[3]s`,
		numbersTable, resultsTable, strings.Join(returning, ", "))

	var claimed []numbers.Number
	err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &claimed, query,
		now.UTC(), batchID, string(numbers.GlobalActive), cooldownCutoff.UTC(), companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("claim numbers: %w", err)
	}
	return claimed, nil
}

// InsertBatch stores the batch header.
func (r *Repository) InsertBatch(ctx context.Context, batch *dialer.Batch) error {
	query, args, err := r.builder.
		Insert(batchesTable).
		Columns("id", "company_id", "requested_size", "returned_size", "created_at").
		Values(batch.ID, batch.CompanyID, batch.RequestedSize, batch.ReturnedSize, batch.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// InsertBatchItems stores one trace row per claimed number.
func (r *Repository) InsertBatchItems(ctx context.Context, items []dialer.BatchItem) error {
	if len(items) == 0 {
		return nil
	}
	builder := r.builder.
		Insert(itemsTable).
		Columns("batch_id", "company_id", "number_id", "assigned_at", "created_at")
	now := time.Now().UTC()
	for _, item := range items {
		builder = builder.Values(item.BatchID, item.CompanyID, item.NumberID, item.AssignedAt.UTC(), now)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert batch items: %w", err)
	}
	return nil
}

// GetItemByBatch finds the trace row for (batch, company, number).
func (r *Repository) GetItemByBatch(ctx context.Context, batchID string, companyID, numberID int64) (*dialer.BatchItem, error) {
	return r.getItem(ctx, sq.Eq{
		"batch_id":   batchID,
		"company_id": companyID,
		"number_id":  numberID,
	})
}

// GetNewestItem finds the latest trace row for (company, number).
func (r *Repository) GetNewestItem(ctx context.Context, companyID, numberID int64) (*dialer.BatchItem, error) {
	return r.getItem(ctx, sq.Eq{
		"company_id": companyID,
		"number_id":  numberID,
	})
}

func (r *Repository) getItem(ctx context.Context, pred sq.Eq) (*dialer.BatchItem, error) {
	query, args, err := r.builder.
		Select(itemColumns...).
		From(itemsTable).
		Where(pred).
		OrderBy("assigned_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item dialer.BatchItem
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &item, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch item")
		}
		return nil, fmt.Errorf("get batch item: %w", err)
	}
	return &item, nil
}

// InsertBatchItem stores a single trace row and fills its id.
func (r *Repository) InsertBatchItem(ctx context.Context, item *dialer.BatchItem) error {
	query, args, err := r.builder.
		Insert(itemsTable).
		Columns("batch_id", "company_id", "number_id", "assigned_at", "created_at").
		Values(item.BatchID, item.CompanyID, item.NumberID, item.AssignedAt.UTC(), time.Now().UTC()).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	row := r.txm.GetQuerier(ctx).QueryRow(ctx, query, args...)
	if err := row.Scan(&item.ID, &item.CreatedAt); err != nil {
		return fmt.Errorf("insert batch item: %w", err)
	}
	return nil
}

// UpdateItemReport writes the reported_at and report_* fields.
func (r *Repository) UpdateItemReport(ctx context.Context, item *dialer.BatchItem) error {
	query, args, err := r.builder.
		Update(itemsTable).
		Set("reported_at", item.ReportedAt).
		Set("report_batch_id", item.ReportBatchID).
		Set("report_call_result_id", item.ReportCallResultID).
		Set("report_attempted_at", item.ReportAttemptedAt).
		Set("report_status", item.ReportStatus).
		Set("report_scenario_id", item.ReportScenarioID).
		Set("report_outbound_line_id", item.ReportOutboundLineID).
		Set("report_reason", item.ReportReason).
		Where(sq.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update batch item report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("batch item", item.ID)
	}
	return nil
}
