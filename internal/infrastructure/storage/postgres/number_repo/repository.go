// Package number_repo persists the shared phone-number pool and the
// per-company call-result ledger.
package number_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
)

const (
	numbersTable = "numbers"
	resultsTable = "call_results"
)

var numberColumns = []string{
	"id", "phone_number", "global_status", "last_called_at", "last_called_company_id",
	"assigned_at", "assigned_batch_id", "note", "created_at", "updated_at",
}

// Repository implements numbers.Repository.
type Repository struct {
	txm     *postgres.TxManager
	builder sq.StatementBuilderType
}

var _ numbers.Repository = (*Repository)(nil)

// New creates a number repository.
func New(txm *postgres.TxManager) *Repository {
	return &Repository{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetByID loads a number row.
func (r *Repository) GetByID(ctx context.Context, id int64) (*numbers.Number, error) {
	query, args, err := r.builder.
		Select(numberColumns...).
		From(numbersTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var number numbers.Number
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &number, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("number", id)
		}
		return nil, fmt.Errorf("get number: %w", err)
	}
	return &number, nil
}

// GetByPhoneForUpdate loads a number row by normalized phone under a row
// lock. SKIP LOCKED keeps concurrent reporters of the same fresh number from
// queueing on each other; the loser re-selects after its insert conflicts.
func (r *Repository) GetByPhoneForUpdate(ctx context.Context, phone string) (*numbers.Number, error) {
	query, args, err := r.builder.
		Select(numberColumns...).
		From(numbersTable).
		Where(sq.Eq{"phone_number": phone}).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var number numbers.Number
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &number, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("number", phone)
		}
		return nil, fmt.Errorf("get number by phone: %w", err)
	}
	return &number, nil
}

// Create inserts a new number row.
func (r *Repository) Create(ctx context.Context, phone string, status numbers.GlobalStatus) (*numbers.Number, error) {
	now := time.Now().UTC()
	query, args, err := r.builder.
		Insert(numbersTable).
		Columns("phone_number", "global_status", "created_at", "updated_at").
		Values(phone, string(status), now, now).
		Suffix("RETURNING " + strings.Join(numberColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var number numbers.Number
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &number, query, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperror.NewDuplicate("number", "phone_number", phone)
		}
		return nil, fmt.Errorf("create number: %w", err)
	}
	return &number, nil
}

// InsertMissing inserts phones that do not exist yet and reports how many
// rows were created. Conflicting rows are left untouched.
func (r *Repository) InsertMissing(ctx context.Context, phones []string) (int, error) {
	if len(phones) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	builder := r.builder.
		Insert(numbersTable).
		Columns("phone_number", "global_status", "created_at", "updated_at")
	for _, phone := range phones {
		builder = builder.Values(phone, string(numbers.GlobalActive), now, now)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (phone_number) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert numbers: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListForCompany joins each number with its latest result for the company.
// Numbers without a result read as IN_QUEUE.
func (r *Repository) ListForCompany(ctx context.Context, companyID int64, f numbers.ListFilter) ([]numbers.TenantNumber, int64, error) {
	cols := make([]string, 0, len(numberColumns))
	for _, c := range numberColumns {
		cols = append(cols, "n."+c)
	}

	builder := r.builder.
		Select(cols...).
		Column(sq.Expr("COALESCE(last.status, ?) AS tenant_status", string(numbers.StatusInQueue))).
		Column(sq.Expr(fmt.Sprintf(`(SELECT COUNT(*) FROM %s cr
			WHERE cr.number_id = n.id AND cr.company_id = ?) AS attempts`, resultsTable), companyID)).
		Column("last.attempted_at AS last_result_at").
		From(numbersTable + " n").
		JoinClause(latestResultJoin("cr.status, cr.attempted_at"), companyID)
	builder = r.applyFilter(builder, f)

	skip := f.Skip
	if skip < 0 {
		skip = 0
	}
	query, args, err := builder.
		OrderBy("n.id ASC").
		Offset(uint64(skip)).
		Limit(uint64(limitOrDefault(f.Limit))).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var rows []numbers.TenantNumber
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list numbers: %w", err)
	}

	total, err := r.countForCompany(ctx, companyID, f)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) applyFilter(builder sq.SelectBuilder, f numbers.ListFilter) sq.SelectBuilder {
	if f.Search != "" {
		builder = builder.Where(sq.Like{"n.phone_number": "%" + f.Search + "%"})
	}
	if f.Status != nil {
		if *f.Status == numbers.StatusInQueue {
			builder = builder.Where(sq.Expr("(last.status IS NULL OR last.status = ?)", string(numbers.StatusInQueue)))
		} else {
			builder = builder.Where(sq.Eq{"last.status": string(*f.Status)})
		}
	}
	return builder
}

func (r *Repository) countForCompany(ctx context.Context, companyID int64, f numbers.ListFilter) (int64, error) {
	builder := r.builder.
		Select("COUNT(*)").
		From(numbersTable + " n").
		JoinClause(latestResultJoin("cr.status"), companyID)
	builder = r.applyFilter(builder, f)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &total, query, args...); err != nil {
		return 0, fmt.Errorf("count numbers: %w", err)
	}
	return total, nil
}

// ClearAssignment releases the lease on the given numbers.
func (r *Repository) ClearAssignment(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := r.builder.
		Update(numbersTable).
		Set("assigned_at", nil).
		Set("assigned_batch_id", nil).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("clear assignment: %w", err)
	}
	return nil
}

// MarkReported updates call bookkeeping after an outcome.
func (r *Repository) MarkReported(ctx context.Context, id int64, companyID int64, attemptedAt time.Time, global numbers.GlobalStatus) error {
	query, args, err := r.builder.
		Update(numbersTable).
		Set("last_called_at", attemptedAt.UTC()).
		Set("last_called_company_id", companyID).
		Set("assigned_at", nil).
		Set("assigned_batch_id", nil).
		Set("global_status", string(global)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark reported: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("number", id)
	}
	return nil
}

// SetGlobalStatus replaces the number-wide status.
func (r *Repository) SetGlobalStatus(ctx context.Context, id int64, global numbers.GlobalStatus) error {
	query, args, err := r.builder.
		Update(numbersTable).
		Set("global_status", string(global)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set global status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("number", id)
	}
	return nil
}

// RecomputeGlobalStatus re-derives global_status from the newest result
// across all companies.
func (r *Repository) RecomputeGlobalStatus(ctx context.Context, id int64) (numbers.GlobalStatus, error) {
	query, args, err := r.builder.
		Select("status").
		From(resultsTable).
		Where(sq.Eq{"number_id": id}).
		OrderBy("attempted_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var status string
	global := numbers.GlobalActive
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &status, query, args...)
	switch {
	case err == nil:
		global = numbers.GlobalStatusFor(numbers.CallStatus(status))
	case pgxscan.NotFound(err):
		// No results left: the number is plain active.
	default:
		return "", fmt.Errorf("load newest result: %w", err)
	}

	if err := r.SetGlobalStatus(ctx, id, global); err != nil {
		return "", err
	}
	return global, nil
}

// SetNote updates the operator note.
func (r *Repository) SetNote(ctx context.Context, id int64, note string) error {
	query, args, err := r.builder.
		Update(numbersTable).
		Set("note", note).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("number", id)
	}
	return nil
}

// latestResultJoin is the lateral join selecting the newest result of the
// (number, company) pair; the company id binds as the join arg.
func latestResultJoin(selectList string) string {
	return fmt.Sprintf(`LEFT JOIN LATERAL (
		SELECT %s
		FROM %s cr
		WHERE cr.number_id = n.id AND cr.company_id = ?
		ORDER BY cr.attempted_at DESC, cr.id DESC
		LIMIT 1
	) last ON true`, selectList, resultsTable)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}
