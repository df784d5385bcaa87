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

var resultColumns = []string{
	"id", "number_id", "company_id", "scenario_id", "outbound_line_id",
	"call_direction", "status", "reason", "user_message", "agent_id",
	"attempted_at", "created_at",
}

// ResultRepository implements numbers.ResultRepository.
type ResultRepository struct {
	txm     *postgres.TxManager
	builder sq.StatementBuilderType
}

var _ numbers.ResultRepository = (*ResultRepository)(nil)

// NewResults creates a call-result repository.
func NewResults(txm *postgres.TxManager) *ResultRepository {
	return &ResultRepository{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert appends an outcome row and returns it with its id.
func (r *ResultRepository) Insert(ctx context.Context, result *numbers.CallResult) (*numbers.CallResult, error) {
	query, args, err := r.builder.
		Insert(resultsTable).
		Columns("number_id", "company_id", "scenario_id", "outbound_line_id",
			"call_direction", "status", "reason", "user_message", "agent_id",
			"attempted_at", "created_at").
		Values(result.NumberID, result.CompanyID, result.ScenarioID, result.OutboundLineID,
			string(result.Direction), string(result.Status), result.Reason, result.UserMessage, result.AgentID,
			result.AttemptedAt.UTC(), time.Now().UTC()).
		Suffix("RETURNING " + strings.Join(resultColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var created numbers.CallResult
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &created, query, args...); err != nil {
		return nil, fmt.Errorf("insert call result: %w", err)
	}
	return &created, nil
}

// LatestForPair returns the newest result for (company, number).
func (r *ResultRepository) LatestForPair(ctx context.Context, companyID, numberID int64) (*numbers.CallResult, error) {
	query, args, err := r.builder.
		Select(resultColumns...).
		From(resultsTable).
		Where(sq.Eq{"company_id": companyID, "number_id": numberID}).
		OrderBy("attempted_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result numbers.CallResult
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &result, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("call result", numberID)
		}
		return nil, fmt.Errorf("get latest call result: %w", err)
	}
	return &result, nil
}

// CountForPair returns the attempt count for (company, number).
func (r *ResultRepository) CountForPair(ctx context.Context, companyID, numberID int64) (int, error) {
	query, args, err := r.builder.
		Select("COUNT(*)").
		From(resultsTable).
		Where(sq.Eq{"company_id": companyID, "number_id": numberID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &count, query, args...); err != nil {
		return 0, fmt.Errorf("count call results: %w", err)
	}
	return count, nil
}

// UpdateStatus rewrites the status of one result row.
func (r *ResultRepository) UpdateStatus(ctx context.Context, resultID int64, status numbers.CallStatus) error {
	query, args, err := r.builder.
		Update(resultsTable).
		Set("status", string(status)).
		Where(sq.Eq{"id": resultID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update call result status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("call result", resultID)
	}
	return nil
}

// DeleteForPair removes every result for (company, number pairs).
func (r *ResultRepository) DeleteForPair(ctx context.Context, companyID int64, numberIDs []int64) (int64, error) {
	if len(numberIDs) == 0 {
		return 0, nil
	}
	query, args, err := r.builder.
		Delete(resultsTable).
		Where(sq.Eq{"company_id": companyID, "number_id": numberIDs}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete call results: %w", err)
	}
	return tag.RowsAffected(), nil
}
