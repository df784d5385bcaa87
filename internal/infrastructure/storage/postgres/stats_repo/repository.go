// Package stats_repo runs the dashboard aggregate queries.
package stats_repo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
	"github.com/saeidmoini/salehi-panel/internal/domain/stats"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
)

const (
	numbersTable = "numbers"
	resultsTable = "call_results"
)

// Repository implements stats.Repository.
type Repository struct {
	txm     *postgres.TxManager
	builder sq.StatementBuilderType
}

var _ stats.Repository = (*Repository)(nil)

// New creates a stats repository.
func New(txm *postgres.TxManager) *Repository {
	return &Repository{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type statusCountRow struct {
	Status string `db:"status"`
	Count  int64  `db:"count"`
}

// CountNumbersByTenantStatus returns the pool size and the count per derived
// per-company status: the status of the newest result for the pair, or
// IN_QUEUE when the company never called the number.
func (r *Repository) CountNumbersByTenantStatus(ctx context.Context, companyID int64) (int64, map[numbers.CallStatus]int64, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(last.status, $2) AS status, COUNT(*) AS count
		FROM %s n
		LEFT JOIN LATERAL (
			SELECT cr.status
			FROM %s cr
			WHERE cr.number_id = n.id AND cr.company_id = $1
			ORDER BY cr.attempted_at DESC, cr.id DESC
			LIMIT 1
		) last ON true
		GROUP BY COALESCE(last.status, $2)`,
		numbersTable, resultsTable)

	var rows []statusCountRow
	err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, query,
		companyID, string(numbers.StatusInQueue))
	if err != nil {
		return 0, nil, fmt.Errorf("count numbers by status: %w", err)
	}

	var total int64
	counts := make(map[numbers.CallStatus]int64, len(rows))
	for _, row := range rows {
		total += row.Count
		counts[numbers.CallStatus(row.Status)] = row.Count
	}
	return total, counts, nil
}

// ListAttemptsSince returns the company's call results at or after the UTC
// instant.
func (r *Repository) ListAttemptsSince(ctx context.Context, companyID int64, sinceUTC time.Time) ([]stats.AttemptRow, error) {
	query, args, err := r.builder.
		Select("status", "attempted_at").
		From(resultsTable).
		Where(sq.Eq{"company_id": companyID}).
		Where(sq.GtOrEq{"attempted_at": sinceUTC.UTC()}).
		OrderBy("attempted_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []stats.AttemptRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return rows, nil
}
