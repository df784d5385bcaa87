// Package schedule_repo persists per-company schedule configs and call
// windows. The config row carries the wallet, so several queries here run
// under FOR UPDATE from billing and gate transactions.
package schedule_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/domain/schedule"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
)

const (
	configsTable = "schedule_configs"
	windowsTable = "schedule_windows"
)

var configColumns = []string{
	"id", "company_id", "skip_holidays", "enabled", "disabled_by_dialer",
	"wallet_balance", "cost_per_connected", "version", "updated_at",
}

var windowColumns = []string{
	"id", "company_id", "day_of_week", "start_time", "end_time",
}

// Repository implements schedule.Repository.
type Repository struct {
	txm     *postgres.TxManager
	builder sq.StatementBuilderType
}

var _ schedule.Repository = (*Repository)(nil)

// New creates a schedule repository.
func New(txm *postgres.TxManager) *Repository {
	return &Repository{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureConfig returns the company's config, creating the default row on
// first touch. The insert is idempotent under concurrent first touches.
func (r *Repository) EnsureConfig(ctx context.Context, companyID int64) (*schedule.Config, error) {
	insert, args, err := r.builder.
		Insert(configsTable).
		Columns("company_id", "skip_holidays", "enabled", "disabled_by_dialer",
			"wallet_balance", "cost_per_connected", "version", "updated_at").
		Values(companyID, true, true, false, 0, 0, 1, time.Now().UTC()).
		Suffix("ON CONFLICT (company_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, insert, args...); err != nil {
		return nil, fmt.Errorf("ensure schedule config: %w", err)
	}
	return r.getConfig(ctx, companyID, false)
}

// GetConfigForUpdate loads the config under an exclusive row lock.
func (r *Repository) GetConfigForUpdate(ctx context.Context, companyID int64) (*schedule.Config, error) {
	return r.getConfig(ctx, companyID, true)
}

func (r *Repository) getConfig(ctx context.Context, companyID int64, forUpdate bool) (*schedule.Config, error) {
	builder := r.builder.
		Select(configColumns...).
		From(configsTable).
		Where(sq.Eq{"company_id": companyID})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var cfg schedule.Config
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &cfg, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("schedule config", companyID)
		}
		return nil, fmt.Errorf("get schedule config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the mutable config fields.
func (r *Repository) SaveConfig(ctx context.Context, cfg *schedule.Config) error {
	query, args, err := r.builder.
		Update(configsTable).
		Set("skip_holidays", cfg.SkipHolidays).
		Set("enabled", cfg.Enabled).
		Set("disabled_by_dialer", cfg.DisabledByDialer).
		Set("wallet_balance", cfg.WalletBalance).
		Set("cost_per_connected", cfg.CostPerConnected).
		Set("version", cfg.Version).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": cfg.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save schedule config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("schedule config", cfg.ID)
	}
	return nil
}

// ListWindows returns the company's windows ordered by day then start.
func (r *Repository) ListWindows(ctx context.Context, companyID int64) ([]schedule.Window, error) {
	query, args, err := r.builder.
		Select(windowColumns...).
		From(windowsTable).
		Where(sq.Eq{"company_id": companyID}).
		OrderBy("day_of_week ASC", "start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var windows []schedule.Window
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &windows, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule windows: %w", err)
	}
	return windows, nil
}

// ReplaceWindows swaps the company's full window set. Callers run this
// inside the same transaction as the config version bump.
func (r *Repository) ReplaceWindows(ctx context.Context, companyID int64, windows []schedule.Window) error {
	del, args, err := r.builder.
		Delete(windowsTable).
		Where(sq.Eq{"company_id": companyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, del, args...); err != nil {
		return fmt.Errorf("delete schedule windows: %w", err)
	}

	if len(windows) == 0 {
		return nil
	}

	builder := r.builder.
		Insert(windowsTable).
		Columns("company_id", "day_of_week", "start_time", "end_time")
	for _, w := range windows {
		builder = builder.Values(companyID, w.DayOfWeek, normalizeWall(w.StartTime), normalizeWall(w.EndTime))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert schedule windows: %w", err)
	}
	return nil
}

// normalizeWall zero-pads "9:5" to "09:05" so string ordering matches
// chronological ordering.
func normalizeWall(v string) string {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d:%d", &h, &m); err != nil {
		return v
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}
