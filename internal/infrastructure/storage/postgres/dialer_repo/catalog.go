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
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
)

// ListActiveScenarios returns the company's active scenarios by name.
func (r *Repository) ListActiveScenarios(ctx context.Context, companyID int64) ([]dialer.Scenario, error) {
	return r.listScenarios(ctx, sq.Eq{"company_id": companyID, "is_active": true})
}

// ListScenarios returns all of the company's scenarios by name.
func (r *Repository) ListScenarios(ctx context.Context, companyID int64) ([]dialer.Scenario, error) {
	return r.listScenarios(ctx, sq.Eq{"company_id": companyID})
}

func (r *Repository) listScenarios(ctx context.Context, pred sq.Eq) ([]dialer.Scenario, error) {
	query, args, err := r.builder.
		Select(scenarioColumns...).
		From(scenariosTable).
		Where(pred).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var scenarios []dialer.Scenario
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &scenarios, query, args...); err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	return scenarios, nil
}

// GetScenario loads one scenario scoped to the company.
func (r *Repository) GetScenario(ctx context.Context, companyID, id int64) (*dialer.Scenario, error) {
	return r.getScenario(ctx, sq.Eq{"company_id": companyID, "id": id}, id)
}

// FindScenarioByName loads a scenario by its unique (company, name).
func (r *Repository) FindScenarioByName(ctx context.Context, companyID int64, name string) (*dialer.Scenario, error) {
	return r.getScenario(ctx, sq.Eq{"company_id": companyID, "name": name}, name)
}

func (r *Repository) getScenario(ctx context.Context, pred sq.Eq, ident any) (*dialer.Scenario, error) {
	query, args, err := r.builder.
		Select(scenarioColumns...).
		From(scenariosTable).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sc dialer.Scenario
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &sc, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("scenario", ident)
		}
		return nil, fmt.Errorf("get scenario: %w", err)
	}
	return &sc, nil
}

// CreateScenario inserts a scenario.
func (r *Repository) CreateScenario(ctx context.Context, sc *dialer.Scenario) error {
	query, args, err := r.builder.
		Insert(scenariosTable).
		Columns("company_id", "name", "display_name", "cost_per_connected", "is_active", "created_at").
		Values(sc.CompanyID, sc.Name, sc.DisplayName, sc.CostPerConnected, sc.Active, time.Now().UTC()).
		Suffix("RETURNING " + strings.Join(scenarioColumns, ", ")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), sc, query, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("scenario", "name", sc.Name)
		}
		return fmt.Errorf("create scenario: %w", err)
	}
	return nil
}

// UpdateScenario writes display name, cost, and active flag.
func (r *Repository) UpdateScenario(ctx context.Context, sc *dialer.Scenario) error {
	query, args, err := r.builder.
		Update(scenariosTable).
		Set("display_name", sc.DisplayName).
		Set("cost_per_connected", sc.CostPerConnected).
		Set("is_active", sc.Active).
		Where(sq.Eq{"id": sc.ID, "company_id": sc.CompanyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update scenario: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("scenario", sc.ID)
	}
	return nil
}

// ListActiveLines returns the company's active outbound lines.
func (r *Repository) ListActiveLines(ctx context.Context, companyID int64) ([]dialer.OutboundLine, error) {
	return r.listLines(ctx, sq.Eq{"company_id": companyID, "is_active": true})
}

// ListLines returns all of the company's outbound lines.
func (r *Repository) ListLines(ctx context.Context, companyID int64) ([]dialer.OutboundLine, error) {
	return r.listLines(ctx, sq.Eq{"company_id": companyID})
}

func (r *Repository) listLines(ctx context.Context, pred sq.Eq) ([]dialer.OutboundLine, error) {
	query, args, err := r.builder.
		Select(lineColumns...).
		From(linesTable).
		Where(pred).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []dialer.OutboundLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, query, args...); err != nil {
		return nil, fmt.Errorf("list outbound lines: %w", err)
	}
	return lines, nil
}

// CountActiveLines returns the authoritative active line count.
func (r *Repository) CountActiveLines(ctx context.Context, companyID int64) (int, error) {
	query, args, err := r.builder.
		Select("COUNT(*)").
		From(linesTable).
		Where(sq.Eq{"company_id": companyID, "is_active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &count, query, args...); err != nil {
		return 0, fmt.Errorf("count outbound lines: %w", err)
	}
	return count, nil
}

// FindLineByPhone loads a line by its normalized phone within the company.
func (r *Repository) FindLineByPhone(ctx context.Context, companyID int64, phone string) (*dialer.OutboundLine, error) {
	return r.getLine(ctx, sq.Eq{"company_id": companyID, "phone_number": phone}, phone)
}

// GetLine loads one line scoped to the company.
func (r *Repository) GetLine(ctx context.Context, companyID, id int64) (*dialer.OutboundLine, error) {
	return r.getLine(ctx, sq.Eq{"company_id": companyID, "id": id}, id)
}

func (r *Repository) getLine(ctx context.Context, pred sq.Eq, ident any) (*dialer.OutboundLine, error) {
	query, args, err := r.builder.
		Select(lineColumns...).
		From(linesTable).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var line dialer.OutboundLine
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &line, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("outbound line", ident)
		}
		return nil, fmt.Errorf("get outbound line: %w", err)
	}
	return &line, nil
}

// CreateLine inserts an outbound line.
func (r *Repository) CreateLine(ctx context.Context, line *dialer.OutboundLine) error {
	query, args, err := r.builder.
		Insert(linesTable).
		Columns("company_id", "phone_number", "display_name", "is_active", "created_at").
		Values(line.CompanyID, line.Phone, line.DisplayName, line.Active, time.Now().UTC()).
		Suffix("RETURNING " + strings.Join(lineColumns, ", ")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), line, query, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("outbound line", "phone_number", line.Phone)
		}
		return fmt.Errorf("create outbound line: %w", err)
	}
	return nil
}

// UpdateLine writes display name and active flag.
func (r *Repository) UpdateLine(ctx context.Context, line *dialer.OutboundLine) error {
	query, args, err := r.builder.
		Update(linesTable).
		Set("display_name", line.DisplayName).
		Set("is_active", line.Active).
		Where(sq.Eq{"id": line.ID, "company_id": line.CompanyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update outbound line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("outbound line", line.ID)
	}
	return nil
}
