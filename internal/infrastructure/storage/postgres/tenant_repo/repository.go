// Package tenant_repo persists companies.
package tenant_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/domain/tenant"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
)

const companiesTable = "companies"

var companyColumns = []string{
	"id", "slug", "display_name", "is_active", "settings", "created_at", "updated_at",
}

// Repository implements tenant.Repository.
type Repository struct {
	txm     *postgres.TxManager
	builder sq.StatementBuilderType
}

var _ tenant.Repository = (*Repository)(nil)

// New creates a company repository.
func New(txm *postgres.TxManager) *Repository {
	return &Repository{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetBySlug loads a company by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*tenant.Company, error) {
	query, args, err := r.builder.
		Select(companyColumns...).
		From(companiesTable).
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var company tenant.Company
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &company, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("company", slug)
		}
		return nil, fmt.Errorf("get company by slug: %w", err)
	}
	return &company, nil
}

// GetByID loads a company by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*tenant.Company, error) {
	query, args, err := r.builder.
		Select(companyColumns...).
		From(companiesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var company tenant.Company
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &company, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("company", id)
		}
		return nil, fmt.Errorf("get company by id: %w", err)
	}
	return &company, nil
}

// List returns all companies, active first, then by slug.
func (r *Repository) List(ctx context.Context) ([]tenant.Company, error) {
	query, args, err := r.builder.
		Select(companyColumns...).
		From(companiesTable).
		OrderBy("is_active DESC", "slug ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var companies []tenant.Company
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &companies, query, args...); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// Create inserts a company.
func (r *Repository) Create(ctx context.Context, company *tenant.Company) (*tenant.Company, error) {
	now := time.Now().UTC()
	query, args, err := r.builder.
		Insert(companiesTable).
		Columns("slug", "display_name", "is_active", "settings", "created_at", "updated_at").
		Values(company.Slug, company.DisplayName, company.Active, company.Settings, now, now).
		Suffix("RETURNING " + strings.Join(companyColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var created tenant.Company
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &created, query, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperror.NewDuplicate("company", "slug", company.Slug)
		}
		return nil, fmt.Errorf("create company: %w", err)
	}
	return &created, nil
}

// SetActive flips the active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	query, args, err := r.builder.
		Update(companiesTable).
		Set("is_active", active).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set company active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("company", id)
	}
	return nil
}
