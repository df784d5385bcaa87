package tenant

import (
	"context"
	"strings"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	appctx "github.com/saeidmoini/salehi-panel/internal/core/context"
)

// Service provides company management (superuser surface) and the slug
// resolution used by every tenant-scoped request.
type Service struct {
	repo Repository
}

// NewService creates a company service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve loads an active company by slug. Inactive companies resolve for
// superusers only.
func (s *Service) Resolve(ctx context.Context, slug string) (*Company, error) {
	company, err := s.repo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if !company.Active && !appctx.IsSuperuser(ctx) {
		return nil, apperror.NewNotFound("company", slug)
	}
	return company, nil
}

// Authorize checks that the context user may act on the company: superusers
// always, others only within their own company.
func (s *Service) Authorize(ctx context.Context, companyID int64) error {
	user := appctx.GetUser(ctx)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if user.IsSuperuser || user.CompanyID == companyID {
		return nil
	}
	return apperror.NewForbidden("cross-company access denied")
}

// List returns all companies.
func (s *Service) List(ctx context.Context) ([]Company, error) {
	return s.repo.List(ctx)
}

// Create registers a new company.
func (s *Service) Create(ctx context.Context, slug, displayName string) (*Company, error) {
	company := &Company{
		Slug:        strings.ToLower(strings.TrimSpace(slug)),
		DisplayName: strings.TrimSpace(displayName),
		Active:      true,
	}
	if err := company.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, company)
}

// SetActive activates or deactivates a company. Deactivated companies stop
// resolving for dialers and operators immediately.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, id, active)
}
