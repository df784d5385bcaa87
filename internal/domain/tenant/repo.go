package tenant

import (
	"context"
)

// Repository defines Company persistence.
type Repository interface {
	// GetBySlug loads a company by its unique slug.
	GetBySlug(ctx context.Context, slug string) (*Company, error)

	// GetByID loads a company by id.
	GetByID(ctx context.Context, id int64) (*Company, error)

	// List returns all companies, active first, then by slug.
	List(ctx context.Context) ([]Company, error)

	// Create inserts a company. Duplicate slugs fail with a duplicate error.
	Create(ctx context.Context, company *Company) (*Company, error)

	// SetActive flips the active flag.
	SetActive(ctx context.Context, id int64, active bool) error
}
