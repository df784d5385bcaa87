package auth

import (
	"context"
)

// Repository defines user persistence.
type Repository interface {
	// GetByUsername loads a user by unique username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID loads a user by id.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByPhone loads a user by normalized phone.
	GetByPhone(ctx context.Context, phone string) (*User, error)

	// ListAgents returns active AGENT users of a company.
	ListAgents(ctx context.Context, companyID int64) ([]User, error)

	// ListForCompany returns every user of a company.
	ListForCompany(ctx context.Context, companyID int64) ([]User, error)

	// Create inserts a user. Duplicate username or phone fails with a
	// duplicate error.
	Create(ctx context.Context, user *User) (*User, error)

	// SetActive flips the active flag.
	SetActive(ctx context.Context, id int64, active bool) error

	// SetPasswordHash replaces the stored hash.
	SetPasswordHash(ctx context.Context, id int64, hash string) error
}
