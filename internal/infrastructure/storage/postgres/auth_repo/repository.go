// Package auth_repo persists operator and agent accounts.
package auth_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/domain/auth"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
)

const usersTable = "users"

var userColumns = []string{
	"id", "company_id", "username", "display_name", "role", "agent_type",
	"phone_number", "is_active", "is_superuser", "password_hash",
	"created_at", "updated_at",
}

// Repository implements auth.Repository.
type Repository struct {
	txm     *postgres.TxManager
	builder sq.StatementBuilderType
}

var _ auth.Repository = (*Repository)(nil)

// New creates a user repository.
func New(txm *postgres.TxManager) *Repository {
	return &Repository{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *Repository) getBy(ctx context.Context, pred sq.Eq, ident any) (*auth.User, error) {
	query, args, err := r.builder.
		Select(userColumns...).
		From(usersTable).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user auth.User
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &user, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", ident)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetByUsername loads a user by unique username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.getBy(ctx, sq.Eq{"username": username}, username)
}

// GetByID loads a user by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	return r.getBy(ctx, sq.Eq{"id": id}, id)
}

// GetByPhone loads a user by normalized phone.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*auth.User, error) {
	return r.getBy(ctx, sq.Eq{"phone_number": phone}, phone)
}

// ListAgents returns active AGENT users of a company.
func (r *Repository) ListAgents(ctx context.Context, companyID int64) ([]auth.User, error) {
	query, args, err := r.builder.
		Select(userColumns...).
		From(usersTable).
		Where(sq.Eq{
			"company_id": companyID,
			"role":       string(auth.RoleAgent),
			"is_active":  true,
		}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var users []auth.User
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &users, query, args...); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return users, nil
}

// ListForCompany returns every user of a company.
func (r *Repository) ListForCompany(ctx context.Context, companyID int64) ([]auth.User, error) {
	query, args, err := r.builder.
		Select(userColumns...).
		From(usersTable).
		Where(sq.Eq{"company_id": companyID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var users []auth.User
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create inserts a user.
func (r *Repository) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	now := time.Now().UTC()
	query, args, err := r.builder.
		Insert(usersTable).
		Columns("company_id", "username", "display_name", "role", "agent_type",
			"phone_number", "is_active", "is_superuser", "password_hash",
			"created_at", "updated_at").
		Values(user.CompanyID, user.Username, user.DisplayName, string(user.Role), user.AgentType,
			user.Phone, user.Active, user.IsSuperuser, user.PasswordHash,
			now, now).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var created auth.User
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &created, query, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperror.NewDuplicate("user", "username or phone", user.Username)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

// SetActive flips the active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.update(ctx, id, map[string]any{"is_active": active})
}

// SetPasswordHash replaces the stored hash.
func (r *Repository) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, id, map[string]any{"password_hash": hash})
}

func (r *Repository) update(ctx context.Context, id int64, fields map[string]any) error {
	builder := r.builder.Update(usersTable).Set("updated_at", time.Now().UTC())
	for column, value := range fields {
		builder = builder.Set(column, value)
	}
	query, args, err := builder.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", id)
	}
	return nil
}
