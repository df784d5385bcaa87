// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedSuperuser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed superuser", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoCompany(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo company", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedSuperuser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	username := os.Getenv("SUPERUSER_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("SUPERUSER_PASSWORD")
	if password == "" {
		password = "Admin123!"
	}

	var existingID int64
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE username = $1`,
		username,
	).Scan(&existingID)
	if err == nil {
		log.Infow("superuser already exists", "username", username, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check superuser exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	var userID int64
	err = pool.Pool.QueryRow(ctx,
		`INSERT INTO users (company_id, username, display_name, role, is_active, is_superuser, password_hash, created_at, updated_at)
		 VALUES (NULL, $1, $2, 'ADMIN', true, true, $3, $4, $4)
		 RETURNING id`,
		username, "Administrator", string(passwordHash), now,
	).Scan(&userID)
	if err != nil {
		return fmt.Errorf("insert superuser: %w", err)
	}

	log.Infow("superuser created", "username", username, "user_id", userID)
	return nil
}

func seedDemoCompany(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	const slug = "demo"

	now := time.Now().UTC()
	var companyID int64
	err := pool.Pool.QueryRow(ctx,
		`INSERT INTO companies (slug, display_name, is_active, created_at, updated_at)
		 VALUES ($1, $2, true, $3, $3)
		 ON CONFLICT (slug) DO UPDATE SET updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		slug, "Demo Company", now,
	).Scan(&companyID)
	if err != nil {
		return fmt.Errorf("upsert demo company: %w", err)
	}

	_, err = pool.Pool.Exec(ctx,
		`INSERT INTO schedule_configs (company_id, skip_holidays, enabled, disabled_by_dialer, wallet_balance, cost_per_connected, version, updated_at)
		 VALUES ($1, true, true, false, 0, 0, 1, $2)
		 ON CONFLICT (company_id) DO NOTHING`,
		companyID, now,
	)
	if err != nil {
		return fmt.Errorf("insert demo schedule config: %w", err)
	}

	// Saturday through Wednesday, working hours.
	_, err = pool.Pool.Exec(ctx, `DELETE FROM schedule_windows WHERE company_id = $1`, companyID)
	if err != nil {
		return fmt.Errorf("clear demo windows: %w", err)
	}
	for day := 0; day <= 4; day++ {
		_, err = pool.Pool.Exec(ctx,
			`INSERT INTO schedule_windows (company_id, day_of_week, start_time, end_time)
			 VALUES ($1, $2, '09:00', '17:00')`,
			companyID, day,
		)
		if err != nil {
			return fmt.Errorf("insert demo window: %w", err)
		}
	}

	log.Infow("demo company seeded", "slug", slug, "company_id", companyID)
	return nil
}
