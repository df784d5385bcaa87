package schedule

import (
	"context"
)

// Repository defines schedule persistence. The config row is the billing
// lock anchor: GetConfigForUpdate must take an exclusive row lock.
type Repository interface {
	// EnsureConfig returns the company's config, creating the default row
	// on first touch.
	EnsureConfig(ctx context.Context, companyID int64) (*Config, error)

	// GetConfigForUpdate loads the config under FOR UPDATE. Must run inside
	// a transaction.
	GetConfigForUpdate(ctx context.Context, companyID int64) (*Config, error)

	// SaveConfig writes the mutable config fields (flags, balance, cost,
	// version).
	SaveConfig(ctx context.Context, cfg *Config) error

	// ListWindows returns the company's windows ordered by day then start.
	ListWindows(ctx context.Context, companyID int64) ([]Window, error)

	// ReplaceWindows swaps the company's full window set.
	ReplaceWindows(ctx context.Context, companyID int64, windows []Window) error
}
