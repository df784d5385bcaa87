package schedule

import (
	"context"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/core/tx"
	"github.com/saeidmoini/salehi-panel/internal/domain/audit"
)

// Service manages the per-company schedule: windows and flags.
type Service struct {
	repo    Repository
	txm     tx.Manager
	auditor audit.Recorder
}

// NewService creates a schedule service.
func NewService(repo Repository, txm tx.Manager, auditor audit.Recorder) *Service {
	return &Service{repo: repo, txm: txm, auditor: auditor}
}

// State is the full schedule view returned to operators.
type State struct {
	Config  *Config  `json:"config"`
	Windows []Window `json:"windows"`
}

// Get returns the company's schedule, creating the default config on first
// touch.
func (s *Service) Get(ctx context.Context, companyID int64) (*State, error) {
	cfg, err := s.repo.EnsureConfig(ctx, companyID)
	if err != nil {
		return nil, err
	}
	windows, err := s.repo.ListWindows(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &State{Config: cfg, Windows: windows}, nil
}

// UpdateInput carries a partial schedule update. Nil fields are left alone.
type UpdateInput struct {
	Windows      *[]Window
	SkipHolidays *bool
	Enabled      *bool
}

// Update applies the changes atomically. Any effective change bumps the
// config version so polling dialers refetch. A manual enable clears the
// disabled_by_dialer marker.
func (s *Service) Update(ctx context.Context, companyID int64, in UpdateInput) (*State, error) {
	if in.Windows != nil {
		for i := range *in.Windows {
			if err := (*in.Windows)[i].Validate(); err != nil {
				return nil, err
			}
		}
	}

	var state *State
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.EnsureConfig(ctx, companyID); err != nil {
			return err
		}
		cfg, err := s.repo.GetConfigForUpdate(ctx, companyID)
		if err != nil {
			return err
		}

		changed := false
		if in.SkipHolidays != nil && cfg.SkipHolidays != *in.SkipHolidays {
			cfg.SkipHolidays = *in.SkipHolidays
			changed = true
		}
		if in.Enabled != nil && cfg.Enabled != *in.Enabled {
			cfg.Enabled = *in.Enabled
			changed = true
		}
		if in.Enabled != nil && *in.Enabled && cfg.DisabledByDialer {
			cfg.DisabledByDialer = false
			changed = true
		}
		if in.Windows != nil {
			if err := s.repo.ReplaceWindows(ctx, companyID, *in.Windows); err != nil {
				return err
			}
			changed = true
		}

		if changed {
			cfg.Version++
			if err := s.repo.SaveConfig(ctx, cfg); err != nil {
				return err
			}
		}

		windows, err := s.repo.ListWindows(ctx, companyID)
		if err != nil {
			return err
		}
		state = &State{Config: cfg, Windows: windows}
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Record(ctx, s.auditor, "schedule_config", state.Config.ID, audit.ActionUpdate, companyID, map[string]any{
		"enabled":       state.Config.Enabled,
		"skip_holidays": state.Config.SkipHolidays,
		"version":       state.Config.Version,
		"window_count":  len(state.Windows),
	})
	return state, nil
}

// SetWalletAndCost overwrites the wallet balance and/or the per-connected-call
// cost. Superuser-only at the HTTP layer; writing the balance directly does
// not produce a ledger row.
func (s *Service) SetWalletAndCost(ctx context.Context, companyID int64, balance, cost *int64) (*Config, error) {
	if balance == nil && cost == nil {
		return nil, apperror.NewValidation("nothing to update")
	}
	if cost != nil && *cost < 0 {
		return nil, apperror.NewValidation("cost_per_connected must not be negative").
			WithDetail("cost_per_connected", *cost)
	}

	var out *Config
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.EnsureConfig(ctx, companyID); err != nil {
			return err
		}
		cfg, err := s.repo.GetConfigForUpdate(ctx, companyID)
		if err != nil {
			return err
		}
		if balance != nil {
			cfg.WalletBalance = *balance
			if cfg.WalletBalance > 0 && cfg.DisabledByDialer {
				cfg.DisabledByDialer = false
			}
		}
		if cost != nil {
			cfg.CostPerConnected = *cost
		}
		cfg.Version++
		if err := s.repo.SaveConfig(ctx, cfg); err != nil {
			return err
		}
		out = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Record(ctx, s.auditor, "schedule_config", out.ID, audit.ActionUpdate, companyID, map[string]any{
		"wallet_balance":     out.WalletBalance,
		"cost_per_connected": out.CostPerConnected,
		"version":            out.Version,
	})
	return out, nil
}
