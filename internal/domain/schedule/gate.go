package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/core/jalali"
	"github.com/saeidmoini/salehi-panel/internal/core/tx"
	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

// Deny reasons returned to dialers.
const (
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonDisabled          = "disabled"
	ReasonHoliday           = "holiday"
	ReasonNoWindow          = "no_window"
	ReasonOutsideWindow     = "outside_allowed_time_window"
)

// Decision is the gate verdict for one company at one instant.
type Decision struct {
	Allowed           bool
	Reason            string
	RetryAfterSeconds int
	Version           int64
}

// GateConfig holds the advisory retry hints.
type GateConfig struct {
	ShortRetrySeconds int
	LongRetrySeconds  int
}

// Gate evaluates whether a company may place calls right now.
//
// The wallet check is the single place where the gate mutates state: hitting
// the gate with an exhausted wallet auto-disables the company (enabled=false,
// disabled_by_dialer=true, version bump) inside the same transaction.
type Gate struct {
	repo Repository
	txm  tx.Manager
	cal  *jalali.Calendar
	cfg  GateConfig
}

// NewGate creates a scheduling gate.
func NewGate(repo Repository, txm tx.Manager, cal *jalali.Calendar, cfg GateConfig) *Gate {
	return &Gate{repo: repo, txm: txm, cal: cal, cfg: cfg}
}

// IsCallAllowed evaluates the decision table in order; the first matching
// condition wins.
func (g *Gate) IsCallAllowed(ctx context.Context, companyID int64, now time.Time) (*Decision, error) {
	var decision *Decision

	err := g.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := g.repo.EnsureConfig(ctx, companyID); err != nil {
			return err
		}
		cfg, err := g.repo.GetConfigForUpdate(ctx, companyID)
		if err != nil {
			return err
		}

		if cfg.WalletBalance <= 0 {
			if cfg.Enabled || !cfg.DisabledByDialer {
				cfg.Enabled = false
				cfg.DisabledByDialer = true
				cfg.Version++
				if err := g.repo.SaveConfig(ctx, cfg); err != nil {
					return err
				}
				logger.Info(ctx, "company auto-disabled on wallet exhaustion",
					"company_id", companyID,
					"schedule_version", cfg.Version,
				)
			}
			decision = g.deny(cfg, ReasonInsufficientFunds, g.cfg.ShortRetrySeconds)
			return nil
		}

		if !cfg.Enabled {
			decision = g.deny(cfg, ReasonDisabled, g.cfg.ShortRetrySeconds)
			return nil
		}

		if cfg.SkipHolidays && g.cal.IsHoliday(now) {
			decision = g.deny(cfg, ReasonHoliday, g.cfg.LongRetrySeconds)
			return nil
		}

		windows, err := g.repo.ListWindows(ctx, companyID)
		if err != nil {
			return err
		}

		local := now.In(g.cal.Location())
		weekday := g.cal.Weekday(now)
		minute := local.Hour()*60 + local.Minute()

		var todays []Window
		for _, w := range windows {
			if w.DayOfWeek == weekday {
				todays = append(todays, w)
			}
		}
		if len(todays) == 0 {
			decision = g.deny(cfg, ReasonNoWindow, g.cfg.LongRetrySeconds)
			return nil
		}

		for _, w := range todays {
			if w.Contains(minute) {
				decision = &Decision{Allowed: true, Version: cfg.Version}
				return nil
			}
		}

		retry := g.cfg.LongRetrySeconds
		if next := nextWindowStart(local, windows, g.cal); next != nil {
			delta := int(next.Sub(local).Seconds())
			if delta > g.cfg.ShortRetrySeconds {
				retry = delta
			} else {
				retry = g.cfg.ShortRetrySeconds
			}
		}
		decision = g.deny(cfg, ReasonOutsideWindow, retry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decision, nil
}

func (g *Gate) deny(cfg *Config, reason string, retry int) *Decision {
	return &Decision{
		Allowed:           false,
		Reason:            reason,
		RetryAfterSeconds: retry,
		Version:           cfg.Version,
	}
}

// nextWindowStart finds the earliest window start after the local instant,
// scanning the coming week.
func nextWindowStart(local time.Time, windows []Window, cal *jalali.Calendar) *time.Time {
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())

	for offset := 0; offset <= 7; offset++ {
		day := midnight.AddDate(0, 0, offset)
		weekday := cal.Weekday(day)

		var candidates []Window
		for _, w := range windows {
			if w.DayOfWeek == weekday {
				candidates = append(candidates, w)
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].StartMinute() < candidates[j].StartMinute()
		})

		for _, w := range candidates {
			start := w.StartMinute()
			if start < 0 {
				continue
			}
			candidate := day.Add(time.Duration(start) * time.Minute)
			if candidate.After(local) {
				return &candidate
			}
		}
	}
	return nil
}
