package numbers

import (
	"context"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	appctx "github.com/saeidmoini/salehi-panel/internal/core/context"
	"github.com/saeidmoini/salehi-panel/internal/core/phone"
	"github.com/saeidmoini/salehi-panel/internal/core/tx"
	"github.com/saeidmoini/salehi-panel/internal/domain/audit"
)

const invalidSampleLimit = 5

// Service provides operator-facing number management.
type Service struct {
	repo    Repository
	results ResultRepository
	txm     tx.Manager
	auditor audit.Recorder
}

// NewService creates a numbers service.
func NewService(repo Repository, results ResultRepository, txm tx.Manager, auditor audit.Recorder) *Service {
	return &Service{repo: repo, results: results, txm: txm, auditor: auditor}
}

// AddNumbers normalizes and bulk-inserts phones into the shared pool.
// Invalid inputs are counted and sampled, duplicates skipped.
func (s *Service) AddNumbers(ctx context.Context, raw []string) (*ImportSummary, error) {
	var valid []string
	var invalid []string
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		normalized, ok := phone.Normalize(r)
		if !ok {
			invalid = append(invalid, r)
			continue
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		valid = append(valid, normalized)
	}

	summary := &ImportSummary{
		Invalid:        len(invalid),
		InvalidSamples: sample(invalid, invalidSampleLimit),
	}
	if len(valid) == 0 {
		return summary, nil
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inserted, err := s.repo.InsertMissing(ctx, valid)
		if err != nil {
			return err
		}
		summary.Inserted = inserted
		summary.Duplicates = len(valid) - inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// List returns the company view of the pool: each number paired with its
// latest result for that company, IN_QUEUE when it has none.
func (s *Service) List(ctx context.Context, companyID int64, f ListFilter) ([]TenantNumber, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, 0, apperror.NewValidation("unknown status").
			WithDetail("status", string(*f.Status))
	}
	return s.repo.ListForCompany(ctx, companyID, f)
}

// UpdateLatestStatus is the operator override of a pair's effective status.
// Setting IN_QUEUE erases the pair's ledger and re-opens the number for
// claims; any other status rewrites the newest result row. Non-superusers
// may only move between operator-mutable statuses.
func (s *Service) UpdateLatestStatus(ctx context.Context, companyID, numberID int64, status CallStatus, note string) error {
	if !status.Valid() {
		return apperror.NewValidation("unknown status").WithDetail("status", string(status))
	}

	user := appctx.GetUser(ctx)
	superuser := user != nil && user.IsSuperuser
	if !superuser && !status.OperatorMutable() {
		return apperror.NewForbidden("status cannot be set by operator").
			WithDetail("status", string(status))
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.repo.GetByID(ctx, numberID)
		if err != nil {
			return err
		}

		if status == StatusInQueue {
			if _, err := s.results.DeleteForPair(ctx, companyID, []int64{number.ID}); err != nil {
				return err
			}
			if err := s.repo.ClearAssignment(ctx, []int64{number.ID}); err != nil {
				return err
			}
		} else {
			latest, err := s.results.LatestForPair(ctx, companyID, number.ID)
			if err != nil {
				return err
			}
			if !superuser && !latest.Status.OperatorMutable() {
				return apperror.NewForbidden("current status cannot be overridden by operator").
					WithDetail("status", string(latest.Status))
			}
			if err := s.results.UpdateStatus(ctx, latest.ID, status); err != nil {
				return err
			}
		}

		if _, err := s.repo.RecomputeGlobalStatus(ctx, number.ID); err != nil {
			return err
		}
		if note != "" {
			if err := s.repo.SetNote(ctx, number.ID, note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.Record(ctx, s.auditor, "number", numberID, audit.ActionOverride, companyID, map[string]any{
		"status": status,
		"note":   note,
	})
	return nil
}

// BulkReset returns the given pairs to IN_QUEUE: their results for this
// company are erased and leases released. Returns how many pairs were reset.
func (s *Service) BulkReset(ctx context.Context, companyID int64, numberIDs []int64) (int64, error) {
	if len(numberIDs) == 0 {
		return 0, apperror.NewValidation("no numbers given")
	}

	var reset int64
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := s.results.DeleteForPair(ctx, companyID, numberIDs)
		if err != nil {
			return err
		}
		reset = n
		if err := s.repo.ClearAssignment(ctx, numberIDs); err != nil {
			return err
		}
		for _, id := range numberIDs {
			if _, err := s.repo.RecomputeGlobalStatus(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	audit.Record(ctx, s.auditor, "number", "bulk", audit.ActionUpdate, companyID, map[string]any{
		"reset_ids": numberIDs,
	})
	return reset, nil
}

func sample(values []string, limit int) []string {
	if len(values) <= limit {
		return values
	}
	return values[:limit]
}
