package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	appctx "github.com/saeidmoini/salehi-panel/internal/core/context"
	"github.com/saeidmoini/salehi-panel/internal/core/jalali"
	"github.com/saeidmoini/salehi-panel/internal/core/tx"
	"github.com/saeidmoini/salehi-panel/internal/domain/audit"
	"github.com/saeidmoini/salehi-panel/internal/domain/banksms"
	"github.com/saeidmoini/salehi-panel/internal/domain/schedule"
	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

// TopupNotifier announces a successful bank-matched top-up. Implementations
// must be best-effort; the charge is already committed when this runs.
type TopupNotifier interface {
	NotifyTopup(ctx context.Context, companySlug string, walletTx *WalletTransaction, sms *banksms.IncomingSms)
}

// Service owns wallet mutations. Every path locks the company's schedule
// config row, so concurrent charges, adjustments, and gate evaluations
// serialize on it.
type Service struct {
	repo      Repository
	schedules schedule.Repository
	smsRepo   banksms.Repository
	txm       tx.Manager
	auditor   audit.Recorder
	notifier  TopupNotifier
	cal       *jalali.Calendar
}

// NewService creates a billing service. notifier may be nil.
func NewService(
	repo Repository,
	schedules schedule.Repository,
	smsRepo banksms.Repository,
	txm tx.Manager,
	auditor audit.Recorder,
	notifier TopupNotifier,
	cal *jalali.Calendar,
) *Service {
	return &Service{
		repo:      repo,
		schedules: schedules,
		smsRepo:   smsRepo,
		txm:       txm,
		auditor:   auditor,
		notifier:  notifier,
		cal:       cal,
	}
}

// applyWalletDelta is the single balance mutation path: lock the config row,
// reject overdrafts, consume the bank SMS when one backs the credit, bump
// the version, and append the ledger row. Runs in the ambient transaction.
func (s *Service) applyWalletDelta(
	ctx context.Context,
	companyID int64,
	amountToman int64,
	source Source,
	note *string,
	transactionAt time.Time,
	bankSmsID *int64,
) (*WalletTransaction, error) {
	if amountToman == 0 {
		return nil, apperror.NewValidation("transaction amount cannot be zero")
	}

	if _, err := s.schedules.EnsureConfig(ctx, companyID); err != nil {
		return nil, err
	}
	cfg, err := s.schedules.GetConfigForUpdate(ctx, companyID)
	if err != nil {
		return nil, err
	}

	newBalance := cfg.WalletBalance + amountToman
	if newBalance < 0 {
		return nil, apperror.NewConflict("insufficient wallet balance for this deduction").
			WithDetail("balance", cfg.WalletBalance).
			WithDetail("amount", amountToman)
	}

	if bankSmsID != nil {
		sms, err := s.smsRepo.GetForUpdate(ctx, *bankSmsID)
		if err != nil {
			return nil, err
		}
		if sms.Consumed {
			return nil, apperror.NewConflict("this bank transaction is already used").
				WithDetail("bank_sms_id", *bankSmsID)
		}
		if err := s.smsRepo.MarkConsumed(ctx, *bankSmsID, time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	cfg.WalletBalance = newBalance
	cfg.Version++
	if newBalance > 0 {
		cfg.DisabledByDialer = false
	}
	if err := s.schedules.SaveConfig(ctx, cfg); err != nil {
		return nil, err
	}

	walletTx := &WalletTransaction{
		CompanyID:     companyID,
		AmountToman:   amountToman,
		BalanceAfter:  newBalance,
		Source:        source,
		Note:          note,
		TransactionAt: transactionAt,
		BankSmsID:     bankSmsID,
	}
	if uid := appctx.GetUserID(ctx); uid != 0 {
		walletTx.CreatedByUserID = &uid
	}
	if err := s.repo.InsertTransaction(ctx, walletTx); err != nil {
		return nil, err
	}
	return walletTx, nil
}

// Wallet operation names accepted by ManualAdjust.
const (
	OperationAdd      = "ADD"
	OperationSubtract = "SUBTRACT"
)

// ManualAdjust credits or debits the wallet by operator action.
func (s *Service) ManualAdjust(ctx context.Context, companyID, amountToman int64, operation string, note *string) (*WalletTransaction, error) {
	if amountToman <= 0 {
		return nil, apperror.NewValidation("amount must be greater than zero").
			WithDetail("amount_toman", amountToman)
	}
	signed := amountToman
	switch operation {
	case OperationAdd:
	case OperationSubtract:
		signed = -amountToman
	default:
		return nil, apperror.NewValidation("operation must be ADD or SUBTRACT").
			WithDetail("operation", operation)
	}

	var walletTx *WalletTransaction
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		walletTx, err = s.applyWalletDelta(ctx, companyID, signed, SourceManualAdjust, note, time.Now().UTC(), nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	audit.Record(ctx, s.auditor, "wallet_transaction", walletTx.ID, audit.ActionAdjust, companyID, map[string]any{
		"source":        SourceManualAdjust,
		"amount_toman":  signed,
		"balance_after": walletTx.BalanceAfter,
	})
	return walletTx, nil
}

// MatchAndCharge finds the oldest unconsumed bank credit SMS matching the
// exact amount and minute-precision instant, consumes it, and credits the
// wallet. Not-found and already-used are distinct failures so the operator
// can tell a typo from a double submit.
func (s *Service) MatchAndCharge(ctx context.Context, companyID int64, companySlug string, amountToman int64, jalaliDate string, hour, minute int) (*WalletTransaction, error) {
	if amountToman <= 0 {
		return nil, apperror.NewValidation("amount must be greater than zero").
			WithDetail("amount_toman", amountToman)
	}
	txAt, err := s.cal.FromJalaliMinute(jalaliDate, hour, minute)
	if err != nil {
		return nil, apperror.NewValidation("invalid date or time").
			WithDetail("jalali_date", jalaliDate)
	}

	var (
		walletTx *WalletTransaction
		sms      *banksms.IncomingSms
	)
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sms, err = s.smsRepo.FindOldestUnconsumedForUpdate(ctx, amountToman, txAt)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("matching bank transaction").
					WithDetail("amount_toman", amountToman).
					WithDetail("transaction_at", txAt)
			}
			return err
		}
		note := fmt.Sprintf("Matched bank SMS #%d", sms.ID)
		walletTx, err = s.applyWalletDelta(ctx, companyID, amountToman, SourceBankMatch, &note, txAt, &sms.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyTopup(ctx, companySlug, walletTx, sms)
	}

	audit.Record(ctx, s.auditor, "wallet_transaction", walletTx.ID, audit.ActionCreate, companyID, map[string]any{
		"source":        SourceBankMatch,
		"amount_toman":  amountToman,
		"bank_sms_id":   sms.ID,
		"balance_after": walletTx.BalanceAfter,
	})
	return walletTx, nil
}

// ChargeForConnectedCall deducts the effective per-call cost after a
// billable outcome. scenarioCost, when set, overrides the company default.
// The deduction is clamped at the available balance so balance_after never
// goes negative; draining the wallet auto-disables the company.
func (s *Service) ChargeForConnectedCall(ctx context.Context, companyID int64, scenarioCost *int64) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.schedules.EnsureConfig(ctx, companyID); err != nil {
			return err
		}
		cfg, err := s.schedules.GetConfigForUpdate(ctx, companyID)
		if err != nil {
			return err
		}

		cost := cfg.CostPerConnected
		if scenarioCost != nil {
			cost = *scenarioCost
		}
		if cost <= 0 {
			return nil
		}

		if cfg.WalletBalance <= 0 {
			if cfg.Enabled || !cfg.DisabledByDialer {
				cfg.Enabled = false
				cfg.DisabledByDialer = true
				cfg.Version++
				return s.schedules.SaveConfig(ctx, cfg)
			}
			return nil
		}

		deduction := cost
		if deduction > cfg.WalletBalance {
			deduction = cfg.WalletBalance
		}
		cfg.WalletBalance -= deduction
		cfg.Version++
		if cfg.WalletBalance == 0 {
			cfg.Enabled = false
			cfg.DisabledByDialer = true
			logger.Info(ctx, "wallet drained, company auto-disabled",
				"company_id", companyID,
				"schedule_version", cfg.Version,
			)
		}
		if err := s.schedules.SaveConfig(ctx, cfg); err != nil {
			return err
		}

		walletTx := &WalletTransaction{
			CompanyID:     companyID,
			AmountToman:   -deduction,
			BalanceAfter:  cfg.WalletBalance,
			Source:        SourceCallCharge,
			TransactionAt: time.Now().UTC(),
		}
		return s.repo.InsertTransaction(ctx, walletTx)
	})
}

// ListTransactions returns the company ledger filtered by an inclusive
// Jalali date range.
func (s *Service) ListTransactions(ctx context.Context, companyID int64, fromJalali, toJalali string, limit, offset int) ([]WalletTransaction, int64, error) {
	fromUTC, toUTC, err := s.cal.DateRangeUTC(fromJalali, toJalali)
	if err != nil {
		return nil, 0, apperror.NewValidation("invalid date filter").
			WithDetail("from", fromJalali).
			WithDetail("to", toJalali)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, companyID, ListFilter{
		FromUTC: fromUTC,
		ToUTC:   toUTC,
		Limit:   limit,
		Offset:  offset,
	})
}
