package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/core/jalali"
	"github.com/saeidmoini/salehi-panel/internal/domain/banksms"
	"github.com/saeidmoini/salehi-panel/internal/domain/schedule"
)

type fakeScheduleRepo struct {
	cfg *schedule.Config
}

func (f *fakeScheduleRepo) EnsureConfig(_ context.Context, companyID int64) (*schedule.Config, error) {
	if f.cfg == nil {
		f.cfg = &schedule.Config{ID: 1, CompanyID: companyID, Enabled: true, Version: 1}
	}
	return f.cfg, nil
}

func (f *fakeScheduleRepo) GetConfigForUpdate(ctx context.Context, companyID int64) (*schedule.Config, error) {
	return f.EnsureConfig(ctx, companyID)
}

func (f *fakeScheduleRepo) SaveConfig(_ context.Context, cfg *schedule.Config) error {
	f.cfg = cfg
	return nil
}

func (f *fakeScheduleRepo) ListWindows(_ context.Context, _ int64) ([]schedule.Window, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) ReplaceWindows(_ context.Context, _ int64, _ []schedule.Window) error {
	return nil
}

type fakeLedgerRepo struct {
	rows []WalletTransaction
}

func (f *fakeLedgerRepo) InsertTransaction(_ context.Context, tx *WalletTransaction) error {
	tx.ID = int64(len(f.rows) + 1)
	tx.CreatedAt = time.Now().UTC()
	f.rows = append(f.rows, *tx)
	return nil
}

func (f *fakeLedgerRepo) ListTransactions(_ context.Context, companyID int64, _ ListFilter) ([]WalletTransaction, int64, error) {
	var out []WalletTransaction
	for _, r := range f.rows {
		if r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

type fakeSmsRepo struct {
	rows map[int64]*banksms.IncomingSms
}

func (f *fakeSmsRepo) Insert(_ context.Context, sms *banksms.IncomingSms) error {
	if f.rows == nil {
		f.rows = map[int64]*banksms.IncomingSms{}
	}
	sms.ID = int64(len(f.rows) + 1)
	f.rows[sms.ID] = sms
	return nil
}

func (f *fakeSmsRepo) GetForUpdate(_ context.Context, id int64) (*banksms.IncomingSms, error) {
	sms, ok := f.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("bank sms not found")
	}
	return sms, nil
}

func (f *fakeSmsRepo) FindOldestUnconsumedForUpdate(_ context.Context, amountToman int64, txAt time.Time) (*banksms.IncomingSms, error) {
	var best *banksms.IncomingSms
	for _, sms := range f.rows {
		if sms.Consumed || sms.ParsedAmountToman == nil || *sms.ParsedAmountToman != amountToman {
			continue
		}
		if sms.ParsedTransactionAt == nil || !sms.ParsedTransactionAt.Equal(txAt) {
			continue
		}
		if best == nil || sms.ID < best.ID {
			best = sms
		}
	}
	if best == nil {
		return nil, apperror.NewNotFound("no matching bank sms")
	}
	return best, nil
}

func (f *fakeSmsRepo) MarkConsumed(_ context.Context, id int64, consumedAt time.Time) error {
	sms := f.rows[id]
	sms.Consumed = true
	sms.ConsumedAt = &consumedAt
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(t *testing.T, schedules *fakeScheduleRepo, ledger *fakeLedgerRepo, smsRepo *fakeSmsRepo) *Service {
	t.Helper()
	cal, err := jalali.NewCalendar("Asia/Tehran")
	require.NoError(t, err)
	return NewService(ledger, schedules, smsRepo, passthroughTx{}, nil, nil, cal)
}

func TestManualAdjustAdd(t *testing.T) {
	schedules := &fakeScheduleRepo{cfg: &schedule.Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 100, DisabledByDialer: true, Version: 2}}
	ledger := &fakeLedgerRepo{}
	svc := newTestService(t, schedules, ledger, &fakeSmsRepo{})

	tx, err := svc.ManualAdjust(context.Background(), 7, 500, OperationAdd, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(500), tx.AmountToman)
	assert.Equal(t, int64(600), tx.BalanceAfter)
	assert.Equal(t, SourceManualAdjust, tx.Source)

	assert.Equal(t, int64(600), schedules.cfg.WalletBalance)
	assert.Equal(t, int64(3), schedules.cfg.Version)
	assert.False(t, schedules.cfg.DisabledByDialer, "positive balance clears the dialer disable marker")
}

func TestManualAdjustSubtractOverdraft(t *testing.T) {
	schedules := &fakeScheduleRepo{cfg: &schedule.Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 100, Version: 2}}
	ledger := &fakeLedgerRepo{}
	svc := newTestService(t, schedules, ledger, &fakeSmsRepo{})

	_, err := svc.ManualAdjust(context.Background(), 7, 150, OperationSubtract, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, int64(100), schedules.cfg.WalletBalance)
	assert.Empty(t, ledger.rows)
}

func TestManualAdjustValidation(t *testing.T) {
	svc := newTestService(t, &fakeScheduleRepo{}, &fakeLedgerRepo{}, &fakeSmsRepo{})

	_, err := svc.ManualAdjust(context.Background(), 7, 0, OperationAdd, nil)
	assert.Error(t, err)

	_, err = svc.ManualAdjust(context.Background(), 7, 100, "MULTIPLY", nil)
	assert.Error(t, err)
}

func smsFixture(id int64, amountToman int64, txAt time.Time) *banksms.IncomingSms {
	credit := true
	rial := amountToman * 10
	return &banksms.IncomingSms{
		ID:                  id,
		Sender:              "9830007077",
		Body:                "fixture",
		IsBankSender:        true,
		ParsedAmountRial:    &rial,
		ParsedAmountToman:   &amountToman,
		ParsedTransactionAt: &txAt,
		ParsedIsCredit:      &credit,
	}
}

func TestMatchAndCharge(t *testing.T) {
	// Tehran 1404/12/03 09:47 is 2026-02-22 06:17 UTC.
	txAt := time.Date(2026, time.February, 22, 6, 17, 0, 0, time.UTC)

	schedules := &fakeScheduleRepo{cfg: &schedule.Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 0, Version: 1}}
	ledger := &fakeLedgerRepo{}
	smsRepo := &fakeSmsRepo{rows: map[int64]*banksms.IncomingSms{
		3: smsFixture(3, 150000, txAt),
		5: smsFixture(5, 150000, txAt),
	}}
	svc := newTestService(t, schedules, ledger, smsRepo)

	tx, err := svc.MatchAndCharge(context.Background(), 7, "acme", 150000, "1404/12/03", 9, 47)
	require.NoError(t, err)

	assert.Equal(t, SourceBankMatch, tx.Source)
	assert.Equal(t, int64(150000), tx.AmountToman)
	assert.Equal(t, int64(150000), tx.BalanceAfter)
	require.NotNil(t, tx.BankSmsID)
	assert.Equal(t, int64(3), *tx.BankSmsID, "oldest matching sms wins")
	assert.True(t, tx.TransactionAt.Equal(txAt))

	assert.True(t, smsRepo.rows[3].Consumed)
	assert.False(t, smsRepo.rows[5].Consumed)
	assert.Equal(t, int64(150000), schedules.cfg.WalletBalance)

	// Second match with the same inputs consumes the second SMS.
	tx2, err := svc.MatchAndCharge(context.Background(), 7, "acme", 150000, "1404/12/03", 9, 47)
	require.NoError(t, err)
	assert.Equal(t, int64(5), *tx2.BankSmsID)

	// Third call finds nothing.
	_, err = svc.MatchAndCharge(context.Background(), 7, "acme", 150000, "1404/12/03", 9, 47)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestMatchAndChargeInvalidDate(t *testing.T) {
	svc := newTestService(t, &fakeScheduleRepo{}, &fakeLedgerRepo{}, &fakeSmsRepo{})

	_, err := svc.MatchAndCharge(context.Background(), 7, "acme", 150000, "1404/13/01", 9, 47)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestChargeForConnectedCall(t *testing.T) {
	schedules := &fakeScheduleRepo{cfg: &schedule.Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 1000, CostPerConnected: 150, Version: 1}}
	ledger := &fakeLedgerRepo{}
	svc := newTestService(t, schedules, ledger, &fakeSmsRepo{})

	require.NoError(t, svc.ChargeForConnectedCall(context.Background(), 7, nil))

	assert.Equal(t, int64(850), schedules.cfg.WalletBalance)
	assert.Equal(t, int64(2), schedules.cfg.Version)
	require.Len(t, ledger.rows, 1)
	assert.Equal(t, int64(-150), ledger.rows[0].AmountToman)
	assert.Equal(t, int64(850), ledger.rows[0].BalanceAfter)
	assert.Equal(t, SourceCallCharge, ledger.rows[0].Source)
}

func TestChargeScenarioCostOverride(t *testing.T) {
	schedules := &fakeScheduleRepo{cfg: &schedule.Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 1000, CostPerConnected: 150, Version: 1}}
	ledger := &fakeLedgerRepo{}
	svc := newTestService(t, schedules, ledger, &fakeSmsRepo{})

	override := int64(200)
	require.NoError(t, svc.ChargeForConnectedCall(context.Background(), 7, &override))
	assert.Equal(t, int64(800), schedules.cfg.WalletBalance)
}

func TestChargeZeroCostIsNoop(t *testing.T) {
	schedules := &fakeScheduleRepo{cfg: &schedule.Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 1000, CostPerConnected: 0, Version: 1}}
	ledger := &fakeLedgerRepo{}
	svc := newTestService(t, schedules, ledger, &fakeSmsRepo{})

	require.NoError(t, svc.ChargeForConnectedCall(context.Background(), 7, nil))
	assert.Equal(t, int64(1000), schedules.cfg.WalletBalance)
	assert.Equal(t, int64(1), schedules.cfg.Version)
	assert.Empty(t, ledger.rows)
}

func TestChargeClampsAndAutoDisables(t *testing.T) {
	schedules := &fakeScheduleRepo{cfg: &schedule.Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 100, CostPerConnected: 150, Version: 1}}
	ledger := &fakeLedgerRepo{}
	svc := newTestService(t, schedules, ledger, &fakeSmsRepo{})

	require.NoError(t, svc.ChargeForConnectedCall(context.Background(), 7, nil))

	assert.Equal(t, int64(0), schedules.cfg.WalletBalance)
	assert.False(t, schedules.cfg.Enabled)
	assert.True(t, schedules.cfg.DisabledByDialer)
	assert.Equal(t, int64(2), schedules.cfg.Version)

	require.Len(t, ledger.rows, 1)
	assert.Equal(t, int64(-100), ledger.rows[0].AmountToman, "deduction clamps at the available balance")
	assert.Equal(t, int64(0), ledger.rows[0].BalanceAfter)
}

func TestChargeOnEmptyWalletOnlyDisables(t *testing.T) {
	schedules := &fakeScheduleRepo{cfg: &schedule.Config{ID: 1, CompanyID: 7, Enabled: true, WalletBalance: 0, CostPerConnected: 150, Version: 1}}
	ledger := &fakeLedgerRepo{}
	svc := newTestService(t, schedules, ledger, &fakeSmsRepo{})

	require.NoError(t, svc.ChargeForConnectedCall(context.Background(), 7, nil))

	assert.False(t, schedules.cfg.Enabled)
	assert.True(t, schedules.cfg.DisabledByDialer)
	assert.Equal(t, int64(2), schedules.cfg.Version)
	assert.Empty(t, ledger.rows, "no ledger row when there is nothing to deduct")
}
