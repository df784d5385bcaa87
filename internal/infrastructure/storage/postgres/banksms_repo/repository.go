// Package banksms_repo persists ingested bank SMS rows.
package banksms_repo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/domain/banksms"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
)

const smsTable = "bank_incoming_sms"

var smsColumns = []string{
	"id", "sender", "receiver", "body", "is_bank_sender",
	"parsed_amount_rial", "parsed_amount_toman", "parsed_transaction_at",
	"parsed_is_credit", "parse_error", "consumed", "consumed_at", "created_at",
}

// Repository implements banksms.Repository.
type Repository struct {
	txm     *postgres.TxManager
	builder sq.StatementBuilderType
}

var _ banksms.Repository = (*Repository)(nil)

// New creates a bank SMS repository.
func New(txm *postgres.TxManager) *Repository {
	return &Repository{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores an ingested SMS and fills the generated fields.
func (r *Repository) Insert(ctx context.Context, sms *banksms.IncomingSms) error {
	query, args, err := r.builder.
		Insert(smsTable).
		Columns("sender", "receiver", "body", "is_bank_sender",
			"parsed_amount_rial", "parsed_amount_toman", "parsed_transaction_at",
			"parsed_is_credit", "parse_error", "consumed", "created_at").
		Values(sms.Sender, sms.Receiver, sms.Body, sms.IsBankSender,
			sms.ParsedAmountRial, sms.ParsedAmountToman, sms.ParsedTransactionAt,
			sms.ParsedIsCredit, sms.ParseError, sms.Consumed, time.Now().UTC()).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	row := r.txm.GetQuerier(ctx).QueryRow(ctx, query, args...)
	if err := row.Scan(&sms.ID, &sms.CreatedAt); err != nil {
		return fmt.Errorf("insert bank sms: %w", err)
	}
	return nil
}

// GetForUpdate loads one SMS under FOR UPDATE.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*banksms.IncomingSms, error) {
	query, args, err := r.builder.
		Select(smsColumns...).
		From(smsTable).
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sms banksms.IncomingSms
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &sms, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("bank sms", id)
		}
		return nil, fmt.Errorf("get bank sms: %w", err)
	}
	return &sms, nil
}

// FindOldestUnconsumedForUpdate returns the oldest unconsumed credit SMS
// with the exact parsed amount and minute-precision instant, locked.
func (r *Repository) FindOldestUnconsumedForUpdate(ctx context.Context, amountToman int64, transactionAt time.Time) (*banksms.IncomingSms, error) {
	query, args, err := r.builder.
		Select(smsColumns...).
		From(smsTable).
		Where(sq.Eq{
			"is_bank_sender":        true,
			"parsed_is_credit":      true,
			"parsed_amount_toman":   amountToman,
			"parsed_transaction_at": transactionAt.UTC(),
			"consumed":              false,
		}).
		OrderBy("id ASC").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sms banksms.IncomingSms
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &sms, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("bank sms",
				fmt.Sprintf("%d@%s", amountToman, transactionAt.UTC().Format("2006-01-02 15:04")))
		}
		return nil, fmt.Errorf("find matching bank sms: %w", err)
	}
	return &sms, nil
}

// MarkConsumed flags the SMS as used for a wallet top-up.
func (r *Repository) MarkConsumed(ctx context.Context, id int64, consumedAt time.Time) error {
	query, args, err := r.builder.
		Update(smsTable).
		Set("consumed", true).
		Set("consumed_at", consumedAt.UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark bank sms consumed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("bank sms", id)
	}
	return nil
}
