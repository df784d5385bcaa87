// Package billing_repo persists the wallet transaction ledger.
package billing_repo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/saeidmoini/salehi-panel/internal/domain/billing"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
)

const transactionsTable = "wallet_transactions"

var transactionColumns = []string{
	"id", "company_id", "amount_toman", "balance_after", "source", "note",
	"transaction_at", "created_by_user_id", "bank_sms_id", "created_at",
}

// Repository implements billing.Repository.
type Repository struct {
	txm     *postgres.TxManager
	builder sq.StatementBuilderType
}

var _ billing.Repository = (*Repository)(nil)

// New creates a wallet ledger repository.
func New(txm *postgres.TxManager) *Repository {
	return &Repository{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// InsertTransaction appends a ledger row and fills the generated fields.
func (r *Repository) InsertTransaction(ctx context.Context, tx *billing.WalletTransaction) error {
	query, args, err := r.builder.
		Insert(transactionsTable).
		Columns("company_id", "amount_toman", "balance_after", "source", "note",
			"transaction_at", "created_by_user_id", "bank_sms_id", "created_at").
		Values(tx.CompanyID, tx.AmountToman, tx.BalanceAfter, string(tx.Source), tx.Note,
			tx.TransactionAt.UTC(), tx.CreatedByUserID, tx.BankSmsID, time.Now().UTC()).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	row := r.txm.GetQuerier(ctx).QueryRow(ctx, query, args...)
	if err := row.Scan(&tx.ID, &tx.CreatedAt); err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

// ListTransactions returns a page ordered by transaction_at desc, id desc,
// plus the unpaged total.
func (r *Repository) ListTransactions(ctx context.Context, companyID int64, filter billing.ListFilter) ([]billing.WalletTransaction, int64, error) {
	base := sq.And{sq.Eq{"company_id": companyID}}
	if filter.FromUTC != nil {
		base = append(base, sq.GtOrEq{"transaction_at": filter.FromUTC.UTC()})
	}
	if filter.ToUTC != nil {
		base = append(base, sq.LtOrEq{"transaction_at": filter.ToUTC.UTC()})
	}

	query, args, err := r.builder.
		Select(transactionColumns...).
		From(transactionsTable).
		Where(base).
		OrderBy("transaction_at DESC", "id DESC").
		Offset(uint64(maxInt(filter.Offset, 0))).
		Limit(uint64(maxInt(filter.Limit, 1))).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var transactions []billing.WalletTransaction
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &transactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list wallet transactions: %w", err)
	}

	countQuery, countArgs, err := r.builder.
		Select("COUNT(*)").
		From(transactionsTable).
		Where(base).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count wallet transactions: %w", err)
	}
	return transactions, total, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
