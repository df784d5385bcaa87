package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/saeidmoini/salehi-panel/internal/core/tx"
	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

var tracer = otel.Tracer("salehi-panel/tx")

// txKey is the context key for the active transaction.
type txKey struct{}

// TxOptions configures transaction behavior.
type TxOptions struct {
	IsoLevel         pgx.TxIsoLevel
	AccessMode       pgx.TxAccessMode
	StatementTimeout time.Duration
}

// DefaultTxOptions returns the standard options for write transactions.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsoLevel:         pgx.ReadCommitted,
		AccessMode:       pgx.ReadWrite,
		StatementTimeout: 30 * time.Second,
	}
}

// TxManager implements tx.Manager on top of pgxpool.
// The active transaction travels in the context; repositories pick it up
// through GetQuerier, so service code stays free of pgx types.
type TxManager struct {
	pool    *pgxpool.Pool
	options TxOptions
}

var _ tx.ReadOnlyManager = (*TxManager)(nil)

// NewTxManager creates a transaction manager with default options.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool, options: DefaultTxOptions()}
}

// NewTxManagerWithOptions creates a transaction manager with custom options.
func NewTxManagerWithOptions(pool *Pool, options TxOptions) *TxManager {
	return &TxManager{pool: pool.Pool, options: options}
}

// RunInTransaction executes fn within a transaction. Nested calls reuse the
// transaction already in the context, so a service calling into another
// service keeps a single atomic unit.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, m.options, fn)
}

// ReadOnly executes fn in a read-only transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	options := m.options
	options.AccessMode = pgx.ReadOnly
	return m.run(ctx, options, fn)
}

func (m *TxManager) run(ctx context.Context, options TxOptions, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		// Already inside a transaction.
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "tx.run",
		trace.WithAttributes(
			attribute.String("db.iso_level", string(options.IsoLevel)),
			attribute.String("db.access_mode", string(options.AccessMode)),
		),
	)
	defer span.End()

	pgxTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   options.IsoLevel,
		AccessMode: options.AccessMode,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return fmt.Errorf("begin transaction: %w", err)
	}

	if options.StatementTimeout > 0 {
		timeout := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", options.StatementTimeout.Milliseconds())
		if _, err := pgxTx.Exec(ctx, timeout); err != nil {
			_ = pgxTx.Rollback(ctx)
			span.RecordError(err)
			return fmt.Errorf("set statement timeout: %w", err)
		}
	}

	txCtx := context.WithValue(ctx, txKey{}, pgxTx)

	if err := fn(txCtx); err != nil {
		// Rollback on a fresh context: the original may already be canceled.
		rollbackCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if rbErr := pgxTx.Rollback(rollbackCtx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			logger.Error(ctx, "transaction rollback failed", "error", rbErr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		return err
	}

	if err := pgxTx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return fmt.Errorf("commit transaction: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Querier is the subset of pgx operations repositories need. Both pgx.Tx
// and pgxpool.Pool satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the transaction from the context when present,
// otherwise the pool. Repositories call this for every statement.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if pgxTx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return pgxTx
	}
	return m.pool
}
