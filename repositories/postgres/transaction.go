package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/storefront-assistant/repositories"
	"go.uber.org/zap"
)

type txKey struct{}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryerFor returns the transaction carried by ctx, or the pool when there is none.
// Repositories call it so that work started inside InTransaction joins that transaction.
func queryerFor(ctx context.Context, db *DB) queryer {
	if tx, ok := ctx.Value(txKey{}).(*pgTx); ok {
		return tx.tx
	}
	return db.DB
}

// TxManager runs repository calls in a single database transaction
type TxManager struct {
	db     *DB
	logger *zap.Logger
}

// NewTxManager creates a TxManager over db
func NewTxManager(db *DB, logger *zap.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

// Begin opens a transaction. Callers own Commit/Rollback.
func (m *TxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return m.begin(ctx)
}

func (m *TxManager) begin(ctx context.Context) (*pgTx, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &pgTx{tx: tx, ctx: ctx}, nil
}

// InTransaction commits when fn returns nil and rolls back otherwise,
// including when fn panics. Nested calls reuse the outer transaction.
func (m *TxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) (err error) {
	if outer, ok := ctx.Value(txKey{}).(*pgTx); ok {
		return fn(ctx, outer)
	}

	tx, err := m.begin(ctx)
	if err != nil {
		return err
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	tx.ctx = txCtx

	defer func() {
		if p := recover(); p != nil {
			m.rollback(tx, fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	if err := fn(txCtx, tx); err != nil {
		m.rollback(tx, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	m.logger.Debug("transaction committed")
	return nil
}

func (m *TxManager) rollback(tx *pgTx, cause error) {
	if err := tx.Rollback(); err != nil {
		m.logger.Error("failed to rollback transaction",
			zap.Error(err),
			zap.NamedError("cause", cause))
	}
}

// pgTx implements repositories.Transaction on *sql.Tx
type pgTx struct {
	tx  *sql.Tx
	ctx context.Context
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback is a no-op on a finished transaction
func (t *pgTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (t *pgTx) Context() context.Context {
	return t.ctx
}
