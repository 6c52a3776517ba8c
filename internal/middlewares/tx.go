package middlewares

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/atm-simulator/internal/logger"
)

// Operation is a unit of work run on behalf of the console session.
type Operation func(ctx context.Context) error

// TxMiddleware wraps an operation with a database transaction.
// The transaction is committed when the operation returns nil and rolled
// back when it returns an error or panics. An operation whose context
// already carries a transaction joins it.
func TxMiddleware(db *sqlx.DB) func(Operation) Operation {
	return func(next Operation) Operation {
		return func(ctx context.Context) error {
			if GetTxFromContext(ctx) != nil {
				return next(ctx)
			}

			tx, err := db.BeginTxx(ctx, nil)
			if err != nil {
				logger.Log.Errorw("failed to begin transaction", "error", err)
				return err
			}

			defer func() {
				if rec := recover(); rec != nil {
					tx.Rollback()
					panic(rec)
				}
			}()

			if err := next(setTxToContext(ctx, tx)); err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					logger.Log.Errorw("failed to rollback transaction", "error", rbErr)
				}
				return err
			}

			if err := tx.Commit(); err != nil {
				logger.Log.Errorw("failed to commit transaction", "error", err)
				return err
			}
			return nil
		}
	}
}

// Tx runs functions as one atomic unit against db.
type Tx struct {
	db *sqlx.DB
}

// NewTx creates a new Tx runner.
func NewTx(db *sqlx.DB) *Tx {
	return &Tx{db: db}
}

// WithinTx runs fn inside a transaction, see TxMiddleware.
func (t *Tx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return TxMiddleware(t.db)(fn)(ctx)
}

// contextKey is an unexported type for keys in context
type contextKey struct{ name string }

var txKey = contextKey{"tx"}

// setTxToContext stores a transaction in the context
func setTxToContext(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetTxFromContext retrieves the transaction from the context. Returns nil if not present.
func GetTxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}
