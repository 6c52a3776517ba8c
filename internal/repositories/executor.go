package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

// TxGetter returns the transaction bound to ctx, or nil when there is none.
type TxGetter func(ctx context.Context) *sqlx.Tx

// getExecutor prefers the transaction carried by ctx over the plain handle.
func getExecutor(ctx context.Context, db *sqlx.DB, txGetter TxGetter) sqlx.ExtContext {
	if txGetter != nil {
		if tx := txGetter(ctx); tx != nil {
			return tx
		}
	}
	return db
}

// oneLine collapses a multi-line query for logging.
func oneLine(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
