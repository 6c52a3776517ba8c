package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/atm-simulator/internal/logger"
	"github.com/sbilibin2017/atm-simulator/internal/models"
)

// TransactionWriteRepository appends rows to the ledger
type TransactionWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewTransactionWriteRepository(db *sqlx.DB, txGetter TxGetter) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db, txGetter: txGetter}
}

// Save appends a ledger row and returns its id.
func (r *TransactionWriteRepository) Save(ctx context.Context, accountNumber string, txType models.TransactionType, amount int64) (int64, error) {
	const query = `
		INSERT INTO transactions (account_number, type, amount, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`
	args := []any{accountNumber, string(txType), amount}

	var id int64
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db, r.txGetter), &id, query, args...)

	logger.Log.Infow(
		"query", oneLine(query),
		"args", args,
		"result", id,
		"error", err,
	)

	return id, err
}

// TransactionReadRepository reads the ledger
type TransactionReadRepository struct {
	db *sqlx.DB
}

func NewTransactionReadRepository(db *sqlx.DB) *TransactionReadRepository {
	return &TransactionReadRepository{db: db}
}

// GetByAccountNumber returns the ledger of an account, most recent first.
// A limit of zero or less returns every row.
func (r *TransactionReadRepository) GetByAccountNumber(ctx context.Context, accountNumber string, limit int) ([]models.TransactionDB, error) {
	const query = `
		SELECT id, account_number, type, amount, created_at
		FROM transactions
		WHERE account_number = $1
		ORDER BY id DESC
		LIMIT $2
	`

	// LIMIT NULL is the same as no limit
	var lim any
	if limit > 0 {
		lim = limit
	}

	transactions := []models.TransactionDB{}
	err := r.db.SelectContext(ctx, &transactions, query, accountNumber, lim)

	logger.Log.Infow(
		"query", oneLine(query),
		"args", []any{accountNumber, lim},
		"result", len(transactions),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return transactions, nil
}
