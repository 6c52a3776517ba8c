package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/atm-simulator/internal/logger"
	"github.com/sbilibin2017/atm-simulator/internal/models"
)

// maskedPIN replaces PIN hashes in logged query arguments.
const maskedPIN = "***"

// AccountReadRepository handles account read operations
type AccountReadRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewAccountReadRepository(db *sqlx.DB, txGetter TxGetter) *AccountReadRepository {
	return &AccountReadRepository{db: db, txGetter: txGetter}
}

// GetByAccountNumber returns the account or nil if it does not exist.
func (r *AccountReadRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountDB, error) {
	const query = `
		SELECT account_number, pin_hash, balance, created_at, updated_at
		FROM users
		WHERE account_number = $1
	`
	return r.get(ctx, query, accountNumber)
}

// GetByAccountNumberForUpdate is GetByAccountNumber with a row lock held
// until the surrounding transaction ends.
func (r *AccountReadRepository) GetByAccountNumberForUpdate(ctx context.Context, accountNumber string) (*models.AccountDB, error) {
	const query = `
		SELECT account_number, pin_hash, balance, created_at, updated_at
		FROM users
		WHERE account_number = $1
		FOR UPDATE
	`
	return r.get(ctx, query, accountNumber)
}

func (r *AccountReadRepository) get(ctx context.Context, query, accountNumber string) (*models.AccountDB, error) {
	var account models.AccountDB
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db, r.txGetter), &account, query, accountNumber)

	logger.Log.Infow(
		"query", oneLine(query),
		"args", []any{accountNumber},
		"result", account.Balance,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// AccountWriteRepository handles account write operations
type AccountWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewAccountWriteRepository(db *sqlx.DB, txGetter TxGetter) *AccountWriteRepository {
	return &AccountWriteRepository{db: db, txGetter: txGetter}
}

// Save inserts a new account with a zero balance.
// It reports false when the account number is already taken.
func (r *AccountWriteRepository) Save(ctx context.Context, accountNumber, pinHash string) (bool, error) {
	const query = `
		INSERT INTO users (account_number, pin_hash, balance, created_at, updated_at)
		VALUES ($1, $2, 0, NOW(), NOW())
		ON CONFLICT (account_number) DO NOTHING
	`

	res, err := getExecutor(ctx, r.db, r.txGetter).ExecContext(ctx, query, accountNumber, pinHash)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"query", oneLine(query),
		"args", []any{accountNumber, maskedPIN},
		"result", rowsAffected,
		"error", err,
	)

	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// SaveDeposit increases the balance and returns the new one.
// sql.ErrNoRows means the account does not exist.
func (r *AccountWriteRepository) SaveDeposit(ctx context.Context, accountNumber string, amount int64) (int64, error) {
	const query = `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE account_number = $1
		RETURNING balance
	`

	var balance int64
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db, r.txGetter), &balance, query, accountNumber, amount)

	logger.Log.Infow(
		"query", oneLine(query),
		"args", []any{accountNumber, amount},
		"result", balance,
		"error", err,
	)

	return balance, err
}

// SaveWithdraw decreases the balance only when it covers amount and returns
// the new one. sql.ErrNoRows means the balance was too low or the account
// does not exist; the row is left untouched in both cases.
func (r *AccountWriteRepository) SaveWithdraw(ctx context.Context, accountNumber string, amount int64) (int64, error) {
	const query = `
		UPDATE users
		SET balance = balance - $2, updated_at = NOW()
		WHERE account_number = $1 AND balance >= $2
		RETURNING balance
	`

	var balance int64
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db, r.txGetter), &balance, query, accountNumber, amount)

	logger.Log.Infow(
		"query", oneLine(query),
		"args", []any{accountNumber, amount},
		"result", balance,
		"error", err,
	)

	return balance, err
}

// SavePINHash replaces the stored PIN hash.
// sql.ErrNoRows means the account does not exist.
func (r *AccountWriteRepository) SavePINHash(ctx context.Context, accountNumber, pinHash string) error {
	const query = `
		UPDATE users
		SET pin_hash = $2, updated_at = NOW()
		WHERE account_number = $1
	`

	res, err := getExecutor(ctx, r.db, r.txGetter).ExecContext(ctx, query, accountNumber, pinHash)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"query", oneLine(query),
		"args", []any{accountNumber, maskedPIN},
		"result", rowsAffected,
		"error", err,
	)

	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
