package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/atm-simulator/internal/logger"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		account_number VARCHAR(32) PRIMARY KEY,
		pin_hash VARCHAR(255) NOT NULL,
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		account_number VARCHAR(32) NOT NULL REFERENCES users(account_number),
		type VARCHAR(16) NOT NULL CHECK (type IN ('DEPOSIT', 'WITHDRAW')),
		amount BIGINT NOT NULL CHECK (amount > 0),
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS transactions_account_number_id_idx
		ON transactions (account_number, id DESC);`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			logger.Log.Errorw("migration failed", "step", i, "error", err)
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	logger.Log.Infow("migrations applied", "count", len(migrations))
	return nil
}
