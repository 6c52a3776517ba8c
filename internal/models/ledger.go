package models

import "time"

// TransactionType is the kind of balance-affecting operation recorded in the ledger.
type TransactionType string

// Supported ledger operations
const (
	Deposit  TransactionType = "DEPOSIT"
	Withdraw TransactionType = "WITHDRAW"
)

// TransactionDB represents a ledger row in the transactions table
type TransactionDB struct {
	ID            int64           `json:"id" db:"id"`                         // Monotonic identifier assigned by the store
	AccountNumber string          `json:"account_number" db:"account_number"` // Owning account
	Type          TransactionType `json:"type" db:"type"`                     // DEPOSIT or WITHDRAW
	Amount        int64           `json:"amount" db:"amount"`                 // Always positive
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`         // Creation timestamp
}
