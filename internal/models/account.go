package models

import "time"

// AccountDB represents an account row in the users table
type AccountDB struct {
	AccountNumber string    `json:"account_number" db:"account_number"` // Primary key, immutable
	PINHash       string    `json:"-" db:"pin_hash"`                    // bcrypt hash of the PIN
	Balance       int64     `json:"balance" db:"balance"`               // Balance in minor units, never negative
	CreatedAt     time.Time `json:"created_at" db:"created_at"`         // Creation timestamp
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`         // Last update timestamp
}
