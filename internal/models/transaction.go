package models

// TransactionEvent is published to Kafka once a ledger row has been committed.
type TransactionEvent struct {
	TransactionID string          `json:"transaction_id"` // TransactionID is a unique identifier for the event.
	LedgerID      int64           `json:"ledger_id"`      // LedgerID is the id of the committed transactions row.
	AccountNumber string          `json:"account_number"` // AccountNumber identifies the account that changed.
	Operation     TransactionType `json:"operation"`      // Operation is DEPOSIT or WITHDRAW.
	Amount        int64           `json:"amount"`         // Amount is the positive amount moved.
	Balance       int64           `json:"balance"`        // Balance is the account balance after the operation.
	Timestamp     int64           `json:"timestamp"`      // Timestamp is the Unix timestamp (in seconds) of the operation.
}
