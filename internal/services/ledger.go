package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/atm-simulator/internal/logger"
	"github.com/sbilibin2017/atm-simulator/internal/models"
	"github.com/segmentio/kafka-go"
)

// Deposit adds amount to the balance and appends a DEPOSIT row in one
// transaction. It returns the new balance.
func (s *AccountService) Deposit(ctx context.Context, accountNumber string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance, ledgerID int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.accountWriter.SaveDeposit(ctx, accountNumber, amount)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}

		ledgerID, err = s.ledgerWriter.Save(ctx, accountNumber, models.Deposit, amount)
		return err
	})
	if err != nil {
		logger.Log.Errorw("failed to save deposit", "account_number", accountNumber, "amount", amount, "error", err)
		return 0, storageError(err)
	}

	s.publishTransaction(ctx, models.TransactionEvent{
		TransactionID: uuid.NewString(),
		LedgerID:      ledgerID,
		AccountNumber: accountNumber,
		Operation:     models.Deposit,
		Amount:        amount,
		Balance:       balance,
		Timestamp:     time.Now().Unix(),
	})

	return balance, nil
}

// Withdraw removes amount from the balance and appends a WITHDRAW row in one
// transaction. The balance is left unchanged when it does not cover amount.
func (s *AccountService) Withdraw(ctx context.Context, accountNumber string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance, ledgerID int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.accountWriter.SaveWithdraw(ctx, accountNumber, amount)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInsufficientFunds
		}
		if err != nil {
			return err
		}

		ledgerID, err = s.ledgerWriter.Save(ctx, accountNumber, models.Withdraw, amount)
		return err
	})
	if err != nil {
		logger.Log.Errorw("failed to save withdrawal", "account_number", accountNumber, "amount", amount, "error", err)
		return 0, storageError(err)
	}

	s.publishTransaction(ctx, models.TransactionEvent{
		TransactionID: uuid.NewString(),
		LedgerID:      ledgerID,
		AccountNumber: accountNumber,
		Operation:     models.Withdraw,
		Amount:        amount,
		Balance:       balance,
		Timestamp:     time.Now().Unix(),
	})

	return balance, nil
}

// publishTransaction publishes a committed ledger row to Kafka.
func (s *AccountService) publishTransaction(ctx context.Context, event models.TransactionEvent) {
	if s.kafkaWriter == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "transaction_id", event.TransactionID)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal transaction for Kafka", "transaction_id", event.TransactionID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.AccountNumber),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish transaction to Kafka", "transaction_id", event.TransactionID, "error", err)
	} else {
		logger.Log.Infow("Transaction published to Kafka", "transaction_id", event.TransactionID, "amount", event.Amount)
	}
}
