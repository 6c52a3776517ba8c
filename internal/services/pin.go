package services

import (
	"context"
	"errors"

	"github.com/sbilibin2017/atm-simulator/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

// ChangePIN replaces the PIN after checking the current one and that the
// new PIN was entered twice the same way.
func (s *AccountService) ChangePIN(ctx context.Context, accountNumber, currentPIN, newPIN, confirmPIN string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		account, err := s.accountReader.GetByAccountNumberForUpdate(ctx, accountNumber)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword([]byte(account.PINHash), []byte(currentPIN)) != nil {
			return ErrInvalidCredentials
		}
		if newPIN != confirmPIN {
			return ErrPINMismatch
		}
		if !validPIN(newPIN) {
			return ErrInvalidPINFormat
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(newPIN), s.hashCost)
		if err != nil {
			return err
		}
		return s.accountWriter.SavePINHash(ctx, accountNumber, string(hash))
	})

	switch {
	case err == nil:
		logger.Log.Infow("PIN changed", "account_number", accountNumber)
		return nil
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrPINMismatch), errors.Is(err, ErrInvalidPINFormat):
		logger.Log.Warnw("PIN change rejected", "account_number", accountNumber, "reason", err)
		return err
	default:
		logger.Log.Errorw("failed to change PIN", "account_number", accountNumber, "error", err)
		return storageError(err)
	}
}
