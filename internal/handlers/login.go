package handlers

import (
	"context"

	"github.com/sbilibin2017/atm-simulator/internal/logger"
)

// NewLoginHandler authenticates an account and opens a session for it.
func NewLoginHandler(svc Authenticator, tokener SessionGenerator) EntryHandler {
	return func(ctx context.Context, p *Prompter) (string, error) {
		accountNumber, err := readRequired(ctx, p, "Enter account number: ")
		if err != nil {
			return "", err
		}
		pin, err := readPIN(ctx, p, "Enter PIN: ")
		if err != nil {
			return "", err
		}

		account, err := svc.Authenticate(ctx, accountNumber, pin)
		if err != nil {
			return "", err
		}

		token, err := tokener.Generate(ctx, account.AccountNumber)
		if err != nil {
			logger.Log.Errorw("failed to generate session token", "account_number", account.AccountNumber, "error", err)
			return "", err
		}

		p.Printf("Welcome, account %s\n", account.AccountNumber)
		return token, nil
	}
}
