package handlers

import (
	"context"
)

// NewRegisterHandler creates an account with a zero balance. It does not log in.
func NewRegisterHandler(svc AccountCreator) EntryHandler {
	return func(ctx context.Context, p *Prompter) (string, error) {
		accountNumber, err := readRequired(ctx, p, "Enter new account number: ")
		if err != nil {
			return "", err
		}
		pin, err := readPIN(ctx, p, "Enter PIN: ")
		if err != nil {
			return "", err
		}

		if _, err := svc.CreateAccount(ctx, accountNumber, pin); err != nil {
			return "", err
		}

		p.Println("User account created successfully!")
		return "", nil
	}
}
