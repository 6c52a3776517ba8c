package handlers

import (
	"context"
)

// NewChangePINHandler replaces the PIN of the authenticated account.
func NewChangePINHandler(svc PINChanger) AccountHandler {
	return func(ctx context.Context, p *Prompter, accountNumber string) error {
		currentPIN, err := readRequired(ctx, p, "Enter current PIN: ")
		if err != nil {
			return err
		}
		newPIN, err := readPIN(ctx, p, "Enter new PIN: ")
		if err != nil {
			return err
		}
		confirmPIN, err := readRequired(ctx, p, "Confirm new PIN: ")
		if err != nil {
			return err
		}

		if err := svc.ChangePIN(ctx, accountNumber, currentPIN, newPIN, confirmPIN); err != nil {
			return err
		}
		p.Println("PIN changed successfully.")
		return nil
	}
}
