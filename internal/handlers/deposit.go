package handlers

import (
	"context"
)

// NewDepositHandler adds funds to the authenticated account.
func NewDepositHandler(svc DepositWriter) AccountHandler {
	return func(ctx context.Context, p *Prompter, accountNumber string) error {
		amount, err := readAmount(ctx, p, "Enter amount to deposit: ")
		if err != nil {
			return err
		}
		balance, err := svc.Deposit(ctx, accountNumber, amount)
		if err != nil {
			return err
		}
		p.Println("Deposit successful")
		p.Printf("Balance: %d\n", balance)
		return nil
	}
}
