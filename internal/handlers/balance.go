package handlers

import (
	"context"
)

// NewBalanceHandler prints the current balance.
func NewBalanceHandler(svc BalanceReader) AccountHandler {
	return func(ctx context.Context, p *Prompter, accountNumber string) error {
		balance, err := svc.GetBalance(ctx, accountNumber)
		if err != nil {
			return err
		}
		p.Printf("Balance: %d\n", balance)
		return nil
	}
}
