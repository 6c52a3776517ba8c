package handlers

import (
	"context"
)

// NewWithdrawHandler takes funds from the authenticated account.
func NewWithdrawHandler(svc WithdrawWriter) AccountHandler {
	return func(ctx context.Context, p *Prompter, accountNumber string) error {
		amount, err := readAmount(ctx, p, "Enter amount to withdraw: ")
		if err != nil {
			return err
		}
		balance, err := svc.Withdraw(ctx, accountNumber, amount)
		if err != nil {
			return err
		}
		p.Println("Withdrawal successful")
		p.Printf("Balance: %d\n", balance)
		return nil
	}
}
