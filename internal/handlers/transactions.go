package handlers

import (
	"context"
)

// NewTransactionsHandler prints the ledger, most recent first.
func NewTransactionsHandler(svc TransactionLister) AccountHandler {
	return func(ctx context.Context, p *Prompter, accountNumber string) error {
		txs, err := svc.ListTransactions(ctx, accountNumber)
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			p.Println("No transactions yet.")
			return nil
		}
		p.Println("Recent Transactions:")
		for _, tx := range txs {
			p.Printf("%s - %d\n", tx.Type, tx.Amount)
		}
		return nil
	}
}
