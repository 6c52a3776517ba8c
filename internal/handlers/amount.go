package handlers

import (
	"context"
	"strconv"

	"github.com/sbilibin2017/atm-simulator/internal/services"
)

// readAmount reads a positive whole amount.
func readAmount(ctx context.Context, p *Prompter, prompt string) (int64, error) {
	s, err := readRequired(ctx, p, prompt)
	if err != nil {
		return 0, err
	}
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrNotANumber
	}
	if amount <= 0 {
		return 0, services.ErrInvalidAmount
	}
	return amount, nil
}
