package handlers

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

import (
	"context"
	"errors"
	"io"

	"github.com/sbilibin2017/atm-simulator/internal/jwt"
	"github.com/sbilibin2017/atm-simulator/internal/models"
	"github.com/sbilibin2017/atm-simulator/internal/services"
)

// Error variables
var (
	ErrSessionExpired = errors.New("session expired")
	ErrEmptyInput     = errors.New("input must not be empty")
	ErrNotANumber     = errors.New("amount must be a whole number")
)

// AccountCreator defines the interface that the registration service must implement.
type AccountCreator interface {
	CreateAccount(ctx context.Context, accountNumber, pin string) (*models.AccountDB, error)
}

// Authenticator defines the interface that the login service must implement.
type Authenticator interface {
	Authenticate(ctx context.Context, accountNumber, pin string) (*models.AccountDB, error)
}

// BalanceReader defines the interface that the balance service must implement.
type BalanceReader interface {
	GetBalance(ctx context.Context, accountNumber string) (int64, error)
}

// DepositWriter defines the interface that the deposit service must implement.
type DepositWriter interface {
	Deposit(ctx context.Context, accountNumber string, amount int64) (int64, error)
}

// WithdrawWriter defines the interface that the withdraw service must implement.
type WithdrawWriter interface {
	Withdraw(ctx context.Context, accountNumber string, amount int64) (int64, error)
}

// PINChanger defines the interface that the PIN service must implement.
type PINChanger interface {
	ChangePIN(ctx context.Context, accountNumber, currentPIN, newPIN, confirmPIN string) error
}

// TransactionLister defines the interface that the history service must implement.
type TransactionLister interface {
	ListTransactions(ctx context.Context, accountNumber string) ([]models.TransactionDB, error)
}

// SessionGenerator issues session tokens.
type SessionGenerator interface {
	Generate(ctx context.Context, accountNumber string) (string, error)
}

// SessionValidator reads claims from a session token.
type SessionValidator interface {
	GetClaims(ctx context.Context, token string) (*jwt.Claims, error)
}

// EntryHandler runs an entry menu action. A non-empty token means the user
// is now logged in.
type EntryHandler func(ctx context.Context, p *Prompter) (token string, err error)

// AccountHandler runs an account menu action for an authenticated account.
type AccountHandler func(ctx context.Context, p *Prompter, accountNumber string) error

var errorMessages = []struct {
	err error
	msg string
}{
	{services.ErrInvalidCredentials, "Invalid credentials. Try again."},
	{services.ErrDuplicateAccount, "Error: Account might already exist."},
	{services.ErrInvalidAmount, "Invalid amount. Enter a value greater than zero."},
	{services.ErrInsufficientFunds, "Insufficient balance"},
	{services.ErrPINMismatch, "PINs do not match."},
	{services.ErrInvalidPINFormat, "PIN must be 4 to 12 digits."},
	{services.ErrInvalidAccountNumber, "Account number must be 1 to 32 characters."},
	{services.ErrAccountLocked, "Too many failed PIN attempts. Try again later."},
	{services.ErrStorageUnavailable, "Service temporarily unavailable. Try again later."},
	{ErrSessionExpired, "Session expired"},
	{ErrEmptyInput, "Input must not be empty."},
	{ErrNotANumber, "Amount must be a whole number."},
}

// errorMessage returns the text shown to the user for err.
func errorMessage(err error) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Operation failed."
}

// isInputClosed reports whether err ends the session: end of input or a
// cancelled context.
func isInputClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func readRequired(ctx context.Context, p *Prompter, prompt string) (string, error) {
	s, err := p.ReadLine(ctx, prompt)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", ErrEmptyInput
	}
	return s, nil
}

// readPIN reads a PIN and checks its shape before it reaches the store.
func readPIN(ctx context.Context, p *Prompter, prompt string) (string, error) {
	pin, err := readRequired(ctx, p, prompt)
	if err != nil {
		return "", err
	}
	if !isPIN(pin) {
		return "", services.ErrInvalidPINFormat
	}
	return pin, nil
}

func isPIN(s string) bool {
	if len(s) < 4 || len(s) > 12 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
