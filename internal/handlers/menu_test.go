package handlers

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/atm-simulator/internal/jwt"
	"github.com/sbilibin2017/atm-simulator/internal/models"
	"github.com/sbilibin2017/atm-simulator/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBank keeps accounts in memory for menu flow tests.
type fakeBank struct {
	mu       sync.Mutex
	pins     map[string]string
	balances map[string]int64
	ledger   map[string][]models.TransactionDB
	nextID   int64
}

func newFakeBank() *fakeBank {
	return &fakeBank{
		pins:     map[string]string{},
		balances: map[string]int64{},
		ledger:   map[string][]models.TransactionDB{},
	}
}

func (b *fakeBank) CreateAccount(_ context.Context, accountNumber, pin string) (*models.AccountDB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pins[accountNumber]; ok {
		return nil, services.ErrDuplicateAccount
	}
	b.pins[accountNumber] = pin
	return &models.AccountDB{AccountNumber: accountNumber}, nil
}

func (b *fakeBank) Authenticate(_ context.Context, accountNumber, pin string) (*models.AccountDB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if stored, ok := b.pins[accountNumber]; !ok || stored != pin {
		return nil, services.ErrInvalidCredentials
	}
	return &models.AccountDB{AccountNumber: accountNumber, Balance: b.balances[accountNumber]}, nil
}

func (b *fakeBank) GetBalance(_ context.Context, accountNumber string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[accountNumber], nil
}

func (b *fakeBank) Deposit(_ context.Context, accountNumber string, amount int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[accountNumber] += amount
	b.append(accountNumber, models.Deposit, amount)
	return b.balances[accountNumber], nil
}

func (b *fakeBank) Withdraw(_ context.Context, accountNumber string, amount int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[accountNumber] < amount {
		return 0, services.ErrInsufficientFunds
	}
	b.balances[accountNumber] -= amount
	b.append(accountNumber, models.Withdraw, amount)
	return b.balances[accountNumber], nil
}

func (b *fakeBank) ChangePIN(_ context.Context, accountNumber, currentPIN, newPIN, confirmPIN string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pins[accountNumber] != currentPIN {
		return services.ErrInvalidCredentials
	}
	if newPIN != confirmPIN {
		return services.ErrPINMismatch
	}
	b.pins[accountNumber] = newPIN
	return nil
}

func (b *fakeBank) ListTransactions(_ context.Context, accountNumber string) ([]models.TransactionDB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	txs := b.ledger[accountNumber]
	out := make([]models.TransactionDB, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		out = append(out, txs[i])
	}
	return out, nil
}

func (b *fakeBank) append(accountNumber string, txType models.TransactionType, amount int64) {
	b.nextID++
	b.ledger[accountNumber] = append(b.ledger[accountNumber], models.TransactionDB{
		ID:            b.nextID,
		AccountNumber: accountNumber,
		Type:          txType,
		Amount:        amount,
	})
}

func newTestMenu(input string, bank *fakeBank, sessions SessionValidator, tokener SessionGenerator) (*Menu, *strings.Builder) {
	var out strings.Builder
	p := NewPrompter(strings.NewReader(input), &out)
	menu := NewMenu(p, sessions,
		EntryHandlers{
			Login:    NewLoginHandler(bank, tokener),
			Register: NewRegisterHandler(bank),
		},
		AccountHandlers{
			Balance:      NewBalanceHandler(bank),
			Deposit:      NewDepositHandler(bank),
			Withdraw:     NewWithdrawHandler(bank),
			ChangePIN:    NewChangePINHandler(bank),
			Transactions: NewTransactionsHandler(bank),
		},
	)
	return menu, &out
}

func TestMenu_Scenario(t *testing.T) {
	input := strings.Join([]string{
		"2", "1001", "1234", // create account
		"2", "1001", "9999", // duplicate
		"1", "1001", "0000", // wrong PIN
		"1", "1001", "1234", // login
		"2", "500",
		"3", "600",
		"1",
		"3", "500",
		"5",
		"6",
	}, "\n") + "\n"

	bank := newFakeBank()
	session := jwt.New()
	menu, out := newTestMenu(input, bank, session, session)

	require.NoError(t, menu.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Welcome to Mini ATM Simulator")
	assert.Contains(t, got, "User account created successfully!")
	assert.Contains(t, got, "Error: Account might already exist.")
	assert.Contains(t, got, "Invalid credentials. Try again.")
	assert.Contains(t, got, "Welcome, account 1001")
	assert.Contains(t, got, "Deposit successful\nBalance: 500\n")
	assert.Contains(t, got, "Insufficient balance\n")
	assert.Contains(t, got, "Withdrawal successful\nBalance: 0\n")
	assert.Contains(t, got, "Recent Transactions:\nWITHDRAW - 500\nDEPOSIT - 500\n")
	assert.True(t, strings.HasSuffix(got, "Thank you!\n"))

	assert.Equal(t, int64(0), bank.balances["1001"])
	assert.Equal(t, "1234", bank.pins["1001"])
}

func TestMenu_InvalidInputKeepsLooping(t *testing.T) {
	input := strings.Join([]string{
		"9",
		"1", "1001", "1234",
		"7",
		"2", "abc",
		"2", "-5",
		"3", "",
		"4", "1234", "5678", "8765",
		"4", "1234", "5678", "5678",
		"1",
		"6",
	}, "\n") + "\n"

	bank := newFakeBank()
	bank.pins["1001"] = "1234"
	bank.balances["1001"] = 50
	session := jwt.New()
	menu, out := newTestMenu(input, bank, session, session)

	require.NoError(t, menu.Run(context.Background()))

	got := out.String()
	assert.Equal(t, 2, strings.Count(got, "Invalid option"))
	assert.Contains(t, got, "Amount must be a whole number.")
	assert.Contains(t, got, "Invalid amount. Enter a value greater than zero.")
	assert.Contains(t, got, "Input must not be empty.")
	assert.Contains(t, got, "PINs do not match.")
	assert.Contains(t, got, "PIN changed successfully.")
	assert.Contains(t, got, "Balance: 50\n")
	assert.Equal(t, "5678", bank.pins["1001"])
}

func TestMenu_EndOfInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "at entry menu", input: ""},
		{name: "while logging in", input: "1\n1001\n"},
		{name: "at account menu", input: "1\n1001\n1234\n"},
		{name: "while depositing", input: "1\n1001\n1234\n2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank := newFakeBank()
			bank.pins["1001"] = "1234"
			session := jwt.New()
			menu, out := newTestMenu(tt.input, bank, session, session)

			assert.NoError(t, menu.Run(context.Background()))
			assert.NotContains(t, out.String(), "Thank you!")
		})
	}
}

func TestMenu_ContextCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	bank := newFakeBank()
	session := jwt.New()
	p := NewPrompter(r, io.Discard)
	menu := NewMenu(p, session,
		EntryHandlers{Login: NewLoginHandler(bank, session), Register: NewRegisterHandler(bank)},
		AccountHandlers{},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, menu.Run(ctx))
}

func TestMenu_SessionExpired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bank := newFakeBank()
	bank.pins["1001"] = "1234"

	tokener := NewMockSessionGenerator(ctrl)
	sessions := NewMockSessionValidator(ctrl)
	tokener.EXPECT().Generate(gomock.Any(), "1001").Return("token", nil)
	gomock.InOrder(
		sessions.EXPECT().GetClaims(gomock.Any(), "token").Return(&jwt.Claims{AccountNumber: "1001"}, nil),
		sessions.EXPECT().GetClaims(gomock.Any(), "token").Return(nil, jwt.ErrInvalidToken),
	)

	input := strings.Join([]string{
		"1", "1001", "1234",
		"1",
		"2",
	}, "\n") + "\n"
	menu, out := newTestMenu(input, bank, sessions, tokener)

	assert.NoError(t, menu.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Balance: 0\n")
	assert.Contains(t, got, "Session expired\n")
	assert.Equal(t, 2, strings.Count(got, "1. Login"))
	assert.Empty(t, bank.ledger["1001"])
}
