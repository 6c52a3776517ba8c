package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/atm-simulator/internal/models"
	"github.com/sbilibin2017/atm-simulator/internal/services"
	"github.com/stretchr/testify/assert"
)

func newTestPrompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return NewPrompter(strings.NewReader(input), &out), &out
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		setupMocks func(svc *MockAuthenticator, tokener *MockSessionGenerator)
		wantToken  string
		wantErr    error
	}{
		{
			name:  "successful login",
			input: "1001\n1234\n",
			setupMocks: func(svc *MockAuthenticator, tokener *MockSessionGenerator) {
				svc.EXPECT().Authenticate(gomock.Any(), "1001", "1234").
					Return(&models.AccountDB{AccountNumber: "1001"}, nil)
				tokener.EXPECT().Generate(gomock.Any(), "1001").Return("session-token", nil)
			},
			wantToken: "session-token",
		},
		{
			name:  "invalid credentials",
			input: "1001\n9999\n",
			setupMocks: func(svc *MockAuthenticator, tokener *MockSessionGenerator) {
				svc.EXPECT().Authenticate(gomock.Any(), "1001", "9999").
					Return(nil, services.ErrInvalidCredentials)
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:       "empty account number",
			input:      "\n",
			setupMocks: func(svc *MockAuthenticator, tokener *MockSessionGenerator) {},
			wantErr:    ErrEmptyInput,
		},
		{
			name:       "non digit PIN",
			input:      "1001\nabcd\n",
			setupMocks: func(svc *MockAuthenticator, tokener *MockSessionGenerator) {},
			wantErr:    services.ErrInvalidPINFormat,
		},
		{
			name:       "input ends",
			input:      "1001\n",
			setupMocks: func(svc *MockAuthenticator, tokener *MockSessionGenerator) {},
			wantErr:    io.EOF,
		},
		{
			name:  "token generation fails",
			input: "1001\n1234\n",
			setupMocks: func(svc *MockAuthenticator, tokener *MockSessionGenerator) {
				svc.EXPECT().Authenticate(gomock.Any(), "1001", "1234").
					Return(&models.AccountDB{AccountNumber: "1001"}, nil)
				tokener.EXPECT().Generate(gomock.Any(), "1001").Return("", errors.New("sign error"))
			},
			wantErr: errors.New("sign error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewMockAuthenticator(ctrl)
			tokener := NewMockSessionGenerator(ctrl)
			tt.setupMocks(svc, tokener)

			p, _ := newTestPrompter(tt.input)
			token, err := NewLoginHandler(svc, tokener)(context.Background(), p)

			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.wantErr.Error(), err.Error())
				assert.Empty(t, token)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		setupMocks func(svc *MockAccountCreator)
		wantOutput string
		wantErr    error
	}{
		{
			name:  "account created",
			input: "1001\n1234\n",
			setupMocks: func(svc *MockAccountCreator) {
				svc.EXPECT().CreateAccount(gomock.Any(), "1001", "1234").
					Return(&models.AccountDB{AccountNumber: "1001"}, nil)
			},
			wantOutput: "User account created successfully!",
		},
		{
			name:  "duplicate account",
			input: "1001\n1234\n",
			setupMocks: func(svc *MockAccountCreator) {
				svc.EXPECT().CreateAccount(gomock.Any(), "1001", "1234").
					Return(nil, services.ErrDuplicateAccount)
			},
			wantErr: services.ErrDuplicateAccount,
		},
		{
			name:       "short PIN",
			input:      "1001\n12\n",
			setupMocks: func(svc *MockAccountCreator) {},
			wantErr:    services.ErrInvalidPINFormat,
		},
		{
			name:       "empty PIN",
			input:      "1001\n\n",
			setupMocks: func(svc *MockAccountCreator) {},
			wantErr:    ErrEmptyInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewMockAccountCreator(ctrl)
			tt.setupMocks(svc)

			p, out := newTestPrompter(tt.input)
			token, err := NewRegisterHandler(svc)(context.Background(), p)
			assert.Empty(t, token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Contains(t, out.String(), tt.wantOutput)
		})
	}
}

func TestBalanceHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockBalanceReader(ctrl)
	svc.EXPECT().GetBalance(gomock.Any(), "1001").Return(int64(500), nil)
	svc.EXPECT().GetBalance(gomock.Any(), "1001").Return(int64(0), services.ErrStorageUnavailable)

	h := NewBalanceHandler(svc)

	p, out := newTestPrompter("")
	assert.NoError(t, h(context.Background(), p, "1001"))
	assert.Equal(t, "Balance: 500\n", out.String())

	assert.ErrorIs(t, h(context.Background(), p, "1001"), services.ErrStorageUnavailable)
}

func TestDepositHandler(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		setupMocks func(svc *MockDepositWriter)
		wantOutput string
		wantErr    error
	}{
		{
			name:  "successful deposit",
			input: "500\n",
			setupMocks: func(svc *MockDepositWriter) {
				svc.EXPECT().Deposit(gomock.Any(), "1001", int64(500)).Return(int64(500), nil)
			},
			wantOutput: "Deposit successful\nBalance: 500\n",
		},
		{
			name:       "not a number",
			input:      "five\n",
			setupMocks: func(svc *MockDepositWriter) {},
			wantErr:    ErrNotANumber,
		},
		{
			name:       "fractional amount",
			input:      "10.5\n",
			setupMocks: func(svc *MockDepositWriter) {},
			wantErr:    ErrNotANumber,
		},
		{
			name:       "zero amount",
			input:      "0\n",
			setupMocks: func(svc *MockDepositWriter) {},
			wantErr:    services.ErrInvalidAmount,
		},
		{
			name:       "negative amount",
			input:      "-20\n",
			setupMocks: func(svc *MockDepositWriter) {},
			wantErr:    services.ErrInvalidAmount,
		},
		{
			name:       "empty amount",
			input:      "\n",
			setupMocks: func(svc *MockDepositWriter) {},
			wantErr:    ErrEmptyInput,
		},
		{
			name:  "storage unavailable",
			input: "500\n",
			setupMocks: func(svc *MockDepositWriter) {
				svc.EXPECT().Deposit(gomock.Any(), "1001", int64(500)).Return(int64(0), services.ErrStorageUnavailable)
			},
			wantErr: services.ErrStorageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewMockDepositWriter(ctrl)
			tt.setupMocks(svc)

			p, out := newTestPrompter(tt.input)
			err := NewDepositHandler(svc)(context.Background(), p, "1001")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "Enter amount to deposit: "+tt.wantOutput, out.String())
		})
	}
}

func TestWithdrawHandler(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		setupMocks func(svc *MockWithdrawWriter)
		wantOutput string
		wantErr    error
	}{
		{
			name:  "successful withdrawal",
			input: "200\n",
			setupMocks: func(svc *MockWithdrawWriter) {
				svc.EXPECT().Withdraw(gomock.Any(), "1001", int64(200)).Return(int64(300), nil)
			},
			wantOutput: "Withdrawal successful\nBalance: 300\n",
		},
		{
			name:  "insufficient funds",
			input: "600\n",
			setupMocks: func(svc *MockWithdrawWriter) {
				svc.EXPECT().Withdraw(gomock.Any(), "1001", int64(600)).Return(int64(0), services.ErrInsufficientFunds)
			},
			wantErr: services.ErrInsufficientFunds,
		},
		{
			name:       "not a number",
			input:      "abc\n",
			setupMocks: func(svc *MockWithdrawWriter) {},
			wantErr:    ErrNotANumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewMockWithdrawWriter(ctrl)
			tt.setupMocks(svc)

			p, out := newTestPrompter(tt.input)
			err := NewWithdrawHandler(svc)(context.Background(), p, "1001")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "Enter amount to withdraw: "+tt.wantOutput, out.String())
		})
	}
}

func TestChangePINHandler(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		setupMocks func(svc *MockPINChanger)
		wantErr    error
	}{
		{
			name:  "PIN changed",
			input: "1234\n5678\n5678\n",
			setupMocks: func(svc *MockPINChanger) {
				svc.EXPECT().ChangePIN(gomock.Any(), "1001", "1234", "5678", "5678").Return(nil)
			},
		},
		{
			name:  "confirmation differs",
			input: "1234\n5678\n5679\n",
			setupMocks: func(svc *MockPINChanger) {
				svc.EXPECT().ChangePIN(gomock.Any(), "1001", "1234", "5678", "5679").Return(services.ErrPINMismatch)
			},
			wantErr: services.ErrPINMismatch,
		},
		{
			name:  "wrong current PIN",
			input: "0000\n5678\n5678\n",
			setupMocks: func(svc *MockPINChanger) {
				svc.EXPECT().ChangePIN(gomock.Any(), "1001", "0000", "5678", "5678").Return(services.ErrInvalidCredentials)
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:       "new PIN not digits",
			input:      "1234\nabcd\n",
			setupMocks: func(svc *MockPINChanger) {},
			wantErr:    services.ErrInvalidPINFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewMockPINChanger(ctrl)
			tt.setupMocks(svc)

			p, out := newTestPrompter(tt.input)
			err := NewChangePINHandler(svc)(context.Background(), p, "1001")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Contains(t, out.String(), "PIN changed successfully.")
		})
	}
}

func TestTransactionsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockTransactionLister(ctrl)
	svc.EXPECT().ListTransactions(gomock.Any(), "1001").Return([]models.TransactionDB{
		{ID: 2, Type: models.Withdraw, Amount: 500},
		{ID: 1, Type: models.Deposit, Amount: 500},
	}, nil)
	svc.EXPECT().ListTransactions(gomock.Any(), "2002").Return([]models.TransactionDB{}, nil)

	h := NewTransactionsHandler(svc)

	p, out := newTestPrompter("")
	assert.NoError(t, h(context.Background(), p, "1001"))
	assert.Equal(t, "Recent Transactions:\nWITHDRAW - 500\nDEPOSIT - 500\n", out.String())

	out.Reset()
	assert.NoError(t, h(context.Background(), p, "2002"))
	assert.Equal(t, "No transactions yet.\n", out.String())
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{services.ErrInvalidCredentials, "Invalid credentials. Try again."},
		{services.ErrInsufficientFunds, "Insufficient balance"},
		{services.ErrPINMismatch, "PINs do not match."},
		{fmt.Errorf("%w: %w", services.ErrStorageUnavailable, io.ErrUnexpectedEOF), "Service temporarily unavailable. Try again later."},
		{ErrSessionExpired, "Session expired"},
		{errors.New("boom"), "Operation failed."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorMessage(tt.err))
	}
}
