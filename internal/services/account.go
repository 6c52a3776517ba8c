package services

//go:generate mockgen -source=account.go -destination=mock_account.go -package=services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sbilibin2017/atm-simulator/internal/logger"
	"github.com/sbilibin2017/atm-simulator/internal/models"
	"github.com/segmentio/kafka-go"
	"golang.org/x/crypto/bcrypt"
)

// Error variables
var (
	ErrDuplicateAccount     = errors.New("account already exists")
	ErrInvalidCredentials   = errors.New("invalid account number or PIN")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrPINMismatch          = errors.New("new PIN and confirmation do not match")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrInvalidPINFormat     = errors.New("PIN must be 4 to 12 digits")
	ErrInvalidAccountNumber = errors.New("account number must be 1 to 32 characters")
	ErrAccountLocked        = errors.New("too many failed PIN attempts, try again later")
)

// domainErrors are returned to the caller as is; anything else is a storage failure.
var domainErrors = []error{
	ErrDuplicateAccount,
	ErrInvalidCredentials,
	ErrInvalidAmount,
	ErrInsufficientFunds,
	ErrPINMismatch,
	ErrStorageUnavailable,
	ErrInvalidPINFormat,
	ErrInvalidAccountNumber,
	ErrAccountLocked,
}

// AccountReader defines read operations for accounts.
type AccountReader interface {
	GetByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountDB, error)
	GetByAccountNumberForUpdate(ctx context.Context, accountNumber string) (*models.AccountDB, error)
}

// AccountWriter defines write operations for accounts.
type AccountWriter interface {
	Save(ctx context.Context, accountNumber, pinHash string) (bool, error)
	SaveDeposit(ctx context.Context, accountNumber string, amount int64) (int64, error)
	SaveWithdraw(ctx context.Context, accountNumber string, amount int64) (int64, error)
	SavePINHash(ctx context.Context, accountNumber, pinHash string) error
}

// TransactionWriter appends rows to the ledger.
type TransactionWriter interface {
	Save(ctx context.Context, accountNumber string, txType models.TransactionType, amount int64) (int64, error)
}

// TransactionReader reads the ledger, most recent first.
type TransactionReader interface {
	GetByAccountNumber(ctx context.Context, accountNumber string, limit int) ([]models.TransactionDB, error)
}

// TxRunner runs fn as one atomic unit.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PINAttemptLimiter counts failed PIN entries per account number.
type PINAttemptLimiter interface {
	GetFailedAttempts(ctx context.Context, accountNumber string) (int64, error)
	IncrementFailedAttempts(ctx context.Context, accountNumber string) (int64, error)
	ResetFailedAttempts(ctx context.Context, accountNumber string) error
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// AccountService owns accounts and their ledger.
type AccountService struct {
	accountReader AccountReader
	accountWriter AccountWriter
	ledgerWriter  TransactionWriter
	ledgerReader  TransactionReader
	tx            TxRunner

	limiter      PINAttemptLimiter
	maxAttempts  int64
	kafkaWriter  KafkaWriter
	hashCost     int
	historyLimit int

	// dummyHash is compared against when the account does not exist so that
	// both failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// Opt configures optional AccountService collaborators.
type Opt func(*AccountService)

// WithPINAttemptLimiter locks authentication for an account number after
// maxAttempts consecutive failures.
func WithPINAttemptLimiter(limiter PINAttemptLimiter, maxAttempts int) Opt {
	return func(s *AccountService) {
		s.limiter = limiter
		s.maxAttempts = int64(maxAttempts)
	}
}

// WithKafkaWriter publishes committed ledger rows.
func WithKafkaWriter(w KafkaWriter) Opt {
	return func(s *AccountService) {
		s.kafkaWriter = w
	}
}

// WithHashCost sets the bcrypt cost. Out of range values keep the default.
func WithHashCost(cost int) Opt {
	return func(s *AccountService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.hashCost = cost
		}
	}
}

// WithHistoryLimit caps ListTransactions. Zero means no limit.
func WithHistoryLimit(limit int) Opt {
	return func(s *AccountService) {
		s.historyLimit = limit
	}
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	accountReader AccountReader,
	accountWriter AccountWriter,
	ledgerWriter TransactionWriter,
	ledgerReader TransactionReader,
	tx TxRunner,
	opts ...Opt,
) *AccountService {
	s := &AccountService{
		accountReader: accountReader,
		accountWriter: accountWriter,
		ledgerWriter:  ledgerWriter,
		ledgerReader:  ledgerReader,
		tx:            tx,
		hashCost:      bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("0000"), s.hashCost)
	if err != nil {
		logger.Log.Errorw("failed to prepare dummy PIN hash", "error", err)
	}
	s.dummyHash = dummy

	return s
}

// CreateAccount registers a new account with a zero balance.
func (s *AccountService) CreateAccount(ctx context.Context, accountNumber, pin string) (*models.AccountDB, error) {
	if !validAccountNumber(accountNumber) {
		return nil, ErrInvalidAccountNumber
	}
	if !validPIN(pin) {
		return nil, ErrInvalidPINFormat
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.hashCost)
	if err != nil {
		logger.Log.Errorw("failed to hash PIN", "err", err)
		return nil, err
	}

	created, err := s.accountWriter.Save(ctx, accountNumber, string(hash))
	if err != nil {
		logger.Log.Errorw("failed to save account", "account_number", accountNumber, "err", err)
		return nil, storageError(err)
	}
	if !created {
		logger.Log.Warnw("account already exists", "account_number", accountNumber)
		return nil, ErrDuplicateAccount
	}

	logger.Log.Infow("account created", "account_number", accountNumber)
	return &models.AccountDB{
		AccountNumber: accountNumber,
		PINHash:       string(hash),
		Balance:       0,
	}, nil
}

// Authenticate checks the PIN of an account. A missing account and a wrong
// PIN produce the same error after the same amount of work.
func (s *AccountService) Authenticate(ctx context.Context, accountNumber, pin string) (*models.AccountDB, error) {
	if s.locked(ctx, accountNumber) {
		logger.Log.Warnw("authentication refused, account locked", "account_number", accountNumber)
		return nil, ErrAccountLocked
	}

	account, err := s.accountReader.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		logger.Log.Errorw("failed to get account", "account_number", accountNumber, "err", err)
		return nil, storageError(err)
	}

	hash := s.dummyHash
	if account != nil {
		hash = []byte(account.PINHash)
	}
	cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(pin))

	if account == nil || cmpErr != nil {
		s.recordFailedAttempt(ctx, accountNumber)
		logger.Log.Warnw("invalid credentials", "account_number", accountNumber)
		return nil, ErrInvalidCredentials
	}

	s.resetFailedAttempts(ctx, accountNumber)
	return account, nil
}

// GetBalance returns the current balance of an account.
func (s *AccountService) GetBalance(ctx context.Context, accountNumber string) (int64, error) {
	account, err := s.accountReader.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		logger.Log.Errorw("failed to get balance", "account_number", accountNumber, "err", err)
		return 0, storageError(err)
	}
	if account == nil {
		return 0, ErrInvalidCredentials
	}
	return account.Balance, nil
}

// ListTransactions returns the ledger of an account, most recent first.
func (s *AccountService) ListTransactions(ctx context.Context, accountNumber string) ([]models.TransactionDB, error) {
	txs, err := s.ledgerReader.GetByAccountNumber(ctx, accountNumber, s.historyLimit)
	if err != nil {
		logger.Log.Errorw("failed to list transactions", "account_number", accountNumber, "err", err)
		return nil, storageError(err)
	}
	return txs, nil
}

func (s *AccountService) locked(ctx context.Context, accountNumber string) bool {
	if s.limiter == nil || s.maxAttempts <= 0 {
		return false
	}
	n, err := s.limiter.GetFailedAttempts(ctx, accountNumber)
	if err != nil {
		logger.Log.Errorw("failed to read PIN attempts", "account_number", accountNumber, "err", err)
		return false
	}
	return n >= s.maxAttempts
}

func (s *AccountService) recordFailedAttempt(ctx context.Context, accountNumber string) {
	if s.limiter == nil {
		return
	}
	n, err := s.limiter.IncrementFailedAttempts(ctx, accountNumber)
	if err != nil {
		logger.Log.Errorw("failed to record PIN attempt", "account_number", accountNumber, "err", err)
		return
	}
	if s.maxAttempts > 0 && n >= s.maxAttempts {
		logger.Log.Warnw("account locked after failed PIN attempts", "account_number", accountNumber, "attempts", n)
	}
}

func (s *AccountService) resetFailedAttempts(ctx context.Context, accountNumber string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.ResetFailedAttempts(ctx, accountNumber); err != nil {
		logger.Log.Errorw("failed to reset PIN attempts", "account_number", accountNumber, "err", err)
	}
}

// storageError passes domain errors through and marks everything else as a
// storage failure.
func storageError(err error) error {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

func validAccountNumber(accountNumber string) bool {
	return accountNumber != "" && len(accountNumber) <= 32
}

// validPIN accepts 4 to 12 ASCII digits.
func validPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 12 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
