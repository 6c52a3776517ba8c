package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/atm-simulator/internal/handlers"
	"github.com/sbilibin2017/atm-simulator/internal/jwt"
	"github.com/sbilibin2017/atm-simulator/internal/logger"
	"github.com/sbilibin2017/atm-simulator/internal/middlewares"
	"github.com/sbilibin2017/atm-simulator/internal/repositories"
	"github.com/sbilibin2017/atm-simulator/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the application
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

func main() {
	printBuildInfo()
	configPath := parseFlags()

	logLevel, logFile,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		kafkaBrokers, kafkaTopic,
		sessionSecret, sessionExp,
		maxPINAttempts, lockoutSecond, pinHashCost, historyLimit,
		err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), os.Stdin, os.Stdout,
		logLevel, logFile,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		kafkaBrokers, kafkaTopic,
		sessionSecret, sessionExp,
		maxPINAttempts, lockoutSecond, pinHashCost, historyLimit,
	); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s, Commit: %s, Build: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the
// logging, PostgreSQL, Redis, Kafka, session and ATM configuration.
func parseConfig(path string) (
	logLevel, logFile string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort int, redisDB int, redisPassword string,
	kafkaBrokers, kafkaTopic string,
	sessionSecretKey string, sessionExpSecond int,
	maxPINAttempts, lockoutSecond, pinHashCost, historyLimit int,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	logLevel = getEnv("APP_LOG_LEVEL", "info")
	logFile = getEnv("APP_LOG_FILE", "")

	// PostgreSQL config
	pgHost = getEnv("POSTGRES_HOST", "localhost")
	pgUser = getEnv("POSTGRES_USER", "user")
	pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	pgDB = getEnv("POSTGRES_DB", "atm")
	if pgPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "4")); err != nil {
		return
	}
	if pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "2")); err != nil {
		return
	}

	// Redis config, empty host disables the PIN attempt limiter
	redisHost = getEnv("REDIS_HOST", "")
	if redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	redisPassword = getEnv("REDIS_PASSWORD", "")

	// Kafka config, empty brokers disable ledger publishing
	kafkaBrokers = getEnv("KAFKA_BROKERS", "")
	kafkaTopic = getEnv("KAFKA_TOPIC", "atm.transactions")

	// Session config
	sessionSecretKey = getEnv("SESSION_SECRET_KEY", "")
	if sessionExpSecond, err = strconv.Atoi(getEnv("SESSION_EXP_SECOND", "300")); err != nil {
		return
	}

	// ATM config
	if maxPINAttempts, err = strconv.Atoi(getEnv("ATM_MAX_PIN_ATTEMPTS", "3")); err != nil {
		return
	}
	if lockoutSecond, err = strconv.Atoi(getEnv("ATM_LOCKOUT_SECOND", "900")); err != nil {
		return
	}
	if pinHashCost, err = strconv.Atoi(getEnv("ATM_PIN_HASH_COST", "10")); err != nil {
		return
	}
	if historyLimit, err = strconv.Atoi(getEnv("ATM_HISTORY_LIMIT", "0")); err != nil {
		return
	}

	return
}

// run initializes the logger, PostgreSQL, the optional Redis and Kafka
// clients, and drives the console menu on in and out until the user exits,
// input ends or a termination signal arrives.
func run(ctx context.Context, in io.Reader, out io.Writer,
	logLevel, logFile string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort, redisDB int, redisPassword string,
	kafkaBrokers, kafkaTopic string,
	sessionSecretKey string, sessionExpSecond int,
	maxPINAttempts, lockoutSecond, pinHashCost, historyLimit int,
) error {
	// Initialize logger
	var logOutputs []string
	if logFile != "" {
		logOutputs = append(logOutputs, logFile)
	}
	if err := logger.Initialize(logLevel, logOutputs...); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Log.Sync()
	logger.Log.Infow("logger initialized", "level", logLevel)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pgUser, pgPassword, pgHost, pgPort, pgDB)
	logger.Log.Infow("connecting to PostgreSQL", "host", pgHost, "port", pgPort, "db", pgDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		logger.Log.Errorw("PostgreSQL connection error", "error", err)
		return fmt.Errorf("%w: connect to PostgreSQL: %w", services.ErrStorageUnavailable, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)

	if err := repositories.Migrate(ctx, db); err != nil {
		logger.Log.Errorw("PostgreSQL migration failed", "error", err)
		return fmt.Errorf("%w: migrate schema: %w", services.ErrStorageUnavailable, err)
	}

	// Initialize repositories
	accountReadRepo := repositories.NewAccountReadRepository(db, middlewares.GetTxFromContext)
	accountWriteRepo := repositories.NewAccountWriteRepository(db, middlewares.GetTxFromContext)
	transactionWriteRepo := repositories.NewTransactionWriteRepository(db, middlewares.GetTxFromContext)
	transactionReadRepo := repositories.NewTransactionReadRepository(db)

	opts := []services.Opt{
		services.WithHashCost(pinHashCost),
		services.WithHistoryLimit(historyLimit),
	}

	// Connect to Redis
	if redisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", redisHost, redisPort),
			Password: redisPassword,
			DB:       redisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Log.Errorw("Redis connection error", "error", err)
			return fmt.Errorf("connect to Redis: %w", err)
		}
		defer rdb.Close()

		pinAttemptRepo := repositories.NewPINAttemptCacheRepository(rdb, time.Duration(lockoutSecond)*time.Second)
		opts = append(opts, services.WithPINAttemptLimiter(pinAttemptRepo, maxPINAttempts))
		logger.Log.Infow("PIN attempt limiter enabled", "max_attempts", maxPINAttempts, "lockout_second", lockoutSecond)
	}

	// Kafka writer
	if kafkaBrokers != "" {
		kw := &kafka.Writer{
			Addr:     kafka.TCP(strings.Split(kafkaBrokers, ",")...),
			Topic:    kafkaTopic,
			Balancer: &kafka.Hash{},
		}
		defer kw.Close()

		opts = append(opts, services.WithKafkaWriter(kw))
		logger.Log.Infow("ledger publishing enabled", "brokers", kafkaBrokers, "topic", kafkaTopic)
	}

	// Initialize services
	accountService := services.NewAccountService(
		accountReadRepo,
		accountWriteRepo,
		transactionWriteRepo,
		transactionReadRepo,
		middlewares.NewTx(db),
		opts...,
	)

	// Initialize session tokens
	jwtOpts := []jwt.Opt{jwt.WithExpiration(time.Duration(sessionExpSecond) * time.Second)}
	if sessionSecretKey != "" {
		jwtOpts = append(jwtOpts, jwt.WithSecretKey(sessionSecretKey))
	}
	sessions := jwt.New(jwtOpts...)

	// Initialize handlers
	menu := handlers.NewMenu(
		handlers.NewPrompter(in, out),
		sessions,
		handlers.EntryHandlers{
			Login:    handlers.NewLoginHandler(accountService, sessions),
			Register: handlers.NewRegisterHandler(accountService),
		},
		handlers.AccountHandlers{
			Balance:      handlers.NewBalanceHandler(accountService),
			Deposit:      handlers.NewDepositHandler(accountService),
			Withdraw:     handlers.NewWithdrawHandler(accountService),
			ChangePIN:    handlers.NewChangePINHandler(accountService),
			Transactions: handlers.NewTransactionsHandler(accountService),
		},
	)

	if err := menu.Run(ctx); err != nil {
		logger.Log.Errorw("session stopped with error", "error", err)
		return err
	}

	logger.Log.Info("session finished")
	return nil
}
