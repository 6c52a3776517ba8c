package handlers

import (
	"context"
	"errors"

	"github.com/sbilibin2017/atm-simulator/internal/logger"
	"github.com/sbilibin2017/atm-simulator/internal/middlewares"
)

// EntryHandlers are the actions offered before login.
type EntryHandlers struct {
	Login    EntryHandler
	Register EntryHandler
}

// AccountHandlers are the actions offered to an authenticated account.
type AccountHandlers struct {
	Balance      AccountHandler
	Deposit      AccountHandler
	Withdraw     AccountHandler
	ChangePIN    AccountHandler
	Transactions AccountHandler
}

// Menu drives the interactive session.
type Menu struct {
	prompter *Prompter
	sessions SessionValidator
	entry    EntryHandlers
	account  AccountHandlers
}

// NewMenu creates a Menu.
func NewMenu(p *Prompter, sessions SessionValidator, entry EntryHandlers, account AccountHandlers) *Menu {
	return &Menu{
		prompter: p,
		sessions: sessions,
		entry:    entry,
		account:  account,
	}
}

// Run shows the entry menu until the user exits, input ends or ctx is
// cancelled. All three end the session normally and return nil.
func (m *Menu) Run(ctx context.Context) error {
	p := m.prompter
	p.Println("Welcome to Mini ATM Simulator")

	for {
		p.Println()
		p.Println("1. Login")
		p.Println("2. Create new account")

		choice, err := p.ReadLine(ctx, "Choose option: ")
		if err != nil {
			return stop(err)
		}

		switch choice {
		case "1":
			var token string
			err := m.call(ctx, "login", func(ctx context.Context) error {
				var err error
				token, err = m.entry.Login(ctx, p)
				return err
			})
			if err != nil {
				if isInputClosed(err) {
					return stop(err)
				}
				p.Println(errorMessage(err))
				continue
			}

			err = m.session(ctx, token)
			switch {
			case err == nil:
				p.Println("Thank you!")
				return nil
			case errors.Is(err, ErrSessionExpired):
				p.Println(errorMessage(err))
			default:
				return stop(err)
			}
		case "2":
			err := m.call(ctx, "create_account", func(ctx context.Context) error {
				_, err := m.entry.Register(ctx, p)
				return err
			})
			if err != nil {
				if isInputClosed(err) {
					return stop(err)
				}
				p.Println(errorMessage(err))
			}
		default:
			p.Println("Invalid option")
		}
	}
}

// session runs the account menu. It returns nil on Exit and
// ErrSessionExpired once the token no longer validates.
func (m *Menu) session(ctx context.Context, token string) error {
	p := m.prompter

	for {
		p.Println()
		p.Println("1. Check Balance")
		p.Println("2. Deposit")
		p.Println("3. Withdraw")
		p.Println("4. Change PIN")
		p.Println("5. View Transactions")
		p.Println("6. Exit")

		choice, err := p.ReadLine(ctx, "Choose option: ")
		if err != nil {
			return err
		}
		if choice == "6" {
			return nil
		}

		claims, err := m.sessions.GetClaims(ctx, token)
		if err != nil {
			logger.Log.Warnw("session rejected", "error", err)
			return ErrSessionExpired
		}

		name, h := m.action(choice)
		if h == nil {
			p.Println("Invalid option")
			continue
		}

		err = m.call(ctx, name, func(ctx context.Context) error {
			return h(ctx, p, claims.AccountNumber)
		})
		if err != nil {
			if isInputClosed(err) {
				return err
			}
			p.Println(errorMessage(err))
		}
	}
}

func (m *Menu) action(choice string) (string, AccountHandler) {
	switch choice {
	case "1":
		return "balance", m.account.Balance
	case "2":
		return "deposit", m.account.Deposit
	case "3":
		return "withdraw", m.account.Withdraw
	case "4":
		return "change_pin", m.account.ChangePIN
	case "5":
		return "transactions", m.account.Transactions
	}
	return "", nil
}

func (m *Menu) call(ctx context.Context, name string, op middlewares.Operation) error {
	return middlewares.LoggingMiddleware(logger.Log, name)(op)(ctx)
}

// stop turns the end of input into a normal exit.
func stop(err error) error {
	if isInputClosed(err) {
		return nil
	}
	return err
}
