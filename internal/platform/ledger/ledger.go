package ledger

import (
	"context"
	"errors"
	"log/slog"
	"math/bits"
	"sync"
)

// Ledger is the native-value transfer adapter shared by every garden
// service. Current implementation is an in-process account table while
// integration with the external settlement layer is finalized.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]uint64
	logger   *slog.Logger
}

func NewLedger(logger *slog.Logger) *Ledger {
	return &Ledger{
		accounts: make(map[string]uint64),
		logger:   logger,
	}
}

func (l *Ledger) Credit(_ context.Context, account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	sum, carry := bits.Add64(l.accounts[account], amount, 0)
	if carry != 0 {
		if l.logger != nil {
			l.logger.Warn("credit rejected",
				"event", "ledger_credit_rejected",
				"module", "internal/platform/ledger",
				"layer", "platform",
				"account", account,
				"amount", amount,
			)
		}
		return errors.New("credit overflows account balance")
	}
	l.accounts[account] = sum
	if l.logger != nil {
		l.logger.Info("account credited",
			"event", "ledger_credit",
			"module", "internal/platform/ledger",
			"layer", "platform",
			"account", account,
			"amount", amount,
		)
	}
	return nil
}

func (l *Ledger) Debit(_ context.Context, account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.accounts[account]
	if balance < amount {
		if l.logger != nil {
			l.logger.Warn("debit rejected",
				"event", "ledger_debit_rejected",
				"module", "internal/platform/ledger",
				"layer", "platform",
				"account", account,
				"amount", amount,
				"balance", balance,
			)
		}
		return errors.New("insufficient native balance")
	}
	l.accounts[account] = balance - amount
	return nil
}

// Balance reports an account's native balance.
func (l *Ledger) Balance(account string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.accounts[account]
}

// Seed sets an account balance directly. Intended for bootstrap and
// local development.
func (l *Ledger) Seed(account string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[account] = amount
}
