package wallet

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Memory is an in-process wallet used by the simulate command and tests.
type Memory struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
}

// NewMemory constructs an empty in-process wallet.
func NewMemory() *Memory {
	return &Memory{balances: make(map[string]decimal.Decimal)}
}

// Seed sets a user's starting balance.
func (m *Memory) Seed(userID string, balance decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = balance
}

// GetBalance returns the user's balance; unknown users hold zero.
func (m *Memory) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID], nil
}

// AdjustBalance applies delta, refusing adjustments that would go negative.
func (m *Memory) AdjustBalance(ctx context.Context, userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.balances[userID].Add(delta)
	if next.IsNegative() {
		return decimal.Decimal{}, ErrInsufficientFunds
	}
	m.balances[userID] = next
	return next, nil
}

var _ Service = (*Memory)(nil)
