package wallet

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds marks a rejected balance adjustment; distinct from
// transport faults so settlement can surface it verbatim.
var ErrInsufficientFunds = errors.New("wallet: insufficient funds")

// Service is the external wallet collaborator. The engine reads the balance
// before session start and mutates it exactly once per settled session.
type Service interface {
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	// AdjustBalance applies the signed delta and returns the new balance.
	AdjustBalance(ctx context.Context, userID string, delta decimal.Decimal) (decimal.Decimal, error)
}
