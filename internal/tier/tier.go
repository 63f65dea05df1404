package tier

import (
	"github.com/shopspring/decimal"
)

// Tier is one amount bracket with its payout ceiling. PayoutPct is a
// fraction of the staked amount (0.30 = 30%).
type Tier struct {
	ID        string          `json:"id"`
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"` // zero means unbounded
	PayoutPct decimal.Decimal `json:"payout_pct"`
}

// table is ordered by ascending Min. Brackets are half-open: an amount
// belongs to the first tier with Min <= amount < Max.
var table = []Tier{
	{ID: "q1", Min: decimal.NewFromInt(300), Max: decimal.NewFromInt(30_000), PayoutPct: decimal.NewFromFloat(0.30)},
	{ID: "q2", Min: decimal.NewFromInt(30_000), Max: decimal.NewFromInt(100_000), PayoutPct: decimal.NewFromFloat(0.50)},
	{ID: "q3", Min: decimal.NewFromInt(100_000), Max: decimal.NewFromInt(300_000), PayoutPct: decimal.NewFromFloat(0.70)},
	{ID: "q4", Min: decimal.NewFromInt(300_000), Max: decimal.Decimal{}, PayoutPct: decimal.NewFromFloat(1.00)},
}

// List returns a copy of the tier table.
func List() []Tier {
	out := make([]Tier, len(table))
	copy(out, table)
	return out
}

// ByID looks up a tier by identifier.
func ByID(id string) (Tier, bool) {
	for _, t := range table {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// ForAmount returns the tier whose bracket contains amount.
func ForAmount(amount decimal.Decimal) (Tier, bool) {
	for _, t := range table {
		if t.Contains(amount) {
			return t, true
		}
	}
	return Tier{}, false
}

// Contains reports whether amount falls inside the bracket.
func (t Tier) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(t.Min) {
		return false
	}
	if t.Unbounded() {
		return true
	}
	return amount.LessThan(t.Max)
}

// Unbounded reports whether the bracket has no upper edge.
func (t Tier) Unbounded() bool {
	return t.Max.IsZero()
}
