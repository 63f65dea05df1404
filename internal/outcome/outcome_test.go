package outcome

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"aitrade-engine/internal/trade"
)

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(DefaultConfig(), rand.New(rand.NewSource(seed)))
}

func TestTargetWinBounds(t *testing.T) {
	amount := decimal.NewFromInt(1000)
	pct := decimal.NewFromFloat(0.30)
	low := decimal.NewFromInt(291)  // 1000 * 0.30 * 0.97
	high := decimal.NewFromInt(309) // 1000 * 0.30 * 1.03

	for seed := int64(0); seed < 50; seed++ {
		g := newTestGenerator(seed)
		target := g.Target(amount, pct, true)
		if target.LessThan(low) || target.GreaterThan(high) {
			t.Fatalf("seed %d: win target %s outside [%s, %s]", seed, target, low, high)
		}
	}
}

func TestTargetLossBounds(t *testing.T) {
	amount := decimal.NewFromInt(500)
	pct := decimal.NewFromFloat(0.30)
	low := decimal.NewFromInt(-159)  // -500 * 0.30 * 1.06
	high := decimal.NewFromInt(-135) // -500 * 0.30 * 0.90

	for seed := int64(0); seed < 50; seed++ {
		g := newTestGenerator(seed)
		target := g.Target(amount, pct, false)
		if target.LessThan(low) || target.GreaterThan(high) {
			t.Fatalf("seed %d: loss target %s outside [%s, %s]", seed, target, low, high)
		}
		if !target.IsNegative() {
			t.Fatalf("seed %d: loss target %s must be negative", seed, target)
		}
	}
}

func TestProfitAtNeverContradictsOutcome(t *testing.T) {
	g := newTestGenerator(7)
	amount := decimal.NewFromInt(1000)
	winTarget := decimal.NewFromInt(300)
	lossTarget := decimal.NewFromInt(-150)

	for i := 0; i <= 100; i++ {
		progress := float64(i) / 100
		if p := g.ProfitAt(winTarget, amount, true, progress); p.IsNegative() {
			t.Fatalf("winning session showed negative profit %s at progress %.2f", p, progress)
		}
		if p := g.ProfitAt(lossTarget, amount, false, progress); p.IsPositive() {
			t.Fatalf("losing session showed positive profit %s at progress %.2f", p, progress)
		}
	}
}

func TestProfitAtSnapsToTarget(t *testing.T) {
	g := newTestGenerator(7)
	amount := decimal.NewFromInt(1000)
	target := decimal.NewFromFloat(297.43)

	for _, progress := range []float64{1, 1.01, 2.5} {
		if p := g.ProfitAt(target, amount, true, progress); !p.Equal(target) {
			t.Fatalf("progress %.2f: want exact target %s, got %s", progress, target, p)
		}
	}
}

func TestPriceAtDirection(t *testing.T) {
	base := 64250.0
	start := decimal.NewFromFloat(base)

	// Average the endpoint over many seeds so noise cannot flip the check.
	avgEnd := func(win bool, side trade.Side) decimal.Decimal {
		sum := decimal.Zero
		for seed := int64(0); seed < 40; seed++ {
			g := newTestGenerator(seed)
			sum = sum.Add(g.PriceAt(base, win, side, 1))
		}
		return sum.Div(decimal.NewFromInt(40))
	}

	if end := avgEnd(true, trade.SideBuy); !end.GreaterThan(start) {
		t.Fatalf("winning BUY should trend up: start %s, end %s", start, end)
	}
	if end := avgEnd(false, trade.SideBuy); !end.LessThan(start) {
		t.Fatalf("losing BUY should trend down: start %s, end %s", start, end)
	}
	if end := avgEnd(true, trade.SideSell); !end.LessThan(start) {
		t.Fatalf("winning SELL should trend down: start %s, end %s", start, end)
	}
	if end := avgEnd(false, trade.SideSell); !end.GreaterThan(start) {
		t.Fatalf("losing SELL should trend up: start %s, end %s", start, end)
	}
}

func TestUniformDegenerateRange(t *testing.T) {
	g := newTestGenerator(1)
	if got := g.uniform(2, 2); got != 2 {
		t.Fatalf("degenerate range should return low, got %f", got)
	}
}
