package outcome

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"aitrade-engine/internal/trade"
)

// Config holds the curve tuning constants. The exact values are cosmetic
// (bounded noise, rare-win spreads) and therefore configurable; defaults
// match the production tuning.
type Config struct {
	WinSpreadLow   float64 // multiplier on payout pct for winning sessions
	WinSpreadHigh  float64
	LossSpreadLow  float64 // multiplier on payout pct for losing sessions
	LossSpreadHigh float64

	WaveCycles     float64 // full sine cycles across the run window
	WaveAmplitude  float64 // fraction of stake
	NoiseAmplitude float64 // fraction of stake

	PriceDrift float64 // fractional price move across the run window
	PriceWave  float64
	PriceNoise float64
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		WinSpreadLow:   0.97,
		WinSpreadHigh:  1.03,
		LossSpreadLow:  0.90,
		LossSpreadHigh: 1.06,
		WaveCycles:     6,
		WaveAmplitude:  0.0022,
		NoiseAmplitude: 0.0012,
		PriceDrift:     0.004,
		PriceWave:      0.0015,
		PriceNoise:     0.0008,
	}
}

// Generator produces the fixed outcome target and the tick-by-tick profit
// and price series. All randomness comes from the injected source so tests
// can seed it.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// NewGenerator constructs a Generator.
func NewGenerator(cfg Config, rng *rand.Rand) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

// Target computes the signed profit the curve must reach by session end.
// Wins land near the advertised tier percentage; losses are always negative
// with a slightly wider spread so they do not look mechanical.
func (g *Generator) Target(amount, payoutPct decimal.Decimal, win bool) decimal.Decimal {
	var mult float64
	if win {
		mult = g.uniform(g.cfg.WinSpreadLow, g.cfg.WinSpreadHigh)
	} else {
		mult = -g.uniform(g.cfg.LossSpreadLow, g.cfg.LossSpreadHigh)
	}
	return amount.Mul(payoutPct).Mul(decimal.NewFromFloat(mult)).Round(2)
}

// ProfitAt is the per-tick profit value for the given progress in [0,1].
// The shown sign never contradicts the fixed outcome: winning sessions are
// floored at zero, losing sessions capped at zero. At progress >= 1 the
// stored target is returned exactly; the noisy path is never authoritative.
func (g *Generator) ProfitAt(target, amount decimal.Decimal, win bool, progress float64) decimal.Decimal {
	if progress >= 1 {
		return target
	}
	if progress < 0 {
		progress = 0
	}

	amt, _ := amount.Float64()
	tgt, _ := target.Float64()

	drift := tgt * progress
	wave := math.Sin(progress*2*math.Pi*g.cfg.WaveCycles) * amt * g.cfg.WaveAmplitude
	noise := g.uniform(-0.5, 0.5) * amt * g.cfg.NoiseAmplitude

	raw := drift + wave + noise
	if win {
		raw = math.Max(0, raw)
	} else {
		raw = math.Min(0, raw)
	}
	return decimal.NewFromFloat(raw).Round(2)
}

// PriceAt is the cosmetic price series sample for the chart. Direction is
// biased by the outcome and the order side: a winning BUY (or losing SELL)
// trends up, the mirror cases trend down. Never used for settlement math.
func (g *Generator) PriceAt(base float64, win bool, side trade.Side, progress float64) decimal.Decimal {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	dir := -1.0
	if win == (side == trade.SideBuy) {
		dir = 1.0
	}

	drift := dir * g.cfg.PriceDrift * progress
	wave := math.Sin(progress*2*math.Pi*(g.cfg.WaveCycles+2)) * g.cfg.PriceWave
	noise := g.uniform(-0.5, 0.5) * g.cfg.PriceNoise

	return decimal.NewFromFloat(base * (1 + drift + wave + noise)).Round(4)
}

func (g *Generator) uniform(low, high float64) float64 {
	if high <= low {
		return low
	}
	return low + g.rng.Float64()*(high-low)
}
