package permission

import (
	"math/rand"
	"testing"

	"aitrade-engine/internal/trade"
)

func TestResolveDeterministicModes(t *testing.T) {
	r := NewResolver(0.28, rand.New(rand.NewSource(1)))

	cases := []struct {
		mode Mode
		side trade.Side
		want bool
	}{
		{ModeBuyAllWin, trade.SideBuy, true},
		{ModeBuyAllWin, trade.SideSell, false},
		{ModeSellAllWin, trade.SideSell, true},
		{ModeSellAllWin, trade.SideBuy, false},
		{ModeAllLoss, trade.SideBuy, false},
		{ModeAllLoss, trade.SideSell, false},
	}

	for _, tc := range cases {
		if got := r.Resolve(tc.mode, tc.side); got != tc.want {
			t.Fatalf("%s/%s: want %v, got %v", tc.mode, tc.side, tc.want, got)
		}
	}
}

func TestResolveRandomWinRate(t *testing.T) {
	r := NewResolver(0.28, rand.New(rand.NewSource(42)))

	const draws = 20000
	wins := 0
	for i := 0; i < draws; i++ {
		if r.Resolve(ModeRandomWinLoss, trade.SideBuy) {
			wins++
		}
	}

	rate := float64(wins) / draws
	if rate < 0.25 || rate > 0.31 {
		t.Fatalf("long-run win rate should converge near 0.28, got %.4f", rate)
	}
}

func TestResolveUnknownModeNeverWins(t *testing.T) {
	r := NewResolver(1, rand.New(rand.NewSource(1)))
	if r.Resolve(Mode("BOGUS"), trade.SideBuy) {
		t.Fatal("unknown mode must resolve to a loss")
	}
}

func TestModeValid(t *testing.T) {
	for _, m := range []Mode{ModeBuyAllWin, ModeSellAllWin, ModeRandomWinLoss, ModeAllLoss} {
		if !m.Valid() {
			t.Fatalf("%s should be valid", m)
		}
	}
	if Mode("WIN_ALL").Valid() {
		t.Fatal("WIN_ALL is not a known mode")
	}
}
