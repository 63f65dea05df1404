package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"aitrade-engine/internal/auth"
	"aitrade-engine/internal/engine"
	"aitrade-engine/internal/permission"
	"aitrade-engine/internal/storage"
	"aitrade-engine/internal/wallet"
)

// Simulate runs one full offline round against an in-memory wallet and
// store, with the win/loss mode pinned instead of fetched. Useful for
// demonstrating the lifecycle without any external services.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if !opts.Mode.Valid() {
		return fmt.Errorf("unknown permission mode %q", opts.Mode)
	}

	userID := a.Config.App.UserID
	mem := wallet.NewMemory()
	mem.Seed(userID, opts.Amount.Mul(decimal.NewFromInt(10)))

	engOpts := a.engineOptions()
	if opts.Fast {
		engOpts.AnalysisDuration = time.Second
		engOpts.RunDuration = 5 * time.Second
		engOpts.TickInterval = 200 * time.Millisecond
	}

	eng := engine.New(engOpts, a.curveConfig(), a.Config.Engine.RandomWinProbability, engine.Deps{
		Wallet:      mem,
		Permissions: permission.Static{Grant: permission.Grant{Mode: opts.Mode}},
		Store:       storage.NewMemoryStore(),
		Auth:        auth.Static{ID: userID},
	}, a.Logger)

	sess, err := eng.Start(ctx, engine.StartRequest{
		Side:       opts.Side,
		Asset:      opts.Asset,
		AmountUSDT: opts.Amount,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "session %s: %s %s for %s USDT (tier %s, target %s)\n",
		sess.ID, sess.Side, sess.Asset,
		sess.AmountUSDT.StringFixed(2), sess.Tier.ID,
		sess.TargetProfitUSDT.StringFixed(2))

	if err := eng.Run(ctx); err != nil {
		return err
	}

	final := eng.Session()
	if final == nil {
		balance, _ := mem.GetBalance(ctx, userID)
		fmt.Fprintf(os.Stdout, "loss auto-settled; wallet balance %s USDT\n", balance.StringFixed(2))
		return nil
	}

	fmt.Fprintf(os.Stdout, "claimable profit %s USDT; claiming\n", final.CurrentProfitUSDT.StringFixed(2))
	if err := eng.Claim(ctx); err != nil {
		return err
	}
	balance, _ := mem.GetBalance(ctx, userID)
	fmt.Fprintf(os.Stdout, "claimed; wallet balance %s USDT\n", balance.StringFixed(2))
	return nil
}
