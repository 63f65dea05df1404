package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"aitrade-engine/internal/app"
	"aitrade-engine/internal/permission"
	"aitrade-engine/internal/trade"
)

var (
	simSide   string
	simAsset  string
	simAmount string
	simMode   string
	simFast   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one offline round with a pinned win/loss mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(simAmount)
		if err != nil {
			return fmt.Errorf("parse --amount: %w", err)
		}

		opts := app.SimulateOptions{
			Side:   trade.Side(strings.ToUpper(simSide)),
			Asset:  simAsset,
			Amount: amount,
			Mode:   permission.Mode(strings.ToUpper(simMode)),
			Fast:   simFast,
		}

		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simSide, "side", "BUY", "Order side (BUY or SELL)")
	simulateCmd.Flags().StringVar(&simAsset, "asset", "BTC/USDT", "Asset to trade")
	simulateCmd.Flags().StringVar(&simAmount, "amount", "500", "Stake in USDT")
	simulateCmd.Flags().StringVar(&simMode, "mode", "RANDOM_WIN_LOSS", "Permission mode to pin")
	simulateCmd.Flags().BoolVar(&simFast, "fast", false, "Compress the session timeline")
}
