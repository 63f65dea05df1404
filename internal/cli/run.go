package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"aitrade-engine/internal/app"
	"aitrade-engine/internal/trade"
)

var (
	runSide   string
	runAsset  string
	runAmount string
	runClaim  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resume a persisted session or start a new round",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(runAmount)
		if err != nil {
			return fmt.Errorf("parse --amount: %w", err)
		}

		opts := app.RunOptions{
			Side:      trade.Side(strings.ToUpper(runSide)),
			Asset:     runAsset,
			Amount:    amount,
			AutoClaim: runClaim,
		}

		return getApp().Run(cmd.Context(), opts)
	},
}

func init() {
	runCmd.Flags().StringVar(&runSide, "side", "BUY", "Order side (BUY or SELL)")
	runCmd.Flags().StringVar(&runAsset, "asset", "BTC/USDT", "Asset to trade")
	runCmd.Flags().StringVar(&runAmount, "amount", "500", "Stake in USDT")
	runCmd.Flags().BoolVar(&runClaim, "claim", false, "Claim a profitable session automatically")
}
