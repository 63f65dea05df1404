package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Show prints recent settled sessions and notifications for the configured
// user.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	userID := a.Config.App.UserID

	records, err := store.ListHistory(ctx, userID, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no settled sessions")
	} else {
		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "Claimed (UTC)\tSession\tSide\tAsset\tAmount\tProfit")
		for _, rec := range records {
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
				msTime(rec.ClaimedAt).Format(time.RFC3339),
				rec.ID,
				rec.Side,
				rec.Asset,
				formatDecimal(rec.AmountUSDT, 2),
				formatDecimal(rec.ProfitUSDT, 2),
			)
		}
		writer.Flush()
	}

	notes, err := store.ListNotifications(ctx, userID, opts.Limit)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return nil
	}

	fmt.Fprintln(os.Stdout)
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Updated (UTC)\tSession\tStatus\tSide\tAsset\tAmount\tProfit")
	for _, note := range notes {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			msTime(note.UpdatedAt).Format(time.RFC3339),
			note.SessionID,
			note.Status,
			note.Side,
			note.Asset,
			formatDecimal(note.AmountUSDT, 2),
			formatDecimal(note.ProfitUSDT, 2),
		)
	}
	writer.Flush()
	return nil
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
