package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"aitrade-engine/internal/trade"
)

// Export renders a settled session's profit curve as CSV and/or PNG. With
// no session id, the most recently settled session is exported.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	userID := a.Config.App.UserID

	var rec trade.HistoryRecord
	if opts.SessionID != "" {
		found := false
		rec, found, err = store.GetHistory(ctx, userID, opts.SessionID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no settled session %s", opts.SessionID)
		}
	} else {
		records, err := store.ListHistory(ctx, userID, 1)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return errors.New("no settled sessions to export")
		}
		rec = records[0]
	}

	if len(rec.ProfitPoints) == 0 {
		return fmt.Errorf("session %s has no stored curve", rec.ID)
	}

	points := downsamplePoints(rec.ProfitPoints, opts.MaxPoints)
	a.Logger.Info().Str("session", rec.ID).Int("points", len(points)).Msg("exporting session curve")

	if opts.CSVPath != "" {
		if err := writeCurveCSV(opts.CSVPath, rec, points); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeCurvePNG(opts.PNGPath, rec, points); err != nil {
			return err
		}
	}
	return nil
}

func downsamplePoints(points []trade.Point, max int) []trade.Point {
	if max <= 0 || len(points) <= max {
		return points
	}

	result := make([]trade.Point, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func writeCurveCSV(path string, rec trade.HistoryRecord, points []trade.Point) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"at", "profit_usdt", "session_id", "side", "asset", "amount_usdt"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, p := range points {
		record := []string{
			msTime(p.At).Format(time.RFC3339),
			p.Value.String(),
			rec.ID,
			string(rec.Side),
			rec.Asset,
			rec.AmountUSDT.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeCurvePNG(path string, rec trade.HistoryRecord, points []trade.Point) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	profit := make([]float64, len(points))
	for i, p := range points {
		x[i] = msTime(p.At)
		profit[i] = p.Value.InexactFloat64()
	}

	profitFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s %s %s USDT", rec.Asset, rec.Side, rec.AmountUSDT.StringFixed(2)),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Profit (USDT)",
			ValueFormatter: profitFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Profit",
				XValues: x,
				YValues: profit,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
