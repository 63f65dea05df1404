package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"aitrade-engine/internal/app"
)

var (
	exportSession   string
	exportCSVPath   string
	exportPNGPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a settled session's profit curve as CSV and/or PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportCSVPath == "" && exportPNGPath == "" {
			return errors.New("provide --csv and/or --png")
		}

		opts := app.ExportOptions{
			SessionID: exportSession,
			CSVPath:   exportCSVPath,
			PNGPath:   exportPNGPath,
			MaxPoints: exportMaxPoints,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSession, "session", "", "Session id (defaults to most recent)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "CSV output path")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "PNG output path")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Downsample to at most this many points")
}
