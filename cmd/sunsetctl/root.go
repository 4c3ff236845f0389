package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

func newRootCmd(version string) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "sunsetctl",
		Short: "Sunset score tooling",
		Long: `sunsetctl runs the sunset scoring rules without the HTTP service.

Example usage:
  sunsetctl score --weather "cloud_total_pct=40; humidity_pct=55"
  sunsetctl features --weather "cloud_high_pct=30"
  sunsetctl prompt --location Lisbon --weather "cloud_total_pct=40" --seed 7
  sunsetctl synth --location Lisbon --seed 7
  sunsetctl forecast --lat 38.72 --lon -9.14`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log upstream calls to stderr")

	logger := func(cmd *cobra.Command) *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	root.AddCommand(
		newScoreCmd(),
		newFeaturesCmd(),
		newPromptCmd(),
		newSynthCmd(),
		newForecastCmd(logger),
	)
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
