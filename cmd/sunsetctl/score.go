package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/sunsettings/internal/domain"
)

type scoreOutput struct {
	Probability int    `json:"probability"`
	Description string `json:"description"`
	domain.Outcome
}

func newScoreCmd() *cobra.Command {
	var (
		weather    string
		seed       int64
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a weather-feature string with the rule evaluator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if weather == "" {
				weather = domain.PlaceholderSummary()
			}
			f := domain.ParseFeatures(weather)
			o := domain.Score(f)
			desc := domain.Describe(f, o, o.Score, seed)

			w := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(w, scoreOutput{Probability: o.Score, Description: desc, Outcome: o})
			}
			fmt.Fprintf(w, "probability: %d\n", o.Score)
			fmt.Fprintf(w, "description: %s\n", desc)
			fmt.Fprintf(w, "base:        %g (cloud %g%%)\n", o.Base, o.CloudPct)
			for _, a := range o.Adjustments {
				if a.Cap != 0 {
					fmt.Fprintf(w, "  %-20s %+g (cap %g)\n", a.Driver, a.Delta, a.Cap)
					continue
				}
				fmt.Fprintf(w, "  %-20s %+g\n", a.Driver, a.Delta)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&weather, "weather", "", "weather-feature string (blank scores the all-NA placeholder)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for description wording")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON including the rule trace")
	return cmd
}

func newFeaturesCmd() *cobra.Command {
	var weather string
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Parse a weather-feature string and print it in canonical form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := domain.ParseFeatures(weather)
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, f.String())
			if f.CloudInferred {
				fmt.Fprintf(w, "cloud cover inferred as %g%%\n", *f.CloudTotalPct)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&weather, "weather", "", "weather-feature string")
	return cmd
}
