package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/sunsettings/internal/domain"
)

// requestFlags are shared by commands that take a full score request.
type requestFlags struct {
	location string
	weather  string
	seed     int64
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.location, "location", "", "location label (required)")
	cmd.Flags().StringVar(&f.weather, "weather", "", "weather-feature string")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "request seed")
}

// request normalizes the flags the same way the service does.
func (f *requestFlags) request() (domain.ScoreRequest, error) {
	seed := f.seed
	return domain.ScoreRequest{
		Location:       f.location,
		WeatherSummary: f.weather,
		Seed:           &seed,
	}.Normalize(0, nil)
}

func newPromptCmd() *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the system and user prompt sent to the generative backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			p := domain.BuildPrompt(req.Location, req.WeatherSummary, req.SeedValue())
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "--- system ---\n%s\n--- user ---\n%s\n", p.System, p.User)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newSynthCmd() *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Print the seeded synthetic score used when no backend is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			p := domain.SyntheticScore(req.Location, req.WeatherSummary, req.SeedValue())
			fmt.Fprintf(cmd.OutOrStdout(), "probability: %d\n", p)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
