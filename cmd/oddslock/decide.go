package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oddslock/oddslock/internal/domain"
)

// newDecideCmd runs the decision pipeline for one game from a JSON
// request file and prints the certified bundle. Useful offline: no
// upstream collaborator required.
func newDecideCmd() *cobra.Command {
	var inputPath string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Run the decision pipeline for one game",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			raw, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read request file: %w", err)
			}
			var req domain.DecisionRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("invalid request file: %w", err)
			}

			result, err := rt.engine.Decide(cmd.Context(), req)
			if err != nil {
				return err
			}

			for _, d := range result.Game.Decisions {
				log.Info().
					Str("market", string(d.MarketType)).
					Str("classification", string(d.Classification)).
					Str("release_status", string(d.ReleaseStatus)).
					Msg("decision")
			}

			enc := json.NewEncoder(os.Stdout)
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to a DecisionRequest JSON file")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
