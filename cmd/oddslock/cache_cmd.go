package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oddslock/oddslock/internal/domain"
	"github.com/oddslock/oddslock/internal/replay"
)

// newCacheCmd exposes replay cache operations: determinism verification
// against stored records, and the confirmation-gated clear.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the replay cache",
	}
	cmd.AddCommand(newCacheVerifyCmd(), newCacheClearCmd())
	return cmd
}

func newCacheVerifyCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a decision bundle against its replay records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			raw, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read bundle file: %w", err)
			}
			var game domain.GameDecisions
			if err := json.Unmarshal(raw, &game); err != nil {
				return fmt.Errorf("invalid bundle file: %w", err)
			}

			failed := 0
			for _, d := range game.Decisions {
				key := replay.Key(d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion)
				ok, diffs := rt.cache.VerifyDeterminism(cmd.Context(), key, d, nil)
				if ok {
					fmt.Printf("PASS %s %s\n", d.MarketType, key[:12])
					continue
				}
				failed++
				fmt.Printf("FAIL %s %s\n", d.MarketType, key[:12])
				for _, diff := range diffs {
					fmt.Printf("  %s\n", diff)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d markets failed determinism verification", failed, len(game.Decisions))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to a GameDecisions JSON file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every replay record (test/ops use only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			if !yes {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("refusing to clear non-interactively without --yes")
				}
				fmt.Print("Replay records are retained indefinitely for audit. Clear everything? [y/N] ")
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				if strings.ToLower(strings.TrimSpace(line)) != "y" {
					fmt.Println("aborted")
					return nil
				}
			}

			if err := rt.cache.Clear(cmd.Context(), true); err != nil {
				return err
			}
			fmt.Println("replay cache cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
