package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oddslock/oddslock/internal/version"
)

// newVersionCmd manages the operator-controlled decision version. Bumps
// happen here and nowhere else; no automated code path mutates the
// version.
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Manage the decision version",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current decision version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			meta := rt.verman.Metadata()
			fmt.Printf("decision_version: %s\nengine_version: %s\ngit_commit_sha: %s\n",
				meta.DecisionVersion, meta.EngineVersion, meta.GitCommitSHA)
			return nil
		},
	}

	var kind, operator, reason string
	bumpCmd := &cobra.Command{
		Use:   "bump",
		Short: "Bump the decision version (operator action)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			next, err := rt.verman.Bump(cmd.Context(), version.BumpKind(kind), operator, reason)
			if err != nil {
				return err
			}
			fmt.Printf("decision_version bumped to %s\n", next)
			return nil
		},
	}
	addBumpFlags(bumpCmd.Flags(), &kind, &operator, &reason)
	_ = bumpCmd.MarkFlagRequired("kind")
	_ = bumpCmd.MarkFlagRequired("operator")
	_ = bumpCmd.MarkFlagRequired("reason")

	cmd.AddCommand(showCmd, bumpCmd)
	return cmd
}

func addBumpFlags(fs *pflag.FlagSet, kind, operator, reason *string) {
	fs.StringVar(kind, "kind", "", "major, minor, or patch")
	fs.StringVar(operator, "operator", "", "operator id for the audit record")
	fs.StringVar(reason, "reason", "", "change description for the audit record")
}
