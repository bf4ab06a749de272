package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/litmap/internal/config"
	"github.com/matsen/litmap/internal/overlap"
	"github.com/matsen/litmap/internal/storage"
)

var (
	groupsCatalog  string
	groupsIdentity string
)

func init() {
	groupsCmd.Flags().StringVar(&groupsCatalog, "catalog", "", "Compute from a catalog JSONL file instead of the project's RIS exports")
	groupsCmd.Flags().StringVar(&groupsIdentity, "identity", "", "Cross-query identity: id or work (default: from litmap.yml, or id with --catalog)")
	rootCmd.AddCommand(groupsCmd)
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Compute within-query, cross-query and aggregate groups",
	Long: `Compute the groups of the current project and print them.

Within each query, papers are grouped by their exact set of branch terms;
papers without branch terms are listed as uncategorized. Every pair of
queries is intersected term by term. Curated lists become aggregates.

Examples:
  litmap groups
  litmap groups --human
  litmap groups --catalog papers.jsonl --identity work`,
	Args: cobra.NoArgs,
	RunE: runGroups,
}

func runGroups(cmd *cobra.Command, args []string) error {
	if err := validateIdentity(groupsIdentity); err != nil {
		return err
	}

	var res *overlap.Result
	if groupsCatalog != "" {
		papers, err := storage.ReadAll(groupsCatalog)
		if err != nil {
			return err
		}
		res, err = overlap.Compute(overlap.Input{Papers: papers}, identityOptions(groupsIdentity)...)
		if err != nil {
			return fmt.Errorf("computing groups: %w", err)
		}
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if groupsIdentity != "" {
			cfg.CrossQueryIdentity = groupsIdentity
		}
		snap, err := buildSnapshot(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		res = snap.Result
	}

	if humanOutput {
		printGroupsHuman(res)
		return nil
	}
	return outputJSON(res)
}

func validateIdentity(identity string) error {
	switch identity {
	case "", config.IdentityID, config.IdentityWork:
		return nil
	default:
		return fmt.Errorf("invalid identity %q: must be %s or %s", identity, config.IdentityID, config.IdentityWork)
	}
}

func identityOptions(identity string) []overlap.Option {
	if identity == config.IdentityWork {
		return []overlap.Option{overlap.WithWorkIdentity()}
	}
	return nil
}

func printGroupsHuman(res *overlap.Result) {
	groups := res.Groups()
	if len(groups) == 0 {
		outputHuman("No groups\n")
	}
	last := ""
	for _, g := range groups {
		scope := g.GroupScope().String()
		if scope != last {
			outputHuman("\n%s\n", scope)
			last = scope
		}
		outputHuman("  %4d  %s\n", g.Size(), truncateString(g.GroupLabel(), GroupLabelMaxLen))
	}
	for _, w := range res.Warnings {
		outputHuman("\nwarning: %s\n", w.Message)
	}
}
