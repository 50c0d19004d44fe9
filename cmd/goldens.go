// File: cmd/goldens.go
package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/locfix/internal/observability"
	"github.com/xkilldash9x/locfix/internal/store"
)

// newGoldensCmd groups the golden table inspection subcommands.
func newGoldensCmd() *cobra.Command {
	goldensCmd := &cobra.Command{
		Use:   "goldens",
		Short: "Inspects the persisted golden snapshots",
	}
	goldensCmd.AddCommand(newGoldensListCmd())
	goldensCmd.AddCommand(newGoldensShowCmd())
	return goldensCmd
}

// newGoldensListCmd creates the `goldens list` command.
func newGoldensListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lists golden identifiers grouped by page key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			pageFilter, _ := cmd.Flags().GetString("page")

			table, err := store.NewFileGoldenStore(cfg.State.GoldensPath(), observability.GetLogger()).Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			pageKeys := make([]string, 0, len(table))
			for pageKey := range table {
				if pageFilter != "" && pageKey != pageFilter {
					continue
				}
				pageKeys = append(pageKeys, pageKey)
			}
			if len(pageKeys) == 0 {
				if pageFilter != "" {
					return fmt.Errorf("no goldens captured for page %q", pageFilter)
				}
				fmt.Fprintln(out, "No goldens captured yet.")
				return nil
			}
			sort.Strings(pageKeys)

			for _, pageKey := range pageKeys {
				page := table[pageKey]
				ids := make([]string, 0, len(page))
				for id := range page {
					ids = append(ids, id)
				}
				sort.Strings(ids)

				fmt.Fprintf(out, "%s  (%d golden(s))\n", pageKey, len(ids))
				for _, id := range ids {
					fmt.Fprintf(out, "  %s  <%s>\n", id, page[id].Tag)
				}
			}
			return nil
		},
	}
	listCmd.Flags().String("page", "", "Only list goldens captured under this page key.")
	return listCmd
}

// newGoldensShowCmd creates the `goldens show` command.
func newGoldensShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [page-key] [golden-id]",
		Short: "Prints one golden snapshot as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}

			table, err := store.NewFileGoldenStore(cfg.State.GoldensPath(), observability.GetLogger()).Load()
			if err != nil {
				return err
			}

			snap, ok := table.Get(args[0], args[1])
			if !ok {
				return fmt.Errorf("no golden %q under page %q", args[1], args[0])
			}
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding snapshot: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
