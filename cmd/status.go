// File: cmd/status.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/locfix/internal/observability"
	"github.com/xkilldash9x/locfix/internal/ranker"
	"github.com/xkilldash9x/locfix/internal/store"
)

// newStatusCmd creates the `status` command, a quick look at the
// persisted healing state.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Shows the state of the golden table, training corpus and ranker model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			out := cmd.OutOrStdout()

			table, err := store.NewFileGoldenStore(cfg.State.GoldensPath(), logger).Load()
			if err != nil {
				return err
			}
			corpus, err := store.NewFileCorpusStore(cfg.State.CorpusPath(), logger).Load()
			if err != nil {
				return err
			}
			blob, err := store.NewFileModelStore(cfg.State.ModelPath(), logger).Load()
			if err != nil {
				return err
			}

			goldens := 0
			for _, page := range table {
				goldens += len(page)
			}

			fmt.Fprintf(out, "State dir:  %s\n", cfg.State.Dir)
			fmt.Fprintf(out, "Goldens:    %d snapshot(s) across %d page(s)\n", goldens, len(table))
			fmt.Fprintf(out, "Corpus:     %d sample(s) (model activates at %d)\n",
				corpus.Len(), cfg.Healing.MinTrainingSamples)

			switch {
			case len(blob) == 0:
				fmt.Fprintln(out, "Model:      none; candidates rank heuristically")
			default:
				if _, err := ranker.DecodeModel(blob); err != nil {
					fmt.Fprintf(out, "Model:      unreadable (%v); candidates rank heuristically\n", err)
				} else {
					fmt.Fprintf(out, "Model:      trained, %d byte(s)\n", len(blob))
				}
			}
			return nil
		},
	}
}
