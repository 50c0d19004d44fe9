// File: cmd/heal.go
package cmd

import (
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/locfix/internal/config"
	"github.com/xkilldash9x/locfix/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newHealCmd creates and configures the `heal` command.
func newHealCmd(build sessionBuilder) *cobra.Command {
	healCmd := &cobra.Command{
		Use:   "heal [locator]",
		Short: "Resolves a single locator against a live page",
		Long: `Heal loads a page and resolves one locator through the healing engine.

If the locator still matches, it is reported as-is. If it is broken and a
golden snapshot exists for it, the engine scores the page's candidates
and prints the verified replacement locator. The resolution is recorded
exactly like a scripted run, so goldens, corpus and model all update.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			url, _ := cmd.Flags().GetString("url")
			asJSON, _ := cmd.Flags().GetBool("json")

			return runHeal(ctx, cfg, logger, build, url, args[0], asJSON, cmd.OutOrStdout())
		},
	}

	healCmd.Flags().String("url", "", "Page to load before resolving the locator.")
	healCmd.Flags().Bool("json", false, "Print the healing event as JSON.")
	_ = healCmd.MarkFlagRequired("url")

	return healCmd
}

// runHeal contains the testable business logic for the heal command.
func runHeal(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	build sessionBuilder,
	url, locator string,
	asJSON bool,
	out io.Writer,
) error {
	sess, cleanup, err := build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	defer cleanup()

	if err := sess.nav.Navigate(ctx, url); err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}

	_, locErr := sess.agent.Locate(ctx, locator)

	events := sess.agent.Events()
	if len(events) == 0 {
		// Locate records an event per call; none means it never got started.
		return fmt.Errorf("resolving %q: %w", locator, locErr)
	}
	event := events[len(events)-1]

	if asJSON {
		data, err := json.MarshalIndent(event, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding event: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return locErr
	}

	switch {
	case locErr != nil:
		fmt.Fprintf(out, "FAILED  %s\n", event.Error)
	case event.Healed:
		fmt.Fprintf(out, "HEALED  %s -> %s  (strategy=%s confidence=%.2f candidates=%d)\n",
			locator, event.HealedLocator, event.Strategy, event.Confidence, event.CandidateCount)
	default:
		fmt.Fprintf(out, "OK      %s still resolves\n", locator)
	}
	return locErr
}
