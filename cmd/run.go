// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/locfix/api/schemas"
	"github.com/xkilldash9x/locfix/internal/config"
	"github.com/xkilldash9x/locfix/internal/observability"
	"github.com/xkilldash9x/locfix/internal/reporting"
	"github.com/xkilldash9x/locfix/internal/script"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd(build sessionBuilder) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [scripts...]",
		Short: "Replays scripted UI tests, healing broken locators along the way",
		Long: `Run replays one or more script files against a live browser session.

Each click, fill and assert step resolves its locator through the healing
engine: locators that still match are used as-is, broken ones are healed
from their golden snapshots. Healing events are collected per script and
written to the run report.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			// Command-line flags override the config file and environment.
			if cmd.Flags().Changed("output") {
				cfg.Report.Path, _ = cmd.Flags().GetString("output")
			}
			if cmd.Flags().Changed("format") {
				cfg.Report.Format, _ = cmd.Flags().GetString("format")
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			fixturesDir, _ := cmd.Flags().GetString("fixtures")

			return runScripts(ctx, cfg, logger, build, args, fixturesDir, cmd.OutOrStdout())
		},
	}

	runCmd.Flags().StringP("output", "o", "", "Report file path. If unset, no report is generated. (Overrides config/env)")
	runCmd.Flags().StringP("format", "f", "", "Report format, 'junit' or 'json'. (Overrides config/env)")
	runCmd.Flags().String("fixtures", "", "Directory to serve over local HTTP; relative script URLs resolve against it.")

	return runCmd
}

// runScripts contains the testable business logic for the run command. It
// replays every script through one shared session, so goldens captured by
// an early script heal locators in a later one.
func runScripts(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	build sessionBuilder,
	paths []string,
	fixturesDir string,
	out io.Writer,
) error {
	sess, cleanup, err := build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	defer cleanup()

	nav := sess.nav
	if fixturesDir != "" {
		base, stopFixtures, err := serveFixtures(ctx, fixturesDir, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := stopFixtures(); err != nil {
				logger.Warn("Fixtures server shutdown failed", zap.Error(err))
			}
		}()
		nav = &baseNavigator{base: base, next: sess.nav}
	}

	runner := script.NewRunner(sess.agent, nav, logger)

	var results []*schemas.RunResult
	failures := 0
	for _, path := range paths {
		s, err := script.Load(path)
		if err != nil {
			return err
		}

		result, err := runner.Run(ctx, s)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Warn("Run aborted", zap.String("script", s.Name))
				return fmt.Errorf("run aborted by user signal")
			}
			return fmt.Errorf("running %s: %w", path, err)
		}
		results = append(results, result)
		failures += result.Failures()

		status := "PASS"
		if result.Failures() > 0 {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%s  %s  steps=%d healed=%d took=%s\n",
			status, result.Script, len(result.Steps), result.HealedCount(),
			result.Duration.Round(time.Millisecond))
	}

	if cfg.Report.Path != "" {
		if err := writeReport(cfg.Report, results, logger); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nReport written to %s\n", cfg.Report.Path)
	}

	if failures > 0 {
		return fmt.Errorf("%d step(s) failed across %d script(s)", failures, len(paths))
	}
	return nil
}

// writeReport renders every run result through the configured reporter.
func writeReport(cfg config.ReportConfig, results []*schemas.RunResult, logger *zap.Logger) error {
	rep, err := reporting.New(cfg.Format, cfg.Path)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := rep.Write(r); err != nil {
			rep.Close()
			return fmt.Errorf("writing report: %w", err)
		}
	}
	if err := rep.Close(); err != nil {
		return fmt.Errorf("finalizing report: %w", err)
	}
	logger.Info("Report generated",
		zap.String("path", cfg.Path),
		zap.String("format", cfg.Format))
	return nil
}

// baseNavigator resolves relative script URLs against a base URL before
// delegating to the underlying navigator. Absolute URLs pass through.
type baseNavigator struct {
	base string
	next script.Navigator
}

func (b *baseNavigator) Navigate(ctx context.Context, url string) error {
	if !strings.Contains(url, "://") {
		url = b.base + "/" + strings.TrimPrefix(url, "/")
	}
	return b.next.Navigate(ctx, url)
}

// serveFixtures serves dir over a loopback HTTP listener so scripts can
// navigate to local pages. It returns the base URL and a stop function
// that blocks until the server has shut down.
func serveFixtures(ctx context.Context, dir string, logger *zap.Logger) (string, func() error, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("starting fixtures listener: %w", err)
	}
	srv := &http.Server{Handler: http.FileServer(http.Dir(dir))}

	srvCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(srvCtx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	})

	base := "http://" + ln.Addr().String()
	logger.Info("Serving fixtures",
		zap.String("dir", dir),
		zap.String("url", base))

	stop := func() error {
		cancel()
		return g.Wait()
	}
	return base, stop, nil
}
