// File: cmd/root.go

// Package cmd wires the locfix command line: replaying recorded UI test
// scripts with self-healing locators, resolving single locators against
// live pages, and inspecting the persisted golden references.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/locfix/internal/config"
	"github.com/xkilldash9x/locfix/internal/observability"
)

// contextKey scopes the values this package stores on command contexts.
type contextKey string

// configKey carries the validated *config.Config to subcommands.
const configKey contextKey = "config"

var (
	cfgFile string
	// osExit is swapped out by tests.
	osExit = os.Exit
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

// newRootCmd builds the root command and attaches every subcommand.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locfix",
		Short: "Locfix keeps UI test locators working after the page changes.",
		Long: `Locfix resolves broken element locators for automated UI test suites.

The first time a locator is used, locfix captures a golden snapshot of the
element it matched. When a later run finds the locator broken, it scores
every element sharing the golden's tag, picks the most plausible
replacement, synthesizes a fresh locator for it, verifies that locator
against the live page and hands it back, so suites survive frontend
refactors without manual locator maintenance.`,
		// Version is dynamically set at build time. See cmd/version.go.
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Runs before any command, setting up config and logging.
			v := viper.New()
			config.SetDefaults(v)
			if err := initializeConfig(v); err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				// Initialize a fallback logger so the failure is visible.
				observability.InitializeLogger(config.LoggingConfig{Level: "info", Format: "console"})
				return fmt.Errorf("failed to load config: %w", err)
			}

			observability.InitializeLogger(cfg.Logging)
			observability.GetLogger().Debug("Starting locfix", zap.String("version", Version))

			// Store the validated config on the context for subcommands.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml or ~/.locfix/config.yaml)")
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd.AddCommand(newRunCmd(newChromeSession))
	cmd.AddCommand(newHealCmd(newChromeSession))
	cmd.AddCommand(newGoldensCmd())
	cmd.AddCommand(newStatusCmd())
	return cmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Interrupts cancel the command context so in-flight
// browser work shuts down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Use the logger if available, otherwise fall back to stderr.
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		observability.Sync()
		osExit(1)
	}
	observability.Sync()
}

// initializeConfig reads in the config file and ENV variables if set.
func initializeConfig(v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".locfix"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("LOCFIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}
	return nil
}

// getConfigFromContext returns the configuration PersistentPreRunE stored
// on the command context.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration missing from command context")
	}
	return cfg, nil
}
