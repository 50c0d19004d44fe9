// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/locfix/internal/agent"
	"github.com/xkilldash9x/locfix/internal/browser/htmlpage"
	"github.com/xkilldash9x/locfix/internal/config"
	"github.com/xkilldash9x/locfix/internal/observability"
	"github.com/xkilldash9x/locfix/internal/ranker"
	"github.com/xkilldash9x/locfix/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// resetForTest provides the single source of truth for resetting test
// state: package-level variables, the global logger and the command tree.
func resetForTest(t *testing.T) {
	t.Helper()

	cfgFile = ""
	osExit = os.Exit

	// Silence the global logger; assertions never read log output here.
	observability.ResetForTest()
	observability.Initialize(
		config.LoggingConfig{Level: "fatal", Format: "console"},
		zapcore.AddSync(io.Discard),
	)

	// Re-initialize the root command to prevent state leakage within Cobra.
	rootCmd = newRootCmd()

	t.Cleanup(func() {
		cfgFile = ""
		observability.ResetForTest()
	})
}

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeTestConfig writes a config file whose state lives inside the
// test's temp dir, and returns the config path and the state dir. Tests
// always pass an explicit --config so a config.yaml on the developer's
// machine can never leak in.
func writeTestConfig(t *testing.T) (cfgPath, stateDir string) {
	t.Helper()
	dir := t.TempDir()
	stateDir = filepath.Join(dir, "state")
	cfgPath = filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("state:\n  dir: %s\nlogging:\n  level: fatal\n", stateDir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath, stateDir
}

// writeScript writes a script file into dir and returns its path.
func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newStaticSession returns a sessionBuilder over a static page so command
// logic can be exercised without a browser. The page is returned for
// fixture registration and assertions.
func newStaticSession(t *testing.T, src string) (sessionBuilder, *htmlpage.Page) {
	t.Helper()
	page, err := htmlpage.New(src)
	require.NoError(t, err)

	build := func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*session, func(), error) {
		policy, err := ranker.NewPolicy(&store.MemoryCorpusStore{}, &store.MemoryModelStore{}, cfg.Healing, logger)
		if err != nil {
			return nil, nil, err
		}
		ag, err := agent.New(page, &store.MemoryGoldenStore{}, policy, cfg.Healing, logger)
		if err != nil {
			return nil, nil, err
		}
		return &session{agent: ag, nav: page}, func() {}, nil
	}
	return build, page
}
