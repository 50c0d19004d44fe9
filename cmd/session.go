// File: cmd/session.go
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/locfix/internal/agent"
	"github.com/xkilldash9x/locfix/internal/browser/cdp"
	"github.com/xkilldash9x/locfix/internal/config"
	"github.com/xkilldash9x/locfix/internal/ranker"
	"github.com/xkilldash9x/locfix/internal/script"
	"github.com/xkilldash9x/locfix/internal/store"
)

// session bundles the healing agent with the navigator that moves its
// page between documents. One session drives one page.
type session struct {
	agent *agent.Agent
	nav   script.Navigator
}

// sessionBuilder creates a ready session and a cleanup function. Commands
// receive a builder instead of constructing the browser themselves, so
// tests can drive them against a static page.
type sessionBuilder func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*session, func(), error)

// newChromeSession is the production builder. It wires the file-backed
// stores, the learned ranker and a chromedp-driven browser into an agent.
func newChromeSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*session, func(), error) {
	goldens := store.NewSyncGoldenStore(store.NewFileGoldenStore(cfg.State.GoldensPath(), logger))
	corpusStore := store.NewFileCorpusStore(cfg.State.CorpusPath(), logger)
	modelStore := store.NewFileModelStore(cfg.State.ModelPath(), logger)

	policy, err := ranker.NewPolicy(corpusStore, modelStore, cfg.Healing, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing ranker: %w", err)
	}

	driver, err := cdp.New(ctx, cfg.Browser, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("starting browser: %w", err)
	}

	ag, err := agent.New(driver, goldens, policy, cfg.Healing, logger)
	if err != nil {
		driver.Close()
		return nil, nil, fmt.Errorf("initializing agent: %w", err)
	}
	return &session{agent: ag, nav: driver}, driver.Close, nil
}
