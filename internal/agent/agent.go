// File: internal/agent/agent.go

// Package agent ties the healing engine to a live page. It captures
// golden snapshots the first time a locator is used, routes every lookup
// through the resolver and keeps the session's healing events for the
// run report.
package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/locfix/api/schemas"
	"github.com/xkilldash9x/locfix/internal/browser"
	"github.com/xkilldash9x/locfix/internal/config"
	"github.com/xkilldash9x/locfix/internal/healing"
	"github.com/xkilldash9x/locfix/internal/store"
)

// Agent is the session facade scripted tests talk to. The golden table
// grows write-through: new snapshots persist immediately and existing
// entries are never replaced. An Agent drives one page at a time and is
// not safe for concurrent use.
type Agent struct {
	driver   browser.PageDriver
	resolver *healing.Resolver
	goldens  store.GoldenStore

	table  store.GoldenTable
	events []schemas.HealingEvent
	logger *zap.Logger
}

// New loads the persisted golden table and binds an agent to a driver.
func New(driver browser.PageDriver, goldens store.GoldenStore, ranker healing.Ranker, cfg config.HealingConfig, logger *zap.Logger) (*Agent, error) {
	table, err := goldens.Load()
	if err != nil {
		return nil, fmt.Errorf("loading golden table: %w", err)
	}
	return &Agent{
		driver:   driver,
		resolver: healing.NewResolver(driver, ranker, cfg, logger),
		goldens:  goldens,
		table:    table,
		logger:   logger.Named("agent"),
	}, nil
}

// Locate resolves a locator to a live element, healing it when the page
// has drifted since its golden snapshot was taken. Every call appends
// one healing event, successful or not. The page key comes from the
// current document title, so navigation between calls lands snapshots in
// the right namespace.
func (a *Agent) Locate(ctx context.Context, locator string) (browser.Element, error) {
	title, err := a.driver.Title(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page title: %w", err)
	}
	pageKey := healing.PageKey(title)
	goldenID := healing.DeriveIdentifier(pageKey, locator, nil)

	golden := a.ensureGolden(ctx, pageKey, goldenID, locator)

	start := time.Now()
	res, err := a.resolver.Resolve(ctx, golden, locator)

	event := schemas.HealingEvent{
		PageKey:         pageKey,
		GoldenID:        goldenID,
		OriginalLocator: locator,
		Timestamp:       start,
		Duration:        time.Since(start),
	}
	if err != nil {
		event.Error = err.Error()
		a.events = append(a.events, event)
		return nil, err
	}

	event.RoundID = res.RoundID
	event.Strategy = res.Strategy
	event.Healed = res.Healed
	event.CandidateCount = res.CandidateCount
	event.Confidence = res.Confidence
	if res.Healed {
		event.HealedLocator = res.Locator
	}
	a.events = append(a.events, event)
	return res.Element, nil
}

// Click resolves a locator and clicks the element it settles on.
func (a *Agent) Click(ctx context.Context, locator string) error {
	el, err := a.Locate(ctx, locator)
	if err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("clicking %q: %w", locator, err)
	}
	return nil
}

// Fill clears the element behind a locator and types the given value.
func (a *Agent) Fill(ctx context.Context, locator, value string) error {
	el, err := a.Locate(ctx, locator)
	if err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return fmt.Errorf("clearing %q: %w", locator, err)
	}
	if err := el.Type(ctx, value); err != nil {
		return fmt.Errorf("typing into %q: %w", locator, err)
	}
	return nil
}

// Events returns a copy of the healing events collected so far.
func (a *Agent) Events() []schemas.HealingEvent {
	out := make([]schemas.HealingEvent, len(a.events))
	copy(out, a.events)
	return out
}

// ensureGolden snapshots the element behind a working locator the first
// time that locator is seen on a page. Capture failures are logged and
// swallowed; resolution proceeds either way and reports its own errors.
func (a *Agent) ensureGolden(ctx context.Context, pageKey, goldenID, locator string) *schemas.ElementSnapshot {
	// A page's namespace is created the first time the page is seen and
	// persisted right away, even when no snapshot can be captured yet.
	if a.table.EnsurePage(pageKey) {
		if err := a.goldens.Save(a.table); err != nil {
			a.logger.Warn("Golden table save failed.", zap.Error(err))
		}
	}

	if snap, ok := a.table.Get(pageKey, goldenID); ok {
		return snap
	}

	el, err := a.driver.FindElement(ctx, locator)
	if err != nil {
		a.logger.Warn("Golden capture skipped; locator does not resolve.",
			zap.String("locator", locator), zap.Error(err))
		return nil
	}
	snap := browser.Capture(el)
	if err := snap.Validate(); err != nil {
		a.logger.Warn("Captured snapshot unusable.",
			zap.String("locator", locator), zap.Error(err))
		return nil
	}

	a.table.Put(pageKey, goldenID, snap)
	if err := a.goldens.Save(a.table); err != nil {
		a.logger.Warn("Golden table save failed.", zap.Error(err))
	} else {
		a.logger.Info("Golden snapshot captured.",
			zap.String("page_key", pageKey),
			zap.String("golden_id", goldenID),
			zap.String("locator", locator))
	}
	return snap
}
