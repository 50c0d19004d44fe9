// File: internal/script/runner.go

// Package script loads recorded UI test scripts and replays them through
// a self-healing session.
package script

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/locfix/api/schemas"
	"github.com/xkilldash9x/locfix/internal/browser"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Load reads and validates a script file.
func Load(path string) (*schemas.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	var s schemas.Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding script %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("script %s invalid: %w", path, err)
	}
	return &s, nil
}

// Session is the locator-resolving surface the runner drives. The agent
// implements it.
type Session interface {
	Locate(ctx context.Context, locator string) (browser.Element, error)
	Click(ctx context.Context, locator string) error
	Fill(ctx context.Context, locator, value string) error
	Events() []schemas.HealingEvent
}

// Navigator moves the underlying page between documents. Both page
// drivers implement it.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Runner replays one script against a session.
type Runner struct {
	session Session
	nav     Navigator
	logger  *zap.Logger
}

// NewRunner wires a runner to a session and its navigator.
func NewRunner(session Session, nav Navigator, logger *zap.Logger) *Runner {
	return &Runner{session: session, nav: nav, logger: logger.Named("runner")}
}

// Run executes every step in order and reports the outcomes. A failing
// step does not produce an error: it is recorded in the result and stops
// the run, since later steps depend on the page state earlier ones left
// behind. The error return covers scripts that cannot start at all.
func (r *Runner) Run(ctx context.Context, s *schemas.Script) (*schemas.RunResult, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to run: %w", err)
	}

	started := time.Now()
	result := &schemas.RunResult{
		Script:    s.Name,
		URL:       s.URL,
		StartedAt: started,
	}
	log := r.logger.With(zap.String("script", s.Name))
	log.Info("Script run starting.", zap.Int("steps", len(s.Steps)))

	// A session can replay several scripts back to back; only the events
	// this run produces belong in its result.
	eventsStart := len(r.session.Events())

	if s.URL != "" {
		if err := r.nav.Navigate(ctx, s.URL); err != nil {
			return nil, fmt.Errorf("opening %s: %w", s.URL, err)
		}
	}

	for i, step := range s.Steps {
		stepLog := log.With(zap.Int("step", i), zap.String("action", string(step.Action)))
		eventsBefore := len(r.session.Events())
		start := time.Now()

		err := r.runStep(ctx, step)

		sr := schemas.StepResult{
			Index:    i,
			Action:   step.Action,
			Locator:  step.Locator,
			Duration: time.Since(start),
		}
		for _, e := range r.session.Events()[eventsBefore:] {
			if e.Healed {
				sr.Healed = true
				break
			}
		}

		if err != nil {
			sr.Error = err.Error()
			result.Steps = append(result.Steps, sr)
			stepLog.Warn("Step failed; aborting run.", zap.Error(err))
			break
		}
		result.Steps = append(result.Steps, sr)
		stepLog.Debug("Step completed.", zap.Duration("took", sr.Duration))
	}

	result.Duration = time.Since(started)
	result.Events = r.session.Events()[eventsStart:]
	log.Info("Script run finished.",
		zap.Int("executed", len(result.Steps)),
		zap.Int("failures", result.Failures()),
		zap.Int("healed", result.HealedCount()))
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, step schemas.ScriptStep) error {
	switch step.Action {
	case schemas.StepNavigate:
		return r.nav.Navigate(ctx, step.Value)
	case schemas.StepClick:
		return r.session.Click(ctx, step.Locator)
	case schemas.StepFill:
		return r.session.Fill(ctx, step.Locator, step.Value)
	case schemas.StepAssertText:
		el, err := r.session.Locate(ctx, step.Locator)
		if err != nil {
			return err
		}
		if got := el.Text(); !strings.Contains(got, step.Value) {
			return fmt.Errorf("assert_text: %q not found in %q", step.Value, got)
		}
		return nil
	case schemas.StepWait:
		timer := time.NewTimer(time.Duration(step.Milliseconds) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}
