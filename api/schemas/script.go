package schemas

import (
	"fmt"
	"time"
)

// -- Test Script Schemas --

// StepAction defines the type of action a scripted test step performs.
type StepAction string

const (
	StepNavigate   StepAction = "navigate"
	StepClick      StepAction = "click"
	StepFill       StepAction = "fill"
	StepAssertText StepAction = "assert_text"
	StepWait       StepAction = "wait"
)

// ScriptStep defines a single action in a scripted test run. Click, fill
// and assert steps go through the self-healing locator path.
type ScriptStep struct {
	Action       StepAction `json:"action"`
	Locator      string     `json:"locator,omitempty"`
	Value        string     `json:"value,omitempty"`
	Milliseconds int        `json:"milliseconds,omitempty"`
}

// Script is a named sequence of steps loaded from a script file.
type Script struct {
	Name  string       `json:"name"`
	URL   string       `json:"url,omitempty"`
	Steps []ScriptStep `json:"steps"`
}

// StepResult records the outcome of one executed script step.
type StepResult struct {
	Index    int           `json:"index"`
	Action   StepAction    `json:"action"`
	Locator  string        `json:"locator,omitempty"`
	Error    string        `json:"error,omitempty"`
	Healed   bool          `json:"healed,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RunResult aggregates one script run for reporting: the per-step
// outcomes plus every healing event the session's agent collected.
type RunResult struct {
	Script    string         `json:"script"`
	URL       string         `json:"url,omitempty"`
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"duration"`
	Steps     []StepResult   `json:"steps"`
	Events    []HealingEvent `json:"events"`
}

// Failures counts the steps that ended in an error.
func (r *RunResult) Failures() int {
	n := 0
	for _, s := range r.Steps {
		if s.Error != "" {
			n++
		}
	}
	return n
}

// HealedCount counts the resolutions that replaced a broken locator.
func (r *RunResult) HealedCount() int {
	n := 0
	for _, e := range r.Events {
		if e.Healed {
			n++
		}
	}
	return n
}

// Validate checks the script for steps that could never execute.
func (s *Script) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("script has no name")
	}
	for i, step := range s.Steps {
		switch step.Action {
		case StepNavigate:
			if step.Value == "" {
				return fmt.Errorf("step %d: navigate requires a url value", i)
			}
		case StepClick:
			if step.Locator == "" {
				return fmt.Errorf("step %d: click requires a locator", i)
			}
		case StepFill:
			if step.Locator == "" {
				return fmt.Errorf("step %d: fill requires a locator", i)
			}
		case StepAssertText:
			if step.Locator == "" || step.Value == "" {
				return fmt.Errorf("step %d: assert_text requires a locator and a value", i)
			}
		case StepWait:
			if step.Milliseconds <= 0 {
				return fmt.Errorf("step %d: wait requires positive milliseconds", i)
			}
		default:
			return fmt.Errorf("step %d: unknown action %q", i, step.Action)
		}
	}
	return nil
}
