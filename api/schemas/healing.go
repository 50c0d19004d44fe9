package schemas

import "time"

// -- Healing Result Schemas --

// HealStrategy names the mechanism that produced a working locator.
type HealStrategy string

const (
	// StrategyOriginal means the stored locator still resolved.
	StrategyOriginal HealStrategy = "original"
	// StrategyHeuristic means the weighted attribute score picked the
	// replacement candidate.
	StrategyHeuristic HealStrategy = "heuristic"
	// StrategyModel means the trained ranker picked the replacement.
	StrategyModel HealStrategy = "model"
)

// HealingEvent records one resolution attempt for reporting. Events are
// collected per session and rendered into the CI report at the end of a
// run.
type HealingEvent struct {
	RoundID         string        `json:"roundId"`
	PageKey         string        `json:"pageKey"`
	GoldenID        string        `json:"goldenId"`
	OriginalLocator string        `json:"originalLocator"`
	HealedLocator   string        `json:"healedLocator,omitempty"`
	Strategy        HealStrategy  `json:"strategy"`
	Healed          bool          `json:"healed"`
	CandidateCount  int           `json:"candidateCount"`
	Confidence      float64       `json:"confidence,omitempty"`
	Error           string        `json:"error,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
	Duration        time.Duration `json:"duration"`
}
