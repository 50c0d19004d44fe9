// File: internal/healing/resolver.go

// Package healing implements self-healing locator resolution. When a
// stored locator stops matching, the resolver scores every element that
// shares the golden snapshot's tag, picks the most plausible survivor
// by heuristic weight or by the trained ranker, synthesizes a fresh
// locator for it and verifies that locator against the live page before
// handing it back.
package healing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/locfix/api/schemas"
	"github.com/xkilldash9x/locfix/internal/browser"
	"github.com/xkilldash9x/locfix/internal/config"
)

// Ranker is the resolver's view of the learned ranking machinery. The
// resolver feeds it one labeled round per healing attempt and asks it to
// score candidates; corpus bookkeeping, the retrain policy and model
// persistence all live behind this interface.
type Ranker interface {
	// Observe appends one round of labeled feature vectors to the corpus
	// and retrains when the corpus has grown large enough.
	Observe(features [][]float64, labels []int) (retrained bool, err error)
	// Rank scores each feature vector with the probability of being the
	// right replacement. ok is false while no trained model exists.
	Rank(features [][]float64) (scores []float64, ok bool, err error)
}

// Resolution is the outcome of a successful Resolve call.
type Resolution struct {
	// Locator is the working locator: the original when it still
	// resolved, otherwise the verified synthesized replacement.
	Locator string
	// Element is the live element the locator resolved to.
	Element browser.Element
	// Healed reports whether the locator was replaced.
	Healed bool
	// Strategy names what picked the element.
	Strategy schemas.HealStrategy
	// CandidateCount is how many same-tag elements were scored.
	CandidateCount int
	// Confidence is the chosen candidate's score: the model probability,
	// or the normalized heuristic score when no model ran.
	Confidence float64
	// RoundID identifies the healing round in logs and reports. Empty
	// when no healing happened.
	RoundID string
	// Retrained reports whether this round triggered a ranker retrain.
	Retrained bool
}

// Resolver runs the healing state machine against one page.
type Resolver struct {
	driver browser.PageDriver
	ranker Ranker
	cfg    config.HealingConfig
	logger *zap.Logger
}

// NewResolver wires a resolver to a page driver and a ranker.
func NewResolver(driver browser.PageDriver, ranker Ranker, cfg config.HealingConfig, logger *zap.Logger) *Resolver {
	return &Resolver{
		driver: driver,
		ranker: ranker,
		cfg:    cfg,
		logger: logger.Named("healing"),
	}
}

// Resolve turns a possibly broken locator into a working one. The
// original locator is always tried first; only when it no longer matches
// does the healing pipeline run against the golden snapshot.
//
// Recoverable and fatal failures are kept distinct: a missing element
// starts healing, while ErrNoGolden, ErrNoCandidates and
// ErrVerificationFailed surface to the caller.
func (r *Resolver) Resolve(ctx context.Context, golden *schemas.ElementSnapshot, originalLocator string) (*Resolution, error) {
	el, err := r.driver.FindElement(ctx, originalLocator)
	if err == nil {
		r.logger.Debug("Element found using original locator.", zap.String("locator", originalLocator))
		return &Resolution{
			Locator:    originalLocator,
			Element:    el,
			Strategy:   schemas.StrategyOriginal,
			Confidence: 1,
		}, nil
	}
	if !errors.Is(err, browser.ErrNotFound) {
		return nil, fmt.Errorf("resolving original locator: %w", err)
	}

	r.logger.Info("Original locator failed; triggering self-healing.",
		zap.String("locator", originalLocator))

	if golden == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoGolden, originalLocator)
	}
	if err := golden.Validate(); err != nil {
		return nil, fmt.Errorf("golden reference for %q unusable: %w", originalLocator, err)
	}

	return r.heal(ctx, golden, originalLocator)
}

// heal runs candidate enumeration, scoring, labeling, ranking, synthesis
// and verification for one broken locator.
func (r *Resolver) heal(ctx context.Context, golden *schemas.ElementSnapshot, originalLocator string) (*Resolution, error) {
	roundID := uuid.NewString()
	logger := r.logger.With(zap.String("round_id", roundID), zap.String("locator", originalLocator))

	candidates, err := r.driver.FindElements(ctx, golden.Tag)
	if err != nil {
		return nil, fmt.Errorf("enumerating candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: tag %q", ErrNoCandidates, golden.Tag)
	}
	logger.Debug("Enumerated candidates.", zap.String("tag", golden.Tag), zap.Int("count", len(candidates)))

	features := make([][]float64, len(candidates))
	heuristics := make([]int, len(candidates))
	for i, cand := range candidates {
		snap := browser.Capture(cand)
		features[i] = ExtractFeatures(golden, snap)
		heuristics[i] = Similarity(golden, snap)
	}

	// The round labels itself: the heuristic's best candidate is the
	// positive example, everything else negative. The ranker can only
	// ever be as good as the heuristic that teaches it.
	bestHeuristic := ArgMax(heuristics)
	labels := make([]int, len(candidates))
	labels[bestHeuristic] = 1

	retrained, err := r.ranker.Observe(features, labels)
	if err != nil {
		// A ranker that cannot learn this round should not kill the
		// resolution; heuristic ranking still works.
		logger.Warn("Ranker failed to ingest round.", zap.Error(err))
	} else if retrained {
		logger.Info("Ranker retrained on accumulated corpus.")
	}

	chosen := bestHeuristic
	strategy := schemas.StrategyHeuristic
	confidence := float64(heuristics[bestHeuristic]) / float64(MaxSimilarity)

	scores, ok, err := r.ranker.Rank(features)
	if err != nil {
		logger.Warn("Ranker failed to score candidates; using heuristic ranking.", zap.Error(err))
	} else if ok {
		chosen = ArgMax(scores)
		strategy = schemas.StrategyModel
		confidence = scores[chosen]
	}

	logger.Info("Candidate selected.",
		zap.String("strategy", string(strategy)),
		zap.Int("candidate", chosen),
		zap.Float64("confidence", confidence),
		zap.Int("heuristic_score", heuristics[chosen]))

	locator, element, err := r.verify(ctx, logger, SynthesisCandidates(candidates[chosen]))
	if err != nil {
		return nil, err
	}

	logger.Info("Self-healing successful.", zap.String("new_locator", locator))
	return &Resolution{
		Locator:        locator,
		Element:        element,
		Healed:         true,
		Strategy:       strategy,
		CandidateCount: len(candidates),
		Confidence:     confidence,
		RoundID:        roundID,
		Retrained:      retrained,
	}, nil
}

// verify re-resolves a synthesized locator before it is handed out. With
// the synthesis fallback enabled the remaining rules get their turn when
// the primary one fails; otherwise verification is a single shot.
func (r *Resolver) verify(ctx context.Context, logger *zap.Logger, locators []string) (string, browser.Element, error) {
	attempts := locators[:1]
	if r.cfg.SynthesisFallback {
		attempts = locators
	}

	for i, locator := range attempts {
		el, err := r.driver.FindElement(ctx, locator)
		if err == nil {
			if i > 0 {
				logger.Warn("Primary synthesized locator failed; a fallback rule verified.",
					zap.String("primary", locators[0]),
					zap.String("verified", locator))
			}
			return locator, el, nil
		}
		if !errors.Is(err, browser.ErrNotFound) {
			return "", nil, fmt.Errorf("verifying synthesized locator %q: %w", locator, err)
		}
		logger.Debug("Synthesized locator failed verification.", zap.String("candidate", locator))
	}

	return "", nil, fmt.Errorf("%w: %q", ErrVerificationFailed, locators[0])
}
