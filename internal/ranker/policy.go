// File: internal/ranker/policy.go

// Package ranker learns which healing candidate to pick. Every healing
// round contributes heuristically labeled feature vectors to a training
// corpus; once the corpus reaches the activation threshold a random
// forest is fit on it and ranks candidates from then on. The labels come
// from the same similarity heuristic the features encode, so the model
// is a smoothed memory of past rounds rather than an independent oracle.
package ranker

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/locfix/internal/config"
	"github.com/xkilldash9x/locfix/internal/store"
)

// trainFunc fits a model on the corpus. Tests substitute it.
type trainFunc func(vectors [][]float64, labels []int, trees int) (*Model, error)

// Policy owns the learning half of healing: it accumulates the labeled
// corpus, decides when enough evidence exists to fit a model, and scores
// candidate sets once one is live. Safe for concurrent use.
type Policy struct {
	mu    sync.Mutex
	cfg   config.HealingConfig
	log   *zap.Logger
	train trainFunc

	corpus      *store.Corpus
	model       *Model
	corpusStore store.CorpusStore
	modelStore  store.ModelStore
}

// NewPolicy restores the corpus and any previously trained model from
// their stores. A model blob that fails to decode is discarded with a
// warning; the next round at or above the threshold fits a fresh one.
func NewPolicy(corpusStore store.CorpusStore, modelStore store.ModelStore, cfg config.HealingConfig, logger *zap.Logger) (*Policy, error) {
	log := logger.Named("ranker")

	corpus, err := corpusStore.Load()
	if err != nil {
		return nil, fmt.Errorf("loading training corpus: %w", err)
	}

	p := &Policy{
		cfg:         cfg,
		log:         log,
		train:       TrainModel,
		corpus:      corpus,
		corpusStore: corpusStore,
		modelStore:  modelStore,
	}

	blob, err := modelStore.Load()
	if err != nil {
		return nil, fmt.Errorf("loading ranker model: %w", err)
	}
	if len(blob) > 0 {
		model, err := DecodeModel(blob)
		if err != nil {
			log.Warn("Stored ranker model is unreadable; continuing without it.", zap.Error(err))
		} else {
			p.model = model
			log.Debug("Ranker model restored.", zap.Int("corpus_samples", corpus.Len()))
		}
	}
	return p, nil
}

// Observe folds one healing round into the corpus and refits the model
// when the corpus has reached the activation threshold. Corpus and model
// hit disk only on rounds that retrain; below the threshold observations
// stay in memory.
func (p *Policy) Observe(features [][]float64, labels []int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.corpus.Append(features, labels); err != nil {
		return false, err
	}
	if !ShouldRetrain(p.corpus.Len(), p.cfg.MinTrainingSamples) {
		p.log.Debug("Corpus below activation threshold.",
			zap.Int("samples", p.corpus.Len()),
			zap.Int("threshold", p.cfg.MinTrainingSamples))
		return false, nil
	}

	model, err := p.train(p.corpus.Vectors, p.corpus.Labels, p.cfg.ForestSize)
	if err != nil {
		return false, fmt.Errorf("training ranker: %w", err)
	}
	p.model = model

	if err := p.corpusStore.Save(p.corpus); err != nil {
		return true, fmt.Errorf("saving corpus: %w", err)
	}
	blob, err := EncodeModel(model)
	if err != nil {
		return true, fmt.Errorf("encoding model: %w", err)
	}
	if err := p.modelStore.Save(blob); err != nil {
		return true, fmt.Errorf("saving model: %w", err)
	}

	p.log.Info("Ranker retrained.",
		zap.Int("samples", p.corpus.Len()),
		zap.Int("trees", p.cfg.ForestSize))
	return true, nil
}

// Rank scores candidates with the live model. ok is false while no model
// is live, which sends the caller back to its heuristic ordering.
func (p *Policy) Rank(features [][]float64) ([]float64, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model == nil {
		return nil, false, nil
	}
	scores := make([]float64, len(features))
	for i, f := range features {
		scores[i] = p.model.Score(f)
	}
	return scores, true, nil
}

// CorpusSize returns the number of accumulated training samples.
func (p *Policy) CorpusSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.corpus.Len()
}

// HasModel reports whether a trained model is live.
func (p *Policy) HasModel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model != nil
}

// ShouldRetrain reports whether a corpus of the given size has reached
// the activation threshold.
func ShouldRetrain(samples, threshold int) bool {
	return samples >= threshold
}
