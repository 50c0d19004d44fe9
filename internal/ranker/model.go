// File: internal/ranker/model.go
package ranker

import (
	"bytes"
	"encoding/gob"
	"fmt"

	randomforest "github.com/malaschitz/randomForest"
)

// Model is a trained random forest that scores healing candidates. It is
// a thin wrapper: training data layout, vote extraction and serialization
// live here so the rest of the package never touches the forest library
// directly.
type Model struct {
	forest *randomforest.Forest
}

// TrainModel fits a forest of the given size on the full corpus. Inputs
// are validated up front; the forest library panics on malformed data.
func TrainModel(vectors [][]float64, labels []int, trees int) (*Model, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("ranker: empty training corpus")
	}
	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("ranker: %d vectors with %d labels", len(vectors), len(labels))
	}
	width := len(vectors[0])
	for i, v := range vectors {
		if len(v) != width {
			return nil, fmt.Errorf("ranker: vector %d has width %d, want %d", i, len(v), width)
		}
	}
	if trees < 1 {
		return nil, fmt.Errorf("ranker: invalid forest size %d", trees)
	}

	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: vectors, Class: labels}
	forest.Train(trees)
	return &Model{forest: forest}, nil
}

// Score returns the forest's confidence that the candidate is the true
// match for its golden, as the fraction of trees voting for it.
// Degenerate single-class forests score zero, which hands the decision
// back to the heuristic ranking.
func (m *Model) Score(features []float64) float64 {
	if m == nil || m.forest == nil {
		return 0
	}
	votes := m.forest.Vote(features)
	if len(votes) < 2 {
		return 0
	}
	return votes[1]
}

// EncodeModel serializes a model for the model store.
func EncodeModel(m *Model) ([]byte, error) {
	if m == nil || m.forest == nil {
		return nil, fmt.Errorf("ranker: no model to encode")
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m.forest); err != nil {
		return nil, fmt.Errorf("encoding forest: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeModel restores a model from a stored blob.
func DecodeModel(blob []byte) (*Model, error) {
	var forest randomforest.Forest
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&forest); err != nil {
		return nil, fmt.Errorf("decoding forest: %w", err)
	}
	return &Model{forest: &forest}, nil
}
