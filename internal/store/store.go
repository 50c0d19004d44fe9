// File: internal/store/store.go

// Package store persists the healing engine's durable state: the golden
// reference table, the training corpus and the serialized ranker model.
// The engine talks to the three small store interfaces; file-backed
// implementations carry real runs and the in-memory ones carry tests.
package store

import (
	"fmt"

	"github.com/xkilldash9x/locfix/api/schemas"
)

// GoldenTable is the global golden reference table, keyed by page key and
// then by golden identifier. Entries are created once and never replaced;
// a golden that no longer matches reality is exactly the situation the
// healing engine exists to handle.
type GoldenTable map[string]map[string]*schemas.ElementSnapshot

// EnsurePage creates the namespace for a page key if it does not exist
// yet, reporting whether it was created.
func (t GoldenTable) EnsurePage(pageKey string) bool {
	if _, ok := t[pageKey]; ok {
		return false
	}
	t[pageKey] = make(map[string]*schemas.ElementSnapshot)
	return true
}

// Get returns the stored snapshot for an identifier.
func (t GoldenTable) Get(pageKey, id string) (*schemas.ElementSnapshot, bool) {
	page, ok := t[pageKey]
	if !ok {
		return nil, false
	}
	snap, ok := page[id]
	return snap, ok
}

// Has reports whether an identifier already holds a snapshot.
func (t GoldenTable) Has(pageKey, id string) bool {
	_, ok := t.Get(pageKey, id)
	return ok
}

// Put stores a snapshot under an identifier. Existing entries win: Put
// returns false and leaves the table untouched when the identifier is
// already present.
func (t GoldenTable) Put(pageKey, id string, snap *schemas.ElementSnapshot) bool {
	t.EnsurePage(pageKey)
	if _, ok := t[pageKey][id]; ok {
		return false
	}
	t[pageKey][id] = snap
	return true
}

// Clone deep-copies the table.
func (t GoldenTable) Clone() GoldenTable {
	out := make(GoldenTable, len(t))
	for pageKey, page := range t {
		out[pageKey] = make(map[string]*schemas.ElementSnapshot, len(page))
		for id, snap := range page {
			out[pageKey][id] = snap.Clone()
		}
	}
	return out
}

// Corpus is the append-only training corpus: one feature vector and one
// label per scored candidate. The two slices always have equal length.
type Corpus struct {
	Vectors [][]float64
	Labels  []int
}

// Append adds one healing round's labeled vectors.
func (c *Corpus) Append(vectors [][]float64, labels []int) error {
	if len(vectors) != len(labels) {
		return fmt.Errorf("store: %d vectors with %d labels", len(vectors), len(labels))
	}
	c.Vectors = append(c.Vectors, vectors...)
	c.Labels = append(c.Labels, labels...)
	return nil
}

// Len returns the number of stored samples.
func (c *Corpus) Len() int { return len(c.Labels) }

// GoldenStore loads and saves the golden reference table. Load on a
// store that has never been saved yields an empty table, not an error.
type GoldenStore interface {
	Load() (GoldenTable, error)
	Save(GoldenTable) error
}

// CorpusStore loads and saves the training corpus. Load on a store that
// has never been saved yields an empty corpus.
type CorpusStore interface {
	Load() (*Corpus, error)
	Save(*Corpus) error
}

// ModelStore loads and saves the opaque serialized ranker model. Load
// yields nil when no model has been saved yet.
type ModelStore interface {
	Load() ([]byte, error)
	Save([]byte) error
}
