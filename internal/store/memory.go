// File: internal/store/memory.go
package store

// In-memory store doubles. They record save counts and can be primed
// with failures, which is all the agent and resolver tests need.

// MemoryGoldenStore implements GoldenStore in memory.
type MemoryGoldenStore struct {
	Table     GoldenTable
	SaveCount int
	LoadErr   error
	SaveErr   error
}

// Load implements GoldenStore.
func (m *MemoryGoldenStore) Load() (GoldenTable, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Table == nil {
		return GoldenTable{}, nil
	}
	return m.Table.Clone(), nil
}

// Save implements GoldenStore.
func (m *MemoryGoldenStore) Save(table GoldenTable) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Table = table.Clone()
	m.SaveCount++
	return nil
}

// MemoryCorpusStore implements CorpusStore in memory.
type MemoryCorpusStore struct {
	Corpus    *Corpus
	SaveCount int
	LoadErr   error
	SaveErr   error
}

// Load implements CorpusStore.
func (m *MemoryCorpusStore) Load() (*Corpus, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Corpus == nil {
		return &Corpus{}, nil
	}
	return &Corpus{
		Vectors: append([][]float64(nil), m.Corpus.Vectors...),
		Labels:  append([]int(nil), m.Corpus.Labels...),
	}, nil
}

// Save implements CorpusStore.
func (m *MemoryCorpusStore) Save(corpus *Corpus) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Corpus = &Corpus{
		Vectors: append([][]float64(nil), corpus.Vectors...),
		Labels:  append([]int(nil), corpus.Labels...),
	}
	m.SaveCount++
	return nil
}

// MemoryModelStore implements ModelStore in memory.
type MemoryModelStore struct {
	Blob      []byte
	SaveCount int
	LoadErr   error
	SaveErr   error
}

// Load implements ModelStore.
func (m *MemoryModelStore) Load() ([]byte, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Blob, nil
}

// Save implements ModelStore.
func (m *MemoryModelStore) Save(blob []byte) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Blob = append([]byte(nil), blob...)
	m.SaveCount++
	return nil
}
