// File: internal/store/sync.go
package store

import "sync"

// SyncGoldenStore adapts a golden store for concurrent sessions. It
// keeps a merged table in memory: each Save folds the caller's table
// into the merged view before persisting, so sessions writing through at
// different times cannot drop each other's pages. Existing entries win
// on merge, matching the table's Put semantics.
type SyncGoldenStore struct {
	mu     sync.Mutex
	inner  GoldenStore
	table  GoldenTable
	loaded bool
}

// NewSyncGoldenStore wraps inner.
func NewSyncGoldenStore(inner GoldenStore) *SyncGoldenStore {
	return &SyncGoldenStore{inner: inner}
}

// Load returns a copy of the merged table, reading the underlying store
// on first use.
func (s *SyncGoldenStore) Load() (GoldenTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return s.table.Clone(), nil
}

// Save merges the given table into the shared view and persists the
// result.
func (s *SyncGoldenStore) Save(table GoldenTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	for pageKey, page := range table {
		s.table.EnsurePage(pageKey)
		for id, snap := range page {
			s.table.Put(pageKey, id, snap.Clone())
		}
	}
	return s.inner.Save(s.table)
}

func (s *SyncGoldenStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	table, err := s.inner.Load()
	if err != nil {
		return err
	}
	s.table = table
	s.loaded = true
	return nil
}
