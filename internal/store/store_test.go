// File: internal/store/store_test.go
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/locfix/api/schemas"
)

func sampleTable() GoldenTable {
	return GoldenTable{
		"Login_Page": {
			"Login_Page_golden_email": &schemas.ElementSnapshot{
				Tag:   "input",
				ID:    "email",
				Name:  "email",
				Class: "form-control",
				Parent: &schemas.ParentInfo{
					Tag: "form",
					ID:  "login",
				},
			},
		},
	}
}

// -- Golden Table Semantics --

func TestGoldenTable(t *testing.T) {
	t.Run("ensure page is idempotent", func(t *testing.T) {
		table := GoldenTable{}
		assert.True(t, table.EnsurePage("Login_Page"))
		assert.False(t, table.EnsurePage("Login_Page"))
		assert.Len(t, table, 1)
	})

	t.Run("put never overwrites", func(t *testing.T) {
		table := GoldenTable{}
		first := &schemas.ElementSnapshot{Tag: "input", ID: "email"}
		second := &schemas.ElementSnapshot{Tag: "input", ID: "email-v2"}

		assert.True(t, table.Put("Login_Page", "id1", first))
		assert.False(t, table.Put("Login_Page", "id1", second))

		got, ok := table.Get("Login_Page", "id1")
		require.True(t, ok)
		assert.Equal(t, "email", got.ID, "the original snapshot must survive")
	})

	t.Run("clone is deep", func(t *testing.T) {
		table := sampleTable()
		clone := table.Clone()

		clone["Login_Page"]["Login_Page_golden_email"].ID = "mutated"
		original, _ := table.Get("Login_Page", "Login_Page_golden_email")
		assert.Equal(t, "email", original.ID)
	})
}

// -- Corpus Semantics --

func TestCorpusAppend(t *testing.T) {
	c := &Corpus{}
	require.NoError(t, c.Append([][]float64{{1, 0}, {0, 1}}, []int{1, 0}))
	assert.Equal(t, 2, c.Len())

	err := c.Append([][]float64{{1}}, []int{1, 0})
	require.Error(t, err, "mismatched vectors and labels must be rejected")
	assert.Equal(t, 2, c.Len(), "a rejected append must not change the corpus")
}

// -- File Store Round Trips --

func TestFileGoldenStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "goldens.json")
	s := NewFileGoldenStore(path, zaptest.NewLogger(t))

	t.Run("load missing file yields empty table", func(t *testing.T) {
		table, err := s.Load()
		require.NoError(t, err)
		assert.Empty(t, table)
	})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, s.Save(sampleTable()))

		loaded, err := s.Load()
		require.NoError(t, err)
		if diff := cmp.Diff(sampleTable(), loaded); diff != "" {
			t.Errorf("golden table changed across save/load (-want +got):\n%s", diff)
		}
	})

	t.Run("file is human readable", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n  \"Login_Page\"")
		assert.Contains(t, string(data), `"data-testid"`)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		_, err := s.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding golden file")
	})
}

func TestFileCorpusStore(t *testing.T) {
	dir := t.TempDir()
	s := NewFileCorpusStore(filepath.Join(dir, "corpus.bin"), zaptest.NewLogger(t))

	t.Run("load missing file yields empty corpus", func(t *testing.T) {
		corpus, err := s.Load()
		require.NoError(t, err)
		assert.Zero(t, corpus.Len())
	})

	t.Run("round trip", func(t *testing.T) {
		corpus := &Corpus{}
		require.NoError(t, corpus.Append([][]float64{
			{1, 1, 1, 1, 0, 0, 0.75, 1, 1, 1},
			{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		}, []int{1, 0}))
		require.NoError(t, s.Save(corpus))

		loaded, err := s.Load()
		require.NoError(t, err)
		if diff := cmp.Diff(corpus, loaded); diff != "" {
			t.Errorf("corpus changed across save/load (-want +got):\n%s", diff)
		}
	})

	t.Run("length mismatch is detected on load", func(t *testing.T) {
		bad := NewFileCorpusStore(filepath.Join(dir, "bad.bin"), zaptest.NewLogger(t))
		require.NoError(t, bad.Save(&Corpus{Vectors: [][]float64{{1}}, Labels: []int{1, 0}}))
		_, err := bad.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "corrupt")
	})
}

func TestFileModelStore(t *testing.T) {
	dir := t.TempDir()
	s := NewFileModelStore(filepath.Join(dir, "model.bin"), zaptest.NewLogger(t))

	t.Run("load missing file yields nil", func(t *testing.T) {
		blob, err := s.Load()
		require.NoError(t, err)
		assert.Nil(t, blob)
	})

	t.Run("round trip", func(t *testing.T) {
		blob := []byte("opaque model bytes, repeated repeated repeated for compression")
		require.NoError(t, s.Save(blob))

		loaded, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, blob, loaded)
	})

	t.Run("stored file is compressed", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join(dir, "model.bin"))
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "opaque model bytes")
	})
}

// -- Memory Store Doubles --

func TestMemoryStores(t *testing.T) {
	t.Run("golden store records saves", func(t *testing.T) {
		m := &MemoryGoldenStore{}
		table, err := m.Load()
		require.NoError(t, err)
		assert.Empty(t, table)

		require.NoError(t, m.Save(sampleTable()))
		assert.Equal(t, 1, m.SaveCount)

		// The stored copy is isolated from the caller's table.
		loaded, err := m.Load()
		require.NoError(t, err)
		loaded["Login_Page"]["Login_Page_golden_email"].ID = "mutated"
		again, err := m.Load()
		require.NoError(t, err)
		assert.Equal(t, "email", again["Login_Page"]["Login_Page_golden_email"].ID)
	})

	t.Run("corpus store isolates state", func(t *testing.T) {
		m := &MemoryCorpusStore{}
		corpus, err := m.Load()
		require.NoError(t, err)
		require.NoError(t, corpus.Append([][]float64{{1}}, []int{1}))
		require.NoError(t, m.Save(corpus))

		corpus.Labels[0] = 0
		loaded, err := m.Load()
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Labels[0])
	})

	t.Run("model store copies blobs", func(t *testing.T) {
		m := &MemoryModelStore{}
		blob := []byte{1, 2, 3}
		require.NoError(t, m.Save(blob))
		blob[0] = 9
		loaded, err := m.Load()
		require.NoError(t, err)
		assert.Equal(t, byte(1), loaded[0])
	})
}

// -- Shared Golden Store --

func TestSyncGoldenStore(t *testing.T) {
	t.Run("merges divergent tables instead of overwriting", func(t *testing.T) {
		inner := &MemoryGoldenStore{Table: sampleTable()}
		s := NewSyncGoldenStore(inner)

		// Two sessions that each started from the seeded table and added
		// their own page.
		a, err := s.Load()
		require.NoError(t, err)
		a.Put("Checkout", "Checkout_golden_pay", &schemas.ElementSnapshot{Tag: "button", ID: "pay"})

		b, err := s.Load()
		require.NoError(t, err)
		b.Put("Dashboard", "Dashboard_golden_logout", &schemas.ElementSnapshot{Tag: "button", ID: "logout"})

		require.NoError(t, s.Save(a))
		require.NoError(t, s.Save(b))

		merged, err := s.Load()
		require.NoError(t, err)
		assert.True(t, merged.Has("Login_Page", "Login_Page_golden_email"))
		assert.True(t, merged.Has("Checkout", "Checkout_golden_pay"))
		assert.True(t, merged.Has("Dashboard", "Dashboard_golden_logout"))

		// The second save must not have dropped the first session's page
		// from the persisted table either.
		assert.True(t, inner.Table.Has("Checkout", "Checkout_golden_pay"))
	})

	t.Run("empty page namespaces survive the merge", func(t *testing.T) {
		inner := &MemoryGoldenStore{}
		s := NewSyncGoldenStore(inner)

		// A session that has seen a page but captured nothing on it yet.
		table := GoldenTable{}
		table.EnsurePage("Login_Page")
		require.NoError(t, s.Save(table))

		merged, err := s.Load()
		require.NoError(t, err)
		_, ok := merged["Login_Page"]
		assert.True(t, ok, "the empty namespace must reach the merged table")
		_, ok = inner.Table["Login_Page"]
		assert.True(t, ok, "and the persisted one")
	})

	t.Run("existing goldens win on merge", func(t *testing.T) {
		s := NewSyncGoldenStore(&MemoryGoldenStore{})

		first := GoldenTable{}
		first.Put("Login_Page", "id1", &schemas.ElementSnapshot{Tag: "input", ID: "email"})
		require.NoError(t, s.Save(first))

		second := GoldenTable{}
		second.Put("Login_Page", "id1", &schemas.ElementSnapshot{Tag: "input", ID: "email-v2"})
		require.NoError(t, s.Save(second))

		merged, err := s.Load()
		require.NoError(t, err)
		got, ok := merged.Get("Login_Page", "id1")
		require.True(t, ok)
		assert.Equal(t, "email", got.ID)
	})

	t.Run("loads are isolated copies", func(t *testing.T) {
		s := NewSyncGoldenStore(&MemoryGoldenStore{Table: sampleTable()})

		loaded, err := s.Load()
		require.NoError(t, err)
		loaded["Login_Page"]["Login_Page_golden_email"].ID = "mutated"

		again, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, "email", again["Login_Page"]["Login_Page_golden_email"].ID)
	})

	t.Run("propagates underlying failures", func(t *testing.T) {
		loadErr := errors.New("disk gone")
		s := NewSyncGoldenStore(&MemoryGoldenStore{LoadErr: loadErr})
		_, err := s.Load()
		assert.ErrorIs(t, err, loadErr)
		assert.ErrorIs(t, s.Save(GoldenTable{}), loadErr)

		saveErr := errors.New("disk full")
		s = NewSyncGoldenStore(&MemoryGoldenStore{SaveErr: saveErr})
		assert.ErrorIs(t, s.Save(GoldenTable{}), saveErr)
	})

	t.Run("concurrent saves keep every page", func(t *testing.T) {
		s := NewSyncGoldenStore(&MemoryGoldenStore{})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				table := GoldenTable{}
				pageKey := fmt.Sprintf("Page_%d", i)
				table.Put(pageKey, pageKey+"_golden_x", &schemas.ElementSnapshot{Tag: "div"})
				assert.NoError(t, s.Save(table))
			}(i)
		}
		wg.Wait()

		merged, err := s.Load()
		require.NoError(t, err)
		assert.Len(t, merged, 8)
	})
}
