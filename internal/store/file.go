// File: internal/store/file.go
package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// json keeps map keys sorted so the golden file diffs cleanly in review.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// atomicWrite writes data through a temp file in the target directory and
// renames it into place, so a crash mid-write never truncates good state.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// FileGoldenStore keeps the golden table as pretty-printed JSON.
type FileGoldenStore struct {
	path string
	log  *zap.Logger
}

// NewFileGoldenStore returns a golden store backed by the given path.
func NewFileGoldenStore(path string, logger *zap.Logger) *FileGoldenStore {
	return &FileGoldenStore{path: path, log: logger.Named("store")}
}

// Load implements GoldenStore.
func (s *FileGoldenStore) Load() (GoldenTable, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("No golden file found; starting fresh.", zap.String("path", s.path))
		return GoldenTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading golden file: %w", err)
	}

	var table GoldenTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decoding golden file %s: %w", s.path, err)
	}
	s.log.Debug("Golden table loaded.", zap.String("path", s.path), zap.Int("pages", len(table)))
	return table, nil
}

// Save implements GoldenStore.
func (s *FileGoldenStore) Save(table GoldenTable) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding golden table: %w", err)
	}
	if err := atomicWrite(s.path, append(data, '\n')); err != nil {
		return fmt.Errorf("saving golden table: %w", err)
	}
	s.log.Debug("Golden table saved.", zap.String("path", s.path), zap.Int("pages", len(table)))
	return nil
}

// FileCorpusStore keeps the corpus gob-encoded and brotli-compressed.
// Feature vectors are dense float slices; they compress well and nothing
// human ever reads them.
type FileCorpusStore struct {
	path string
	log  *zap.Logger
}

// NewFileCorpusStore returns a corpus store backed by the given path.
func NewFileCorpusStore(path string, logger *zap.Logger) *FileCorpusStore {
	return &FileCorpusStore{path: path, log: logger.Named("store")}
}

// Load implements CorpusStore.
func (s *FileCorpusStore) Load() (*Corpus, error) {
	data, err := readCompressed(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("No training corpus found; starting fresh.", zap.String("path", s.path))
		return &Corpus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}

	var corpus Corpus
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&corpus); err != nil {
		return nil, fmt.Errorf("decoding corpus file %s: %w", s.path, err)
	}
	if len(corpus.Vectors) != len(corpus.Labels) {
		return nil, fmt.Errorf("corpus file %s is corrupt: %d vectors with %d labels",
			s.path, len(corpus.Vectors), len(corpus.Labels))
	}
	s.log.Debug("Training corpus loaded.", zap.String("path", s.path), zap.Int("samples", corpus.Len()))
	return &corpus, nil
}

// Save implements CorpusStore.
func (s *FileCorpusStore) Save(corpus *Corpus) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(corpus); err != nil {
		return fmt.Errorf("encoding corpus: %w", err)
	}
	if err := writeCompressed(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("saving corpus: %w", err)
	}
	s.log.Debug("Training corpus saved.", zap.String("path", s.path), zap.Int("samples", corpus.Len()))
	return nil
}

// FileModelStore keeps the serialized model blob brotli-compressed. The
// blob's contents are the ranker's business.
type FileModelStore struct {
	path string
	log  *zap.Logger
}

// NewFileModelStore returns a model store backed by the given path.
func NewFileModelStore(path string, logger *zap.Logger) *FileModelStore {
	return &FileModelStore{path: path, log: logger.Named("store")}
}

// Load implements ModelStore.
func (s *FileModelStore) Load() ([]byte, error) {
	data, err := readCompressed(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("No ranker model found.", zap.String("path", s.path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	s.log.Debug("Ranker model loaded.", zap.String("path", s.path), zap.Int("bytes", len(data)))
	return data, nil
}

// Save implements ModelStore.
func (s *FileModelStore) Save(blob []byte) error {
	if err := writeCompressed(s.path, blob); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	s.log.Debug("Ranker model saved.", zap.String("path", s.path), zap.Int("bytes", len(blob)))
	return nil
}

func readCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(brotli.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return data, nil
}

func writeCompressed(path string, data []byte) error {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flushing compressor: %w", err)
	}
	return atomicWrite(path, buf.Bytes())
}
