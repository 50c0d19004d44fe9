// File: internal/reporting/json_reporter.go
package reporting

import (
	"fmt"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/locfix/api/schemas"
	"github.com/xkilldash9x/locfix/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonReport is the envelope the JSON reporter emits on Close.
type jsonReport struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Runs        []*schemas.RunResult `json:"runs"`
}

// JSONReporter implements the Reporter interface for machine-readable
// output. It is thread safe. Runs are buffered and emitted as a single
// document when the reporter is closed.
type JSONReporter struct {
	writer io.WriteCloser
	logger *zap.Logger

	// mu protects runs.
	mu   sync.Mutex
	runs []*schemas.RunResult
}

// NewJSONReporter creates a new reporter that writes the full run
// results, healing events included, as one indented JSON document.
func NewJSONReporter(writer io.WriteCloser) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		logger: observability.GetLogger().Named("json_reporter"),
	}
}

// Write buffers a run result for rendering on Close.
func (r *JSONReporter) Write(result *schemas.RunResult) error {
	if result == nil {
		return fmt.Errorf("cannot report a nil run result")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, result)
	return nil
}

// Close writes the buffered runs and closes the output writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := jsonReport{
		GeneratedAt: time.Now().UTC(),
		Runs:        r.runs,
	}
	if report.Runs == nil {
		// An empty report still marshals as a list, not null.
		report.Runs = []*schemas.RunResult{}
	}

	data, encodeErr := json.MarshalIndent(report, "", "  ")
	var writeErr error
	if encodeErr == nil {
		data = append(data, '\n')
		_, writeErr = r.writer.Write(data)
	}
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	switch {
	case encodeErr != nil:
		r.logger.Error("Failed to encode JSON report", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode JSON report: %w", encodeErr)
	case writeErr != nil:
		r.logger.Error("Failed to write JSON report", zap.Error(writeErr))
		return fmt.Errorf("failed to write JSON report: %w", writeErr)
	case closeErr != nil:
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Info("Successfully wrote JSON report", zap.Int("runs", len(report.Runs)))
	return nil
}
