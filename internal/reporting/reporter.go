// File: internal/reporting/reporter.go

// Package reporting renders script run results into CI-consumable
// reports. The JUnit reporter produces the XML dialect most CI systems
// ingest natively; the JSON reporter dumps the full run results,
// healing events included, for downstream tooling.
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/xkilldash9x/locfix/api/schemas"
)

// Reporter defines the interface for writing run results to an output.
type Reporter interface {
	// Write adds a single run result to the report.
	Write(result *schemas.RunResult) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
// An empty path or "stdout" writes the report to standard output.
func New(format, outputPath string) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case "junit":
		// NewJUnitReporter takes ownership of the writer.
		return NewJUnitReporter(writer), nil
	case "json":
		return NewJSONReporter(writer), nil
	default:
		writer.Close()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
