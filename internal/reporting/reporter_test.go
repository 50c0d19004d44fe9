// File: internal/reporting/reporter_test.go
package reporting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/locfix/internal/reporting"
)

// TestNew_Success_JUnit_Stdout tests creating a JUnit reporter writing to stdout.
func TestNew_Success_JUnit_Stdout(t *testing.T) {
	// Explicit stdout
	r, err := reporting.New("junit", "stdout")
	require.NoError(t, err)
	assert.NotNil(t, r)
	// Close must be a no-op for the stdout wrapper.
	assert.NoError(t, r.Close())

	// Implicit stdout (empty path)
	r, err = reporting.New("junit", "")
	require.NoError(t, err)
	assert.NotNil(t, r)
	assert.NoError(t, r.Close())
}

// TestNew_Success_JUnit_File tests creating a JUnit reporter writing to a file.
func TestNew_Success_JUnit_File(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "report.xml")

	r, err := reporting.New("junit", tmpFile)
	require.NoError(t, err)
	assert.NotNil(t, r)

	// File should exist now (created by os.Create in New)
	_, err = os.Stat(tmpFile)
	assert.NoError(t, err, "Output file should have been created")

	// Closing the reporter finalizes the file.
	require.NoError(t, r.Close())

	info, err := os.Stat(tmpFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Closed report should not be empty")
}

// TestNew_Success_JSON_File tests creating a JSON reporter writing to a file.
func TestNew_Success_JSON_File(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "report.json")

	r, err := reporting.New("json", tmpFile)
	require.NoError(t, err)
	assert.NotNil(t, r)
	require.NoError(t, r.Close())

	data, err := os.ReadFile(tmpFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"runs"`)
}

// TestNew_Failure_UnsupportedFormat tests handling of unknown formats and ensures cleanup.
func TestNew_Failure_UnsupportedFormat(t *testing.T) {
	// With stdout (no file cleanup needed)
	r, err := reporting.New("sarif", "stdout")
	assert.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "unsupported output format: sarif")

	// With a file, the handle must be closed again on failure.
	tmpFile := filepath.Join(t.TempDir(), "report.out")
	r, err = reporting.New("sarif", tmpFile)
	assert.Error(t, err)
	assert.Nil(t, r)

	info, err := os.Stat(tmpFile)
	require.NoError(t, err, "File should still exist after failure")
	assert.Equal(t, int64(0), info.Size(), "File should be empty as initialization failed")
}

// TestNew_Failure_FileCreation tests errors during output file creation.
func TestNew_Failure_FileCreation(t *testing.T) {
	// Using a directory path as the filename cannot succeed.
	invalidPath := t.TempDir()

	r, err := reporting.New("junit", invalidPath)
	assert.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "failed to create output file")
}
