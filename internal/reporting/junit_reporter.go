// File: internal/reporting/junit_reporter.go
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/xkilldash9x/locfix/api/schemas"
	"github.com/xkilldash9x/locfix/internal/observability"
)

// rootSuiteName labels the aggregate testsuites element.
const rootSuiteName = "locfix"

// junitTimestamp is the timestamp layout CI dashboards expect on
// testsuite elements. The Ant format carries no zone offset.
const junitTimestamp = "2006-01-02T15:04:05"

// JUnitReporter implements the Reporter interface for JUnit-style XML.
// It is thread safe. Runs are buffered and rendered as one testsuites
// document when the reporter is closed.
type JUnitReporter struct {
	writer io.WriteCloser
	logger *zap.Logger

	// mu protects runs.
	mu   sync.Mutex
	runs []*schemas.RunResult
}

// NewJUnitReporter creates a new reporter that writes JUnit XML output.
func NewJUnitReporter(writer io.WriteCloser) *JUnitReporter {
	return &JUnitReporter{
		writer: writer,
		logger: observability.GetLogger().Named("junit_reporter"),
	}
}

// Write buffers a run result for rendering on Close.
func (r *JUnitReporter) Write(result *schemas.RunResult) error {
	if result == nil {
		return fmt.Errorf("cannot report a nil run result")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, result)

	r.logger.Debug("Buffered run result for JUnit report",
		zap.String("script", result.Script),
		zap.Int("steps", len(result.Steps)),
	)
	return nil
}

// Close renders the buffered runs into a testsuites document and writes
// it to the output writer.
func (r *JUnitReporter) Close() error {
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, tests, failures := r.buildDocument()
	doc.Indent(2)

	_, encodeErr := doc.WriteTo(r.writer)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to write JUnit report", zap.Error(encodeErr))
		return fmt.Errorf("failed to write JUnit report: %w", encodeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Info("Successfully wrote JUnit report",
		zap.Int("suites", len(r.runs)),
		zap.Int("tests", tests),
		zap.Int("failures", failures),
		zap.Duration("duration_ms", time.Since(startTime)),
	)
	return nil
}

// buildDocument assembles the testsuites tree from the buffered runs and
// reports the aggregate test and failure counts.
func (r *JUnitReporter) buildDocument() (doc *etree.Document, tests, failures int) {
	doc = etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("testsuites")
	root.CreateAttr("name", rootSuiteName)

	var elapsed time.Duration
	for _, run := range r.runs {
		appendSuite(root, run)
		tests += len(run.Steps)
		failures += run.Failures()
		elapsed += run.Duration
	}

	root.CreateAttr("tests", strconv.Itoa(tests))
	root.CreateAttr("failures", strconv.Itoa(failures))
	root.CreateAttr("time", seconds(elapsed))
	return doc, tests, failures
}

// appendSuite renders one run as a testsuite element. Healing activity
// lands in the suite properties and, per replaced locator, in a
// system-out block so the detail survives into CI dashboards.
func appendSuite(parent *etree.Element, run *schemas.RunResult) {
	suite := parent.CreateElement("testsuite")
	suite.CreateAttr("name", run.Script)
	suite.CreateAttr("tests", strconv.Itoa(len(run.Steps)))
	suite.CreateAttr("failures", strconv.Itoa(run.Failures()))
	suite.CreateAttr("time", seconds(run.Duration))
	if !run.StartedAt.IsZero() {
		suite.CreateAttr("timestamp", run.StartedAt.Format(junitTimestamp))
	}

	props := suite.CreateElement("properties")
	if run.URL != "" {
		addProperty(props, "url", run.URL)
	}
	addProperty(props, "healingEvents", strconv.Itoa(len(run.Events)))
	addProperty(props, "healedLocators", strconv.Itoa(run.HealedCount()))

	for _, step := range run.Steps {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", caseName(step))
		tc.CreateAttr("classname", run.Script)
		tc.CreateAttr("time", seconds(step.Duration))

		if step.Error != "" {
			failure := tc.CreateElement("failure")
			failure.CreateAttr("message", step.Error)
			failure.SetText(step.Error)
		}
		if step.Healed {
			tc.CreateElement("system-out").SetText("locator healed during this step")
		}
	}

	if lines := healedLines(run.Events); len(lines) > 0 {
		suite.CreateElement("system-out").SetText(strings.Join(lines, "\n"))
	}
}

func addProperty(props *etree.Element, name, value string) {
	p := props.CreateElement("property")
	p.CreateAttr("name", name)
	p.CreateAttr("value", value)
}

// caseName labels a testcase after the step it ran, e.g.
// "step 03 click //*[@id='submit']".
func caseName(step schemas.StepResult) string {
	name := fmt.Sprintf("step %02d %s", step.Index+1, step.Action)
	if step.Locator != "" {
		name += " " + step.Locator
	}
	return name
}

// seconds renders a duration the way JUnit time attributes expect it.
func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// healedLines summarizes each locator replacement as a single line.
func healedLines(events []schemas.HealingEvent) []string {
	var lines []string
	for _, e := range events {
		if !e.Healed {
			continue
		}
		lines = append(lines, fmt.Sprintf("healed %s -> %s (%s, confidence %.2f)",
			e.OriginalLocator, e.HealedLocator, e.Strategy, e.Confidence))
	}
	return lines
}
