// Package reports collects test outcomes during a run and renders them as
// JSON and HTML documents in the output directory. The Recorder plugs into
// the run as one more test logger, so report generation never needs hooks
// inside the test engine itself.
package reports

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/cryptoqa/market-test-harness/framework"
	"github.com/cryptoqa/market-test-harness/framework/qatest"
)

// Recorder implements qatest.TestLogger, accumulating one record per test.
type Recorder struct {
	environment string
	startedAt   time.Time
	order       []qatest.TestID
	records     map[string]*record
	lock        sync.Mutex
}

type record struct {
	id         qatest.TestID
	startTime  time.Time
	duration   time.Duration
	errors     []string
	failed     bool
	skipped    bool
	skipReason string
	output     string
}

func NewRecorder(environment string) *Recorder {
	return &Recorder{
		environment: environment,
		startedAt:   time.Now(),
		records:     make(map[string]*record),
	}
}

func (r *Recorder) TestStarted(id qatest.TestID) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.order = append(r.order, id)
	r.records[id.String()] = &record{id: id, startTime: time.Now()}
}

func (r *Recorder) TestError(id qatest.TestID, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if rec := r.records[id.String()]; rec != nil {
		rec.errors = append(rec.errors, err.Error())
	}
}

func (r *Recorder) TestFinished(id qatest.TestID, failed bool, debugOutput framework.CapturedOutput) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if rec := r.records[id.String()]; rec != nil {
		rec.failed = failed
		rec.duration = time.Since(rec.startTime)
		rec.output = debugOutput.ToString("")
	}
}

func (r *Recorder) TestSkipped(id qatest.TestID, reason string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if rec := r.records[id.String()]; rec != nil {
		rec.skipped = true
		rec.skipReason = reason
	}
}

func (r *Recorder) EndLog(qatest.Results) error { return nil }

// RunSummary is the report model. Counts cover leaf tests only; a scope that
// exists just to group subtests is not itself a test.
type RunSummary struct {
	Environment string         `json:"environment"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    time.Duration  `json:"duration"`
	Total       int            `json:"total"`
	Passed      int            `json:"passed"`
	Failed      int            `json:"failed"`
	Skipped     int            `json:"skipped"`
	Suites      []SuiteSummary `json:"suites"`
}

type SuiteSummary struct {
	Name    string       `json:"name"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Skipped int          `json:"skipped"`
	Tests   []TestRecord `json:"tests"`
}

type TestRecord struct {
	Name       string        `json:"name"`
	Duration   time.Duration `json:"duration"`
	Status     string        `json:"status"` // "passed", "failed", or "skipped"
	Errors     []string      `json:"errors,omitempty"`
	SkipReason string        `json:"skip_reason,omitempty"`
	Output     string        `json:"output,omitempty"`
}

// Summary freezes the recorded state into a RunSummary.
func (r *Recorder) Summary() RunSummary {
	r.lock.Lock()
	defer r.lock.Unlock()

	summary := RunSummary{
		Environment: r.environment,
		StartedAt:   r.startedAt,
		Duration:    time.Since(r.startedAt),
	}

	suites := make(map[string]*SuiteSummary)
	var suiteOrder []string
	for _, id := range r.order {
		rec := r.records[id.String()]
		if rec == nil || !r.isLeaf(id) {
			continue
		}

		suiteName := id[0]
		suite := suites[suiteName]
		if suite == nil {
			suite = &SuiteSummary{Name: suiteName}
			suites[suiteName] = suite
			suiteOrder = append(suiteOrder, suiteName)
		}

		tr := TestRecord{
			Name:       strings.Join(id[1:], "/"),
			Duration:   rec.duration,
			Errors:     rec.errors,
			SkipReason: rec.skipReason,
			Output:     rec.output,
		}
		switch {
		case rec.skipped:
			tr.Status = "skipped"
			suite.Skipped++
			summary.Skipped++
		case rec.failed:
			tr.Status = "failed"
			suite.Failed++
			summary.Failed++
		default:
			tr.Status = "passed"
			suite.Passed++
			summary.Passed++
		}
		summary.Total++
		suite.Tests = append(suite.Tests, tr)
	}

	slices.Sort(suiteOrder)
	for _, name := range suiteOrder {
		summary.Suites = append(summary.Suites, *suites[name])
	}
	return summary
}

// isLeaf reports whether no other recorded test is nested under id. Must be
// called with the lock held.
func (r *Recorder) isLeaf(id qatest.TestID) bool {
	if len(id) == 0 {
		return false
	}
	prefix := id.String() + "/"
	for key := range r.records {
		if strings.HasPrefix(key, prefix) {
			return false
		}
	}
	return true
}
