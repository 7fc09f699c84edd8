// Package audit appends one jsonl record per scan run and a plain-text
// run-data line per rule outcome, so operators can review what past runs
// covered and found.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/leakwatch/leakwatch/internal/types"
)

const (
	logFileName     = "leakwatch_runs.jsonl"
	runDataFileName = "run_data.txt"
)

// RunRecord is one scheduled or manual scan over a rule set.
type RunRecord struct {
	Timestamp    time.Time          `json:"timestamp"`
	RunID        string             `json:"run_id"`
	Categories   []string           `json:"categories"`
	Rules        int                `json:"rules"`
	Succeeded    int                `json:"succeeded"`
	Failed       int                `json:"failed"`
	Found        int                `json:"found"`
	PagesSkipped int                `json:"pages_skipped"`
	Duration     string             `json:"duration"`
	Outcomes     []types.RunOutcome `json:"outcomes,omitempty"`
}

// RunLog reads and appends run records under a state directory.
type RunLog struct {
	dir string
}

// NewRunLog returns a run log rooted at dir.
func NewRunLog(dir string) *RunLog {
	return &RunLog{dir: dir}
}

// LoadHistory returns recorded runs, most recent first. Malformed lines are
// skipped.
func (l *RunLog) LoadHistory() ([]RunRecord, error) {
	f, err := os.Open(filepath.Join(l.dir, logFileName))
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	var records []RunRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record RunRecord
		if err := decoder.Decode(&record); err != nil {
			continue
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// LogRun appends one record. A missing RunID is filled in.
func (l *RunLog) LogRun(record RunRecord) error {
	if record.RunID == "" {
		record.RunID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	// Owner-only: records can reference sensitive repositories.
	f, err := os.OpenFile(filepath.Join(l.dir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("write run record: %w", err)
	}
	return nil
}

// AppendRunData writes the legacy one-line-per-outcome text log alongside
// the jsonl records.
func (l *RunLog) AppendRunData(outcomes []types.RunOutcome) error {
	f, err := os.OpenFile(filepath.Join(l.dir, runDataFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open run data: %w", err)
	}
	defer f.Close()

	for _, out := range outcomes {
		msg := out.Message
		if out.Success {
			msg = fmt.Sprintf("%d", out.Found)
		}
		line := fmt.Sprintf("%s %t %s %s\n",
			out.Time.Format("2006-01-02 15:04:05"), out.Success, out.Rule, msg)
		if _, err := f.WriteString(line); err != nil {
			return fmt.Errorf("write run data: %w", err)
		}
	}
	return nil
}

// CreateRunRecord assembles a record from one dispatch cycle.
func CreateRunRecord(categories []string, ruleCount int, outcomes []types.RunOutcome, duration time.Duration) RunRecord {
	record := RunRecord{
		Timestamp:  time.Now(),
		RunID:      uuid.NewString(),
		Categories: categories,
		Rules:      ruleCount,
		Duration:   duration.String(),
		Outcomes:   outcomes,
	}
	for _, out := range outcomes {
		record.PagesSkipped += out.PagesSkipped
		if out.Success {
			record.Succeeded++
			record.Found += out.Found
		} else {
			record.Failed++
		}
	}
	return record
}
