package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nemanja-m/divvy/internal/operator"
	"github.com/nemanja-m/divvy/pkg/codec"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

func ptrString(s string) *string {
	return &s
}

func newSubstructureResult() *Result {
	req := NewRequirement(`{"smarts":"[C&R]"}`, kinds.Substructure{}, kinds.DatasetDummy)
	return NewResult(req, 2)
}

func TestResult_Set(t *testing.T) {
	r := newSubstructureResult()
	tr := &TaskResult{Output: ptrString(`{"results":[]}`)}
	if err := r.Set(1, tr); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if r.Tasks[1].Index != 1 {
		t.Errorf("task index = %d, want 1", r.Tasks[1].Index)
	}
	if err := r.Set(2, &TaskResult{}); !errors.Is(err, ErrDividendOutOfRange) {
		t.Errorf("Set(2) error = %v, want ErrDividendOutOfRange", err)
	}
	if r.CountCompletedTasks() != 1 {
		t.Errorf("CountCompletedTasks() = %d, want 1", r.CountCompletedTasks())
	}

	_ = r.Set(0, &TaskResult{Error: ptrString("boom")})
	if r.CountCompletedTasks() != 1 {
		t.Errorf("failed task counted as completed")
	}
	if got := r.Outputs(); len(got) != 1 {
		t.Errorf("Outputs() = %v, want one output", got)
	}
}

func TestResult_Report(t *testing.T) {
	r := newSubstructureResult()
	_ = r.Set(0, &TaskResult{Output: ptrString(`{"results":[[[[0,1]],"label_1"]]}`)})
	_ = r.Set(1, &TaskResult{Output: ptrString(`{"results":[[[[2]],"label_3"]]}`)})

	report, err := r.Report("job-1")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	ss, ok := report.(*operator.SubstructureReport)
	if !ok {
		t.Fatalf("Report() = %T, want *operator.SubstructureReport", report)
	}
	if len(ss.Output.Results) != 2 || ss.Output.Results[1].ID != "label_3" {
		t.Errorf("merged results = %+v", ss.Output.Results)
	}
	if ss.JobID != "job-1" {
		t.Errorf("job id = %q, want job-1", ss.JobID)
	}
}

func TestResult_SaveReport(t *testing.T) {
	r := newSubstructureResult()
	_ = r.Set(0, &TaskResult{Output: ptrString(`{"results":[]}`)})
	_ = r.Set(1, &TaskResult{Output: ptrString(`{"results":[]}`)})

	path := filepath.Join(t.TempDir(), "report.json")
	n, err := r.SaveReport("job-1", path)
	if err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if int64(len(content)) != n {
		t.Errorf("SaveReport() = %d bytes, file has %d", n, len(content))
	}
	if !strings.Contains(string(content), `"job_id":"job-1"`) {
		t.Errorf("report content = %s", content)
	}

	report, err := codec.Decode[operator.SubstructureReport](string(content))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if report.Input.SMARTS != "[C&R]" {
		t.Errorf("report input = %+v", report.Input)
	}
}

func TestResult_SaveReportMissingDir(t *testing.T) {
	r := newSubstructureResult()
	path := filepath.Join(t.TempDir(), "missing", "report.json")
	if _, err := r.SaveReport("job-1", path); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestResult_Clone(t *testing.T) {
	r := newSubstructureResult()
	_ = r.Set(0, &TaskResult{Output: ptrString("a"), EndedAt: time.Now()})

	c := r.Clone()
	*c.Tasks[0].Output = "b"
	if *r.Tasks[0].Output != "a" {
		t.Error("clone shares task output with result")
	}
	if c.Tasks[1] != nil {
		t.Error("empty slot should stay nil")
	}
}
