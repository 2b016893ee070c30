package core

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nemanja-m/divvy/internal/operator"
	"github.com/nemanja-m/divvy/pkg/codec"
)

// TaskResult records how one dividend ended.
type TaskResult struct {
	Index     int       `json:"index"`
	Output    *string   `json:"output,omitempty"`
	Error     *string   `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Cost      float64   `json:"cost"`
	WorkerID  string    `json:"worker_id,omitempty"`
}

func (tr *TaskResult) Succeeded() bool {
	return tr != nil && tr.Output != nil && tr.Error == nil
}

// Result collects the TaskResults of a job, one slot per dividend.
type Result struct {
	Requirement Requirement   `json:"requirement"`
	Tasks       []*TaskResult `json:"tasks"`
}

func NewResult(req Requirement, divisor int) *Result {
	return &Result{Requirement: req, Tasks: make([]*TaskResult, divisor)}
}

// Set records tr in slot index, replacing whatever was there.
func (r *Result) Set(index int, tr *TaskResult) error {
	if index < 0 || index >= len(r.Tasks) {
		return fmt.Errorf("%w: %d of %d", ErrDividendOutOfRange, index, len(r.Tasks))
	}
	tr.Index = index
	r.Tasks[index] = tr
	return nil
}

func (r *Result) CountCompletedTasks() int {
	n := 0
	for _, tr := range r.Tasks {
		if tr.Succeeded() {
			n++
		}
	}
	return n
}

// Outputs returns the present outputs in dividend order.
func (r *Result) Outputs() []string {
	outputs := make([]string, 0, len(r.Tasks))
	for _, tr := range r.Tasks {
		if tr.Succeeded() {
			outputs = append(outputs, *tr.Output)
		}
	}
	return outputs
}

// Report merges the outputs into the report of the requirement's operator.
func (r *Result) Report(jobID string) (operator.Report, error) {
	return operator.AssembleReport(jobID, r.Requirement.ComputingUnit(), r.Requirement.Input, r.Outputs())
}

// SaveReport writes the encoded report to path, creating or truncating
// it, and returns the number of bytes written.
func (r *Result) SaveReport(jobID string, path string) (int64, error) {
	report, err := r.Report(jobID)
	if err != nil {
		return 0, err
	}
	content, err := codec.Encode(report)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return int64(n), err
}

func (r *Result) Clone() *Result {
	c := &Result{Requirement: r.Requirement, Tasks: make([]*TaskResult, len(r.Tasks))}
	for i, tr := range r.Tasks {
		if tr != nil {
			t := *tr
			t.Output = clonePtr(tr.Output)
			t.Error = clonePtr(tr.Error)
			c.Tasks[i] = &t
		}
	}
	return c
}
