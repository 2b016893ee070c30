package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority orders dividends in the queue (lower value means higher priority).
type Priority int

const (
	PriorityHigh   Priority = 0
	PriorityMedium Priority = 1
	PriorityLow    Priority = 2
)

var priorityNames = map[Priority]string{
	PriorityHigh:   "high",
	PriorityMedium: "medium",
	PriorityLow:    "low",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority accepts the names returned by String. An empty name is
// medium priority.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}
	for p, name := range priorityNames {
		if name == s {
			return p, nil
		}
	}
	return PriorityMedium, fmt.Errorf("invalid priority: %s", s)
}

// Job tracks one Requirement split into a fixed number of dividends. It
// is changed only through its lifecycle methods and never again once its
// status is terminal.
type Job struct {
	ID          uuid.UUID   `json:"id"`
	Requirement Requirement `json:"requirement"`
	Status      JobStatus   `json:"status"`
	Progress    Progress    `json:"progress"`
	Priority    Priority    `json:"priority"`

	// Outputs holds one encoded output per dividend, nil until completed.
	Outputs []*string `json:"outputs"`
	Error   *string   `json:"error,omitempty"`
	Cost    float64   `json:"cost"`

	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobResult is what a caller may see of a job's outcome. It never exposes
// a partial set of outputs.
type JobResult struct {
	Outputs []string `json:"outputs"`
	Error   *string  `json:"error,omitempty"`
}

func NewJob(req Requirement, divisor int) (*Job, error) {
	if divisor < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDivisor, divisor)
	}
	if req.Operator == nil {
		return nil, fmt.Errorf("requirement without operator")
	}
	return &Job{
		ID:          uuid.New(),
		Requirement: req,
		Status:      JobStatusCreated,
		Progress:    NewProgress(req.Operator.Computation(), divisor),
		Outputs:     make([]*string, divisor),
	}, nil
}

func (j *Job) Divisor() int {
	return len(j.Outputs)
}

func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

func (j *Job) checkActive() error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("%w: job %s is %s", ErrJobTerminal, j.ID, j.Status)
	}
	return nil
}

// Submit records the submission time. The job stays Created.
func (j *Job) Submit(now time.Time) error {
	if j.Status != JobStatusCreated {
		return fmt.Errorf("cannot submit job %s in status %s", j.ID, j.Status)
	}
	j.SubmittedAt = now
	return nil
}

// AssignTask moves one dividend from waiting to processing. The first
// assignment starts the job.
func (j *Job) AssignTask(now time.Time) error {
	if err := j.checkActive(); err != nil {
		return err
	}
	if j.Progress.Waiting == 0 {
		return fmt.Errorf("%w: job %s", ErrNoWaitingDividend, j.ID)
	}
	j.Progress.Waiting--
	j.Progress.Processing++
	if j.Status == JobStatusCreated {
		j.Status = JobStatusProcessing
		j.StartedAt = &now
	}
	return nil
}

// ReleaseTask returns an assigned dividend to waiting.
func (j *Job) ReleaseTask() error {
	if err := j.checkActive(); err != nil {
		return err
	}
	if j.Progress.Processing == 0 {
		return fmt.Errorf("%w: job %s", ErrNoProcessingDividend, j.ID)
	}
	j.Progress.Processing--
	j.Progress.Waiting++
	return nil
}

// CompleteTaskWithSuccess fills the slot of dividend index. The job
// completes when every slot is filled.
func (j *Job) CompleteTaskWithSuccess(index int, output string, cost float64, now time.Time) error {
	if err := j.checkActive(); err != nil {
		return err
	}
	if index < 0 || index >= len(j.Outputs) {
		return fmt.Errorf("%w: %d of %d", ErrDividendOutOfRange, index, len(j.Outputs))
	}
	if j.Outputs[index] != nil {
		return fmt.Errorf("%w: job %s dividend %d", ErrDividendAlreadyCompleted, j.ID, index)
	}
	if j.Progress.Processing == 0 {
		return fmt.Errorf("%w: job %s", ErrNoProcessingDividend, j.ID)
	}

	j.Progress.Processing--
	j.Progress.Completed++
	if j.Progress.Kind == ProgressByPercentage {
		j.Progress.Percentage = float64(j.Progress.Completed) / float64(len(j.Outputs)) * 100
	}
	j.Outputs[index] = &output
	j.Cost += cost

	for _, o := range j.Outputs {
		if o == nil {
			return nil
		}
	}
	j.Status = JobStatusCompletedSuccess
	j.CompletedAt = &now
	return nil
}

// CompleteTaskWithError finalizes the job with the error of one dividend.
// Outputs of other dividends are discarded from the job's result.
func (j *Job) CompleteTaskWithError(errMsg string, cost float64, now time.Time) error {
	if err := j.checkActive(); err != nil {
		return err
	}
	j.Status = JobStatusCompletedError
	j.Error = &errMsg
	j.Cost += cost
	j.CompletedAt = &now
	return nil
}

func (j *Job) Cancel(now time.Time) error {
	if err := j.checkActive(); err != nil {
		return err
	}
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	return nil
}

func (j *Job) GetResult() JobResult {
	switch j.Status {
	case JobStatusCompletedSuccess:
		outputs := make([]string, len(j.Outputs))
		for i, o := range j.Outputs {
			outputs[i] = *o
		}
		return JobResult{Outputs: outputs}
	case JobStatusCompletedError:
		return JobResult{Outputs: []string{}, Error: j.Error}
	}
	return JobResult{Outputs: []string{}}
}

// Clone returns a deep copy that shares nothing mutable with j.
func (j *Job) Clone() *Job {
	c := *j
	c.Outputs = make([]*string, len(j.Outputs))
	for i, o := range j.Outputs {
		if o != nil {
			v := *o
			c.Outputs[i] = &v
		}
	}
	c.Error = clonePtr(j.Error)
	c.StartedAt = clonePtr(j.StartedAt)
	c.CompletedAt = clonePtr(j.CompletedAt)
	return &c
}

func (j *Job) String() string {
	return fmt.Sprintf("%s %s\t%-20s\t%-15s\t%s\t%.2f",
		j.ID, j.Status, j.Requirement.Operator, j.Requirement.Dataset,
		j.SubmittedAt.Format(time.DateTime), j.Duration().Seconds())
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type JobFilter struct {
	Status *JobStatus
	Limit  int
	Offset int
}
