package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/divvy/pkg/kinds"
)

// Dividend is one unit of work handed to a worker.
type Dividend struct {
	JobID       uuid.UUID
	Requirement Requirement
	kinds.Dividend
}

// JobService defines the interface for job orchestration and management
type JobService interface {
	SubmitJob(req Requirement, priority Priority) (*Job, error)
	GetJob(id uuid.UUID) (*Job, error)
	GetJobs(filter JobFilter) ([]*Job, int, error)
	CancelJob(id uuid.UUID) (*Job, error)

	NextDividend(workerID uuid.UUID) (*Dividend, error)
	// CompleteDividend, FailDividend and ReleaseDividend only accept a
	// dividend from the worker it is currently assigned to.
	CompleteDividend(workerID, jobID uuid.UUID, index int, tr *TaskResult) error
	FailDividend(workerID, jobID uuid.UUID, index int, tr *TaskResult) error
	ReleaseDividend(workerID, jobID uuid.UUID, index int) error
	RequeueWorkerDividends(workerID uuid.UUID) error

	GetTaskResults(jobID uuid.UUID) ([]*TaskResult, error)
	GetJobResult(jobID uuid.UUID) (*JobResult, error)
	SaveReport(jobID uuid.UUID, path string) (int64, error)

	// Recover rebuilds queue and deduplication state from the store. It is
	// meant to run once, before any worker starts.
	Recover() (int, error)
}

// WorkerService defines the interface for worker management
type WorkerService interface {
	RegisterWorker(worker *Worker) error
	RecordHeartbeat(workerID uuid.UUID) error
	SetStatus(workerID uuid.UUID, status WorkerStatus) error
	RemoveWorker(workerID uuid.UUID) error
	GetWorkers() ([]*Worker, error)
	GetStaleWorkers(timeout time.Duration) ([]*Worker, error)
}
