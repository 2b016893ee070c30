package core

import (
	"time"

	"github.com/google/uuid"
)

// JobStore persists jobs and their results. Implementations return copies;
// callers must write changes back explicitly.
type JobStore interface {
	SaveJob(job *Job, result *Result) error
	UpdateJob(job *Job) error
	GetJobByID(id uuid.UUID) (*Job, error)
	GetJobs(filter JobFilter) ([]*Job, int, error)

	UpdateResult(jobID uuid.UUID, index int, tr *TaskResult) error
	GetResult(jobID uuid.UUID) (*Result, error)
}

type WorkerStore interface {
	AddWorker(worker *Worker) error
	GetWorkerByID(id uuid.UUID) (*Worker, error)
	GetAllWorkers() ([]*Worker, error)
	UpdateWorkerHeartbeat(id uuid.UUID, timestamp time.Time) error
	UpdateWorkerStatus(id uuid.UUID, status WorkerStatus) error
	RemoveWorker(id uuid.UUID) error
	GetStaleWorkers(threshold time.Time) ([]*Worker, error)
}
