package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/shared/logging"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

// JobServiceConfig controls how requirements are split and where reports go.
type JobServiceConfig struct {
	BlockSize    int
	MaxDividends int
	// ReportsDir receives <job_id>.json for every successful job. Empty
	// disables automatic saving.
	ReportsDir string
}

type assignment struct {
	jobID uuid.UUID
	index int
}

type jobService struct {
	jobStore core.JobStore
	queue    core.DividendQueue
	config   JobServiceConfig

	// jobsByRequirement deduplicates submissions of the same computation.
	jobsByRequirement map[core.Requirement]uuid.UUID
	// inflight tracks which worker holds which dividend.
	inflight map[uuid.UUID][]assignment

	mu  sync.Mutex
	now func() time.Time

	logger logging.Logger
}

func NewJobService(jobStore core.JobStore, config JobServiceConfig, logger logging.Logger) core.JobService {
	return &jobService{
		jobStore:          jobStore,
		queue:             core.NewDividendQueue(),
		config:            config,
		jobsByRequirement: make(map[core.Requirement]uuid.UUID),
		inflight:          make(map[uuid.UUID][]assignment),
		now:               func() time.Time { return time.Now().UTC() },
		logger:            logger,
	}
}

// SubmitJob creates a job for req, or returns the existing job when the
// same requirement is already pending, running or done.
func (s *jobService) SubmitJob(req core.Requirement, priority core.Priority) (*core.Job, error) {
	if req.Operator == nil {
		return nil, errors.New("requirement without operator")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.jobsByRequirement[req]; exists {
		job, err := s.jobStore.GetJobByID(id)
		if err != nil && !errors.Is(err, core.ErrJobNotFound) {
			return nil, err
		}
		if job != nil && job.Status != core.JobStatusCompletedError && job.Status != core.JobStatusCancelled {
			s.logger.Info("Requirement already submitted", "job_id", job.ID.String(), "status", job.Status.String())
			return job, nil
		}
	}

	divisor := kinds.Divisor(req.Operator, req.Dataset, s.config.BlockSize, s.config.MaxDividends)
	job, err := core.NewJob(req, divisor)
	if err != nil {
		return nil, err
	}
	job.Priority = priority
	if err := job.Submit(s.now()); err != nil {
		return nil, err
	}

	if err := s.jobStore.SaveJob(job, core.NewResult(req, divisor)); err != nil {
		return nil, fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}

	for i := range divisor {
		d := &core.Dividend{
			JobID:       job.ID,
			Requirement: req,
			Dividend:    kinds.Dividend{Index: i, Count: divisor},
		}
		if err := s.queue.Push(d, priority); err != nil {
			return nil, err
		}
	}
	s.jobsByRequirement[req] = job.ID

	s.logger.Info(
		"Job submitted",
		"job_id", job.ID.String(),
		"operator", req.Operator.String(),
		"dataset", req.Dataset.String(),
		"dividends", divisor,
	)

	return job.Clone(), nil
}

func (s *jobService) GetJob(id uuid.UUID) (*core.Job, error) {
	return s.jobStore.GetJobByID(id)
}

func (s *jobService) GetJobs(filter core.JobFilter) ([]*core.Job, int, error) {
	return s.jobStore.GetJobs(filter)
}

func (s *jobService) CancelJob(id uuid.UUID) (*core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.jobStore.GetJobByID(id)
	if err != nil {
		return nil, err
	}
	if err := job.Cancel(s.now()); err != nil {
		return nil, err
	}
	if err := s.jobStore.UpdateJob(job); err != nil {
		return nil, err
	}

	dropped := s.queue.RemoveJob(id)
	s.logger.Info("Job cancelled", "job_id", id.String(), "dropped_dividends", dropped)
	return job, nil
}

// Recover queues again every dividend of an unfinished job whose output
// slot is empty. Dividends that were processing when the previous process
// stopped return to waiting, since no worker holds them any more. It
// returns the number of dividends queued.
func (s *jobService) Recover() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, _, err := s.jobStore.GetJobs(core.JobFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list jobs: %w", err)
	}

	queued := 0
	for _, job := range jobs {
		if job.Status == core.JobStatusCompletedSuccess {
			s.jobsByRequirement[job.Requirement] = job.ID
		}
		if job.Status.IsTerminal() {
			continue
		}
		s.jobsByRequirement[job.Requirement] = job.ID

		released := job.Progress.Processing
		for range released {
			if err := job.ReleaseTask(); err != nil {
				return queued, err
			}
		}
		if released > 0 {
			if err := s.jobStore.UpdateJob(job); err != nil {
				return queued, err
			}
		}

		for i, output := range job.Outputs {
			if output != nil {
				continue
			}
			d := &core.Dividend{
				JobID:       job.ID,
				Requirement: job.Requirement,
				Dividend:    kinds.Dividend{Index: i, Count: job.Divisor()},
			}
			if err := s.queue.Push(d, job.Priority); err != nil {
				return queued, err
			}
			queued++
		}

		s.logger.Info(
			"Job recovered",
			"job_id", job.ID.String(),
			"status", job.Status.String(),
			"released", released,
		)
	}
	return queued, nil
}

// NextDividend hands the next runnable dividend to workerID. Dividends of
// jobs that became terminal while queued are dropped. It returns nil when
// there is nothing to do.
func (s *jobService) NextDividend(workerID uuid.UUID) (*core.Dividend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		d, err := s.queue.Pop()
		if errors.Is(err, core.ErrQueueEmpty) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		job, err := s.jobStore.GetJobByID(d.JobID)
		if errors.Is(err, core.ErrJobNotFound) {
			s.logger.Warn("Dropping dividend of unknown job", "job_id", d.JobID.String())
			continue
		}
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			s.logger.Debug("Skipping dividend of terminal job", "job_id", d.JobID.String(), "dividend", d.String())
			continue
		}

		if err := job.AssignTask(s.now()); err != nil {
			return nil, err
		}
		if err := s.jobStore.UpdateJob(job); err != nil {
			return nil, err
		}
		s.inflight[workerID] = append(s.inflight[workerID], assignment{jobID: d.JobID, index: d.Index})

		s.logger.Debug("Dividend assigned", "job_id", d.JobID.String(), "dividend", d.String(), "worker_id", workerID.String())
		return d, nil
	}
}

func (s *jobService) CompleteDividend(workerID, jobID uuid.UUID, index int, tr *core.TaskResult) error {
	if tr == nil || tr.Output == nil {
		return fmt.Errorf("job %s dividend %d: completion without output", jobID, index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unassign(workerID, jobID, index) {
		return s.notAssigned(workerID, jobID, index)
	}

	job, err := s.jobStore.GetJobByID(jobID)
	if err != nil {
		return err
	}
	if err := job.CompleteTaskWithSuccess(index, *tr.Output, tr.Cost, s.now()); err != nil {
		return err
	}
	if err := s.jobStore.UpdateResult(jobID, index, tr); err != nil {
		return err
	}
	if err := s.jobStore.UpdateJob(job); err != nil {
		return err
	}

	s.logger.Debug("Dividend completed", "job_id", jobID.String(), "index", index, "cost", tr.Cost)

	if job.Status == core.JobStatusCompletedSuccess {
		s.logger.Info("Job completed", "job_id", jobID.String(), "duration", job.Duration().String(), "cost", job.Cost)
		s.autoSaveReport(jobID)
	}
	return nil
}

func (s *jobService) FailDividend(workerID, jobID uuid.UUID, index int, tr *core.TaskResult) error {
	if tr == nil || tr.Error == nil {
		return fmt.Errorf("job %s dividend %d: failure without error", jobID, index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unassign(workerID, jobID, index) {
		return s.notAssigned(workerID, jobID, index)
	}

	job, err := s.jobStore.GetJobByID(jobID)
	if err != nil {
		return err
	}
	if err := job.CompleteTaskWithError(*tr.Error, tr.Cost, s.now()); err != nil {
		return err
	}
	if err := s.jobStore.UpdateResult(jobID, index, tr); err != nil {
		return err
	}
	if err := s.jobStore.UpdateJob(job); err != nil {
		return err
	}

	dropped := s.queue.RemoveJob(jobID)
	s.logger.Error("Job failed", "job_id", jobID.String(), "index", index, "error", *tr.Error,
		"dropped_dividends", dropped)
	return nil
}

// ReleaseDividend puts an assigned dividend back into the queue.
func (s *jobService) ReleaseDividend(workerID, jobID uuid.UUID, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unassign(workerID, jobID, index) {
		return s.notAssigned(workerID, jobID, index)
	}
	return s.release(jobID, index)
}

// RequeueWorkerDividends releases every dividend held by workerID.
func (s *jobService) RequeueWorkerDividends(workerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.inflight[workerID]
	delete(s.inflight, workerID)

	var errs []error
	for _, a := range held {
		err := s.release(a.jobID, a.index)
		if errors.Is(err, core.ErrJobTerminal) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Info("Requeued dividend", "job_id", a.jobID.String(), "index", a.index, "worker_id", workerID.String())
	}
	return errors.Join(errs...)
}

func (s *jobService) release(jobID uuid.UUID, index int) error {
	job, err := s.jobStore.GetJobByID(jobID)
	if err != nil {
		return err
	}
	if index < 0 || index >= job.Divisor() {
		return fmt.Errorf("%w: %d of %d", core.ErrDividendOutOfRange, index, job.Divisor())
	}
	if err := job.ReleaseTask(); err != nil {
		return err
	}
	if err := s.jobStore.UpdateJob(job); err != nil {
		return err
	}
	return s.queue.Push(&core.Dividend{
		JobID:       jobID,
		Requirement: job.Requirement,
		Dividend:    kinds.Dividend{Index: index, Count: job.Divisor()},
	}, job.Priority)
}

// unassign drops (jobID, index) from the dividends held by workerID and
// reports whether the worker held it. A worker whose dividends were
// requeued no longer holds them.
func (s *jobService) unassign(workerID, jobID uuid.UUID, index int) bool {
	held := s.inflight[workerID]
	for i, a := range held {
		if a.jobID == jobID && a.index == index {
			held = append(held[:i], held[i+1:]...)
			if len(held) == 0 {
				delete(s.inflight, workerID)
			} else {
				s.inflight[workerID] = held
			}
			return true
		}
	}
	return false
}

func (s *jobService) notAssigned(workerID, jobID uuid.UUID, index int) error {
	s.logger.Warn("Rejecting dividend outcome from worker not holding it",
		"job_id", jobID.String(), "index", index, "worker_id", workerID.String())
	return fmt.Errorf("%w: job %s dividend %d worker %s", core.ErrDividendNotAssigned, jobID, index, workerID)
}

func (s *jobService) GetTaskResults(jobID uuid.UUID) ([]*core.TaskResult, error) {
	result, err := s.jobStore.GetResult(jobID)
	if err != nil {
		return nil, err
	}
	tasks := make([]*core.TaskResult, 0, len(result.Tasks))
	for _, tr := range result.Tasks {
		if tr != nil {
			tasks = append(tasks, tr)
		}
	}
	return tasks, nil
}

func (s *jobService) GetJobResult(jobID uuid.UUID) (*core.JobResult, error) {
	job, err := s.jobStore.GetJobByID(jobID)
	if err != nil {
		return nil, err
	}
	result := job.GetResult()
	return &result, nil
}

func (s *jobService) SaveReport(jobID uuid.UUID, path string) (int64, error) {
	job, err := s.jobStore.GetJobByID(jobID)
	if err != nil {
		return 0, err
	}
	if job.Status != core.JobStatusCompletedSuccess {
		return 0, fmt.Errorf("%w: job %s is %s", core.ErrJobNotCompleted, jobID, job.Status)
	}
	result, err := s.jobStore.GetResult(jobID)
	if err != nil {
		return 0, err
	}
	return result.SaveReport(jobID.String(), path)
}

func (s *jobService) autoSaveReport(jobID uuid.UUID) {
	if s.config.ReportsDir == "" {
		return
	}
	if err := os.MkdirAll(s.config.ReportsDir, 0o755); err != nil {
		s.logger.Error("Failed to create reports directory", "dir", s.config.ReportsDir, "error", err)
		return
	}
	path := ReportPath(s.config.ReportsDir, jobID)
	result, err := s.jobStore.GetResult(jobID)
	if err != nil {
		s.logger.Error("Failed to load result", "job_id", jobID.String(), "error", err)
		return
	}
	n, err := result.SaveReport(jobID.String(), path)
	if err != nil {
		s.logger.Error("Failed to save report", "job_id", jobID.String(), "path", path, "error", err)
		return
	}
	s.logger.Info("Report saved", "job_id", jobID.String(), "path", path, "bytes", n)
}

// ReportPath is where reports of finished jobs are written.
func ReportPath(dir string, jobID uuid.UUID) string {
	return filepath.Join(dir, jobID.String()+".json")
}
