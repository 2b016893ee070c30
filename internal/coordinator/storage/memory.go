package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
)

// InMemoryJobStore keeps jobs and results in process memory. Values are
// copied on the way in and out.
type InMemoryJobStore struct {
	mu      sync.RWMutex
	jobs    map[uuid.UUID]*core.Job
	results map[uuid.UUID]*core.Result
}

func NewInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobs:    make(map[uuid.UUID]*core.Job),
		results: make(map[uuid.UUID]*core.Result),
	}
}

func (s *InMemoryJobStore) SaveJob(job *core.Job, result *core.Result) error {
	if job == nil || result == nil {
		return fmt.Errorf("cannot save nil job or result")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	s.results[job.ID] = result.Clone()
	return nil
}

func (s *InMemoryJobStore) UpdateJob(job *core.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; !exists {
		return fmt.Errorf("%w: %s", core.ErrJobNotFound, job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *InMemoryJobStore) GetJobByID(id uuid.UUID) (*core.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrJobNotFound, id)
	}
	return job.Clone(), nil
}

func (s *InMemoryJobStore) GetJobs(filter core.JobFilter) ([]*core.Job, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]*core.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.Clone())
	}
	page, total := applyFilter(jobs, filter)
	return page, total, nil
}

func (s *InMemoryJobStore) UpdateResult(jobID uuid.UUID, index int, tr *core.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, exists := s.results[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrJobNotFound, jobID)
	}
	c := *tr
	return result.Set(index, &c)
}

func (s *InMemoryJobStore) GetResult(jobID uuid.UUID) (*core.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, exists := s.results[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrJobNotFound, jobID)
	}
	return result.Clone(), nil
}

type InMemoryWorkerStore struct {
	mu      sync.RWMutex
	workers map[uuid.UUID]*core.Worker
}

func NewInMemoryWorkerStore() *InMemoryWorkerStore {
	return &InMemoryWorkerStore{
		workers: make(map[uuid.UUID]*core.Worker),
	}
}

func (s *InMemoryWorkerStore) AddWorker(worker *core.Worker) error {
	if worker == nil {
		return fmt.Errorf("worker is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w := *worker
	s.workers[worker.ID] = &w
	return nil
}

func (s *InMemoryWorkerStore) GetWorkerByID(id uuid.UUID) (*core.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	worker, exists := s.workers[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrWorkerNotFound, id)
	}
	w := *worker
	return &w, nil
}

func (s *InMemoryWorkerStore) GetAllWorkers() ([]*core.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workers := make([]*core.Worker, 0, len(s.workers))
	for _, worker := range s.workers {
		w := *worker
		workers = append(workers, &w)
	}
	return workers, nil
}

func (s *InMemoryWorkerStore) UpdateWorkerHeartbeat(id uuid.UUID, timestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	worker, exists := s.workers[id]
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrWorkerNotFound, id)
	}
	worker.LastHeartbeatAt = timestamp
	return nil
}

func (s *InMemoryWorkerStore) UpdateWorkerStatus(id uuid.UUID, status core.WorkerStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	worker, exists := s.workers[id]
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrWorkerNotFound, id)
	}
	worker.Status = status
	return nil
}

func (s *InMemoryWorkerStore) RemoveWorker(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workers, id)
	return nil
}

func (s *InMemoryWorkerStore) GetStaleWorkers(threshold time.Time) ([]*core.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []*core.Worker
	for _, worker := range s.workers {
		if worker.IsStale(threshold) {
			w := *worker
			stale = append(stale, &w)
		}
	}
	return stale, nil
}
