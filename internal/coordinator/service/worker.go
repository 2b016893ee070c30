package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/shared/logging"
)

type workerService struct {
	workerStore core.WorkerStore
	logger      logging.Logger
}

func NewWorkerService(workerStore core.WorkerStore, logger logging.Logger) core.WorkerService {
	return &workerService{
		workerStore: workerStore,
		logger:      logger,
	}
}

// RegisterWorker marks the worker active with a fresh heartbeat. Unnamed
// workers are named after their id.
func (s *workerService) RegisterWorker(worker *core.Worker) error {
	if worker == nil || worker.ID == uuid.Nil {
		return errors.New("worker id is required")
	}
	if worker.Name == "" {
		worker.Name = "worker-" + worker.ID.String()[:8]
	}
	s.logger.Debug("Registering worker", "worker_id", worker.ID, "name", worker.Name)

	now := time.Now()
	worker.Status = core.WorkerStatusActive
	worker.RegisteredAt = now
	worker.LastHeartbeatAt = now
	return s.workerStore.AddWorker(worker)
}

func (s *workerService) RecordHeartbeat(workerID uuid.UUID) error {
	return s.workerStore.UpdateWorkerHeartbeat(workerID, time.Now())
}

func (s *workerService) SetStatus(workerID uuid.UUID, status core.WorkerStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidWorkerStatus, status)
	}
	return s.workerStore.UpdateWorkerStatus(workerID, status)
}

func (s *workerService) RemoveWorker(workerID uuid.UUID) error {
	if err := s.workerStore.RemoveWorker(workerID); err != nil {
		return err
	}
	s.logger.Info("Worker deregistered", "worker_id", workerID)
	return nil
}

// GetWorkers lists workers in registration order.
func (s *workerService) GetWorkers() ([]*core.Worker, error) {
	workers, err := s.workerStore.GetAllWorkers()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(workers, func(a, b *core.Worker) int {
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return workers, nil
}

func (s *workerService) GetStaleWorkers(timeout time.Duration) ([]*core.Worker, error) {
	threshold := time.Now().Add(-timeout)
	return s.workerStore.GetStaleWorkers(threshold)
}
