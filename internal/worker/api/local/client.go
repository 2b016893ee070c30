// Package local connects a worker to a coordinator running in the same
// process.
package local

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	coordinator "github.com/nemanja-m/divvy/internal/coordinator/core"
)

var ErrNotRegistered = errors.New("worker is not registered")

// CoordinatorClient implements the worker's JobClient directly on top of
// the coordinator services. It is safe for concurrent use.
type CoordinatorClient struct {
	jobs    coordinator.JobService
	workers coordinator.WorkerService

	mu       sync.RWMutex
	workerID uuid.UUID
}

func NewCoordinatorClient(jobs coordinator.JobService, workers coordinator.WorkerService) *CoordinatorClient {
	return &CoordinatorClient{jobs: jobs, workers: workers}
}

func (c *CoordinatorClient) WorkerID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workerID
}

// registered returns the worker id or ErrNotRegistered.
func (c *CoordinatorClient) registered() (uuid.UUID, error) {
	id := c.WorkerID()
	if id == uuid.Nil {
		return uuid.Nil, ErrNotRegistered
	}
	return id, nil
}

func (c *CoordinatorClient) RegisterWorker(ctx context.Context, name string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	worker := &coordinator.Worker{ID: uuid.New(), Name: name}
	if err := c.workers.RegisterWorker(worker); err != nil {
		return uuid.Nil, fmt.Errorf("failed to register worker: %w", err)
	}

	c.mu.Lock()
	c.workerID = worker.ID
	c.mu.Unlock()
	return worker.ID, nil
}

func (c *CoordinatorClient) SendHeartbeat(ctx context.Context) error {
	workerID, err := c.registered()
	if err != nil {
		return err
	}
	return c.workers.RecordHeartbeat(workerID)
}

func (c *CoordinatorClient) PullDividend(ctx context.Context) (*coordinator.Dividend, error) {
	workerID, err := c.registered()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := c.jobs.NextDividend(workerID)
	if err != nil || d == nil {
		return nil, err
	}
	c.setStatus(workerID, coordinator.WorkerStatusBusy)
	return d, nil
}

func (c *CoordinatorClient) CompleteDividend(ctx context.Context, d *coordinator.Dividend, tr *coordinator.TaskResult) error {
	workerID, err := c.registered()
	if err != nil {
		return err
	}
	defer c.setStatus(workerID, coordinator.WorkerStatusActive)
	tr.WorkerID = workerID.String()
	return c.jobs.CompleteDividend(workerID, d.JobID, d.Index, tr)
}

func (c *CoordinatorClient) FailDividend(ctx context.Context, d *coordinator.Dividend, tr *coordinator.TaskResult) error {
	workerID, err := c.registered()
	if err != nil {
		return err
	}
	defer c.setStatus(workerID, coordinator.WorkerStatusActive)
	tr.WorkerID = workerID.String()
	return c.jobs.FailDividend(workerID, d.JobID, d.Index, tr)
}

func (c *CoordinatorClient) ReleaseDividend(ctx context.Context, d *coordinator.Dividend) error {
	workerID, err := c.registered()
	if err != nil {
		return err
	}
	defer c.setStatus(workerID, coordinator.WorkerStatusActive)
	return c.jobs.ReleaseDividend(workerID, d.JobID, d.Index)
}

// Close hands back whatever the worker still holds and deregisters it.
func (c *CoordinatorClient) Close() error {
	c.mu.Lock()
	workerID := c.workerID
	c.workerID = uuid.Nil
	c.mu.Unlock()

	if workerID == uuid.Nil {
		return nil
	}
	requeueErr := c.jobs.RequeueWorkerDividends(workerID)
	removeErr := c.workers.RemoveWorker(workerID)
	if errors.Is(removeErr, coordinator.ErrWorkerNotFound) {
		removeErr = nil
	}
	return errors.Join(requeueErr, removeErr)
}

// setStatus is best effort; the health checker may already have removed
// the worker.
func (c *CoordinatorClient) setStatus(workerID uuid.UUID, status coordinator.WorkerStatus) {
	_ = c.workers.SetStatus(workerID, status)
}
