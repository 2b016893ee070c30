package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/shared/logging"
)

type HealthCheckerConfig struct {
	CheckInterval time.Duration
	// StaleTimeout is how long a worker may go without a heartbeat before
	// it is evicted.
	StaleTimeout time.Duration
}

// WorkerHealthChecker evicts workers that stopped sending heartbeats. The
// dividends an evicted worker held go back to the queue so another worker
// can finish the job.
type WorkerHealthChecker struct {
	cfg           HealthCheckerConfig
	workerService core.WorkerService
	jobService    core.JobService
	logger        logging.Logger
}

func NewWorkerHealthChecker(
	cfg HealthCheckerConfig,
	workerService core.WorkerService,
	jobService core.JobService,
	logger logging.Logger,
) *WorkerHealthChecker {
	return &WorkerHealthChecker{
		cfg:           cfg,
		workerService: workerService,
		jobService:    jobService,
		logger:        logger,
	}
}

// Run sweeps every CheckInterval until ctx is done.
func (h *WorkerHealthChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep()
		}
	}
}

// Sweep evicts the currently stale workers and returns how many were
// evicted.
func (h *WorkerHealthChecker) Sweep() int {
	stale, err := h.workerService.GetStaleWorkers(h.cfg.StaleTimeout)
	if err != nil {
		h.logger.Error("Failed to get stale workers", "error", err)
		return 0
	}

	evicted := 0
	for _, worker := range stale {
		h.logger.Warn("Evicting stale worker",
			"worker_id", worker.ID,
			"name", worker.Name,
			"status", worker.Status,
			"last_heartbeat_at", worker.LastHeartbeatAt,
		)
		if err := h.evict(worker); err != nil {
			h.logger.Error("Failed to evict worker", "worker_id", worker.ID, "error", err)
			continue
		}
		evicted++
	}
	return evicted
}

// evict always tries to deregister the worker, even if its dividends could
// not be requeued.
func (h *WorkerHealthChecker) evict(worker *core.Worker) error {
	var errs []error
	if err := h.jobService.RequeueWorkerDividends(worker.ID); err != nil {
		errs = append(errs, fmt.Errorf("requeue dividends: %w", err))
	}
	if err := h.workerService.RemoveWorker(worker.ID); err != nil && !errors.Is(err, core.ErrWorkerNotFound) {
		errs = append(errs, fmt.Errorf("remove worker: %w", err))
	}
	return errors.Join(errs...)
}
