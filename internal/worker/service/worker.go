package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	coordinator "github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/shared/logging"
	"github.com/nemanja-m/divvy/internal/worker/core"
)

const (
	minBackoff = 100 * time.Millisecond
	maxBackoff = 5 * time.Second
)

type workerService struct {
	name              string
	client            core.JobClient
	executor          core.DividendExecutor
	heartbeatInterval time.Duration
	logger            logging.Logger
}

func NewWorkerService(
	name string,
	client core.JobClient,
	executor core.DividendExecutor,
	heartbeatInterval time.Duration,
	logger logging.Logger,
) core.WorkerService {
	return &workerService{
		name:              name,
		client:            client,
		executor:          executor,
		heartbeatInterval: heartbeatInterval,
		logger:            logger,
	}
}

// Run registers the worker and processes dividends until ctx is done. The
// worker deregisters on return.
func (w *workerService) Run(ctx context.Context) error {
	workerID, err := w.client.RegisterWorker(ctx, w.name)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.client.Close(); err != nil {
			w.logger.Error("Failed to deregister worker", "worker_id", workerID.String(), "error", err)
		}
	}()
	w.logger.Info("Worker started", "worker_id", workerID.String(), "name", w.name)

	// The heartbeat loop must be gone before Close deregisters the worker.
	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Go(func() { w.runHeartbeatLoop(heartbeatCtx) })

	w.runDividendLoop(ctx, workerID)

	stopHeartbeat()
	wg.Wait()

	w.logger.Info("Worker stopped", "worker_id", workerID.String(), "name", w.name)
	return nil
}

func (w *workerService) runHeartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.client.SendHeartbeat(ctx); err != nil {
				w.logger.Error("Failed to send heartbeat", "error", err)
			} else {
				w.logger.Debug("Heartbeat sent successfully")
			}
		}
	}
}

func (w *workerService) runDividendLoop(ctx context.Context, workerID uuid.UUID) {
	backoff := minBackoff

	for ctx.Err() == nil {
		d, err := w.client.PullDividend(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Error("Failed to pull dividend", "error", err)
			}
			backoff = w.wait(ctx, backoff)
			continue
		}
		if d == nil {
			backoff = w.wait(ctx, backoff)
			continue
		}

		backoff = minBackoff
		w.process(ctx, workerID, d)
	}
}

func (w *workerService) process(ctx context.Context, workerID uuid.UUID, d *coordinator.Dividend) {
	w.logger.Info("Received dividend",
		"worker_id", workerID.String(),
		"job_id", d.JobID.String(),
		"operator", d.Requirement.Operator.String(),
		"dividend", d.String(),
	)

	tr := w.executor.Execute(ctx, d)

	// A dividend interrupted by shutdown goes back to the queue instead of
	// failing its job.
	if ctx.Err() != nil {
		w.logger.Warn("Releasing interrupted dividend", "job_id", d.JobID.String(), "dividend", d.String())
		if err := w.client.ReleaseDividend(context.WithoutCancel(ctx), d); err != nil {
			w.logger.Error("Failed to release dividend", "job_id", d.JobID.String(), "error", err)
		}
		return
	}

	if tr.Succeeded() {
		w.logger.Info("Dividend completed", "job_id", d.JobID.String(), "dividend", d.String(), "cost", tr.Cost)
		if err := w.client.CompleteDividend(ctx, d, tr); err != nil {
			w.logger.Error("Failed to report dividend completion", "job_id", d.JobID.String(), "error", err)
		}
		return
	}

	if tr.Error == nil {
		msg := "dividend produced no output"
		tr.Error = &msg
	}
	w.logger.Error("Dividend failed", "job_id", d.JobID.String(), "dividend", d.String(), "error", *tr.Error)
	if err := w.client.FailDividend(ctx, d, tr); err != nil {
		w.logger.Error("Failed to report dividend failure", "job_id", d.JobID.String(), "error", err)
	}
}

// wait sleeps for backoff or until ctx is done and returns the next backoff.
func (w *workerService) wait(ctx context.Context, backoff time.Duration) time.Duration {
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return min(backoff*2, maxBackoff)
}
