package bootstrap

import (
	"context"
	"fmt"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/operator"
	"github.com/nemanja-m/divvy/internal/shared/config"
	"github.com/nemanja-m/divvy/internal/shared/logging"
	"github.com/nemanja-m/divvy/internal/worker/api/local"
	workerservice "github.com/nemanja-m/divvy/internal/worker/service"
	"github.com/nemanja-m/divvy/pkg/pool"
)

// StartWorkers runs cfg.Count workers against the coordinator services
// until ctx is done. Close the returned pool to wait for them to
// deregister.
func StartWorkers(
	ctx context.Context,
	cfg config.WorkersConfig,
	jobs core.JobService,
	workers core.WorkerService,
	deps operator.Deps,
	logger logging.Logger,
) (*pool.Pool, error) {
	executor := workerservice.NewOperatorExecutor(deps, cfg.CreditsPerSecond, logger)

	p := pool.New(cfg.Count)
	p.Start()
	for i := range cfg.Count {
		worker := workerservice.NewWorkerService(
			fmt.Sprintf("worker-%d", i),
			local.NewCoordinatorClient(jobs, workers),
			executor,
			cfg.HeartbeatInterval,
			logger,
		)
		err := p.Submit(ctx, func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("Worker exited", "worker", i, "error", err)
			}
		})
		if err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}
