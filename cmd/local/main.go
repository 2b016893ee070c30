package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nemanja-m/divvy/internal/bootstrap"
	"github.com/nemanja-m/divvy/internal/coordinator/api/rest"
	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/coordinator/service"
	"github.com/nemanja-m/divvy/internal/shared/config"
	"github.com/nemanja-m/divvy/internal/shared/logging"
)

const pollInterval = 100 * time.Millisecond

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file")
		operator    = flag.String("operator", "", "operator kind (e.g., ob_sim, ob_ss, recgen_build, gromacs_run_gmx_command)")
		fingerprint = flag.String("fingerprint", "", "fingerprint for ob_sim (e.g., ob_ecfp4_2048)")
		dataset     = flag.String("dataset", "", "dataset kind (e.g., dummy, test_chembl)")
		input       = flag.String("input", "", "operator input as JSON")
		workers     = flag.Int("workers", 0, "number of workers (overrides config)")
		output      = flag.String("output", "", "write the report to this file")
	)
	flag.Parse()

	if *operator == "" || *input == "" {
		fmt.Fprintln(os.Stderr, "Both -operator and -input must be specified")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	cfg.Storage.Backend = config.StorageMemory
	if *workers > 0 {
		cfg.Workers.Count = *workers
	}
	if cfg.Workers.Count == 0 {
		cfg.Workers.Count = 1
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}

	req := rest.SubmitJobRequest{
		Operator:    *operator,
		Fingerprint: *fingerprint,
		Dataset:     *dataset,
		Input:       json.RawMessage(*input),
	}
	requirement, _, err := req.ToRequirement()
	if err != nil {
		logger.Fatal("Invalid requirement", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.NewStores(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open storage", "error", err)
	}
	defer stores.Close()
	deps, err := bootstrap.NewOperatorDeps(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to prepare operators", "error", err)
	}

	jobService := service.NewJobService(stores.Jobs, service.JobServiceConfig{
		BlockSize:    cfg.Datasets.BlockSize,
		MaxDividends: cfg.Datasets.MaxDividends,
	}, logger)
	workerService := service.NewWorkerService(stores.Workers, logger)

	recovered, err := jobService.Recover()
	if err != nil {
		logger.Fatal("Failed to recover jobs", "error", err)
	}
	if recovered > 0 {
		logger.Info("Requeued dividends of unfinished jobs", "dividends", recovered)
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	pool, err := bootstrap.StartWorkers(workerCtx, cfg.Workers, jobService, workerService, deps, logger)
	if err != nil {
		logger.Fatal("Failed to start workers", "error", err)
	}

	job, err := jobService.SubmitJob(requirement, core.PriorityHigh)
	if err != nil {
		logger.Fatal("Failed to submit job", "error", err)
	}
	logger.Info("Starting job",
		"job_id", job.ID.String(),
		"operator", requirement.Operator.String(),
		"dataset", requirement.Dataset.String(),
		"dividends", job.Divisor(),
		"workers", cfg.Workers.Count,
	)

	job, err = waitForJob(ctx, jobService, job)
	cancelWorkers()
	pool.Close()
	if err != nil {
		logger.Fatal("Job interrupted", "job_id", job.ID.String(), "error", err)
	}

	if job.Status != core.JobStatusCompletedSuccess {
		msg := "cancelled"
		if job.Error != nil {
			msg = *job.Error
		}
		logger.Fatal("Job failed", "job_id", job.ID.String(), "status", job.Status.String(), "error", msg)
	}

	result, err := stores.Jobs.GetResult(job.ID)
	if err != nil {
		logger.Fatal("Failed to load result", "job_id", job.ID.String(), "error", err)
	}
	report, err := result.Report(job.ID.String())
	if err != nil {
		logger.Fatal("Failed to assemble report", "job_id", job.ID.String(), "error", err)
	}
	report.Print(os.Stdout)

	if *output != "" {
		n, err := jobService.SaveReport(job.ID, *output)
		if err != nil {
			logger.Fatal("Failed to save report", "path", *output, "error", err)
		}
		logger.Info("Report saved", "path", *output, "bytes", n)
	}

	logger.Info("Job completed successfully",
		"job_id", job.ID.String(),
		"duration", job.Duration().String(),
		"cost", job.Cost,
	)
}

// waitForJob polls until job is terminal or ctx is done.
func waitForJob(ctx context.Context, jobs core.JobService, job *core.Job) (*core.Job, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
			latest, err := jobs.GetJob(job.ID)
			if err != nil {
				return job, err
			}
			if latest.Status.IsTerminal() {
				return latest, nil
			}
			job = latest
		}
	}
}
