package service

import (
	"context"
	"time"

	coordinator "github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/operator"
	"github.com/nemanja-m/divvy/internal/shared/logging"
	"github.com/nemanja-m/divvy/internal/worker/core"
)

type operatorExecutor struct {
	deps             operator.Deps
	creditsPerSecond float64
	now              func() time.Time
	logger           logging.Logger
}

// NewOperatorExecutor runs dividends through the operator of their
// requirement. A dividend costs its wall time in seconds times
// creditsPerSecond.
func NewOperatorExecutor(deps operator.Deps, creditsPerSecond float64, logger logging.Logger) core.DividendExecutor {
	return &operatorExecutor{
		deps:             deps,
		creditsPerSecond: creditsPerSecond,
		now:              func() time.Time { return time.Now().UTC() },
		logger:           logger,
	}
}

func (e *operatorExecutor) Execute(ctx context.Context, d *coordinator.Dividend) *coordinator.TaskResult {
	start := e.now()
	tr := &coordinator.TaskResult{Index: d.Index, StartedAt: start}

	output, err := e.run(ctx, d)

	tr.EndedAt = e.now()
	tr.Cost = tr.EndedAt.Sub(start).Seconds() * e.creditsPerSecond
	if err != nil {
		msg := err.Error()
		tr.Error = &msg
		return tr
	}
	tr.Output = &output
	return tr
}

func (e *operatorExecutor) run(ctx context.Context, d *coordinator.Dividend) (string, error) {
	unit, err := operator.New(d.Requirement.Operator, e.deps)
	if err != nil {
		return "", err
	}
	e.logger.Debug("Running dividend",
		"job_id", d.JobID.String(),
		"operator", d.Requirement.Operator.String(),
		"dividend", d.String(),
	)
	return unit.Run(ctx, d.JobID.String(), d.Requirement.Input, d.Requirement.Dataset, d.Dividend)
}
