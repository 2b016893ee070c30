package core

import (
	"context"

	"github.com/google/uuid"

	coordinator "github.com/nemanja-m/divvy/internal/coordinator/core"
)

// JobClient is a worker's view of the coordinator.
type JobClient interface {
	RegisterWorker(ctx context.Context, name string) (uuid.UUID, error)
	SendHeartbeat(ctx context.Context) error
	// PullDividend returns nil when no dividend is waiting.
	PullDividend(ctx context.Context) (*coordinator.Dividend, error)
	CompleteDividend(ctx context.Context, d *coordinator.Dividend, tr *coordinator.TaskResult) error
	FailDividend(ctx context.Context, d *coordinator.Dividend, tr *coordinator.TaskResult) error
	ReleaseDividend(ctx context.Context, d *coordinator.Dividend) error
	Close() error
}

type WorkerService interface {
	Run(ctx context.Context) error
}

// DividendExecutor runs one dividend. The returned TaskResult carries either
// an output or an error message, plus timing and cost.
type DividendExecutor interface {
	Execute(ctx context.Context, d *coordinator.Dividend) *coordinator.TaskResult
}
