package core

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWorkerNotFound      = errors.New("worker not found")
	ErrInvalidWorkerStatus = errors.New("invalid worker status")
)

type WorkerStatus string

const (
	WorkerStatusActive WorkerStatus = "ACTIVE"
	WorkerStatusBusy   WorkerStatus = "BUSY"
)

func (s WorkerStatus) Valid() bool {
	return s == WorkerStatusActive || s == WorkerStatusBusy
}

// Worker is a registered executor of dividends.
type Worker struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	Status          WorkerStatus `json:"status"`
	RegisteredAt    time.Time    `json:"registered_at"`
	LastHeartbeatAt time.Time    `json:"last_heartbeat_at"`
}

func (w *Worker) IsStale(threshold time.Time) bool {
	return w.LastHeartbeatAt.Before(threshold)
}
