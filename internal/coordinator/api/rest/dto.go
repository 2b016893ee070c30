package rest

import (
	"encoding/json"
	"time"
)

type SubmitJobRequest struct {
	Operator string `json:"operator"`
	// Fingerprint overrides the default fingerprint of ob_sim.
	Fingerprint string          `json:"fingerprint,omitempty"`
	Dataset     string          `json:"dataset"`
	Input       json.RawMessage `json:"input"`
	Priority    string          `json:"priority,omitempty"` // "high", "medium" or "low"
}

type SubmitJobResponse struct {
	JobID       string    `json:"job_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	Dividends   int       `json:"dividends"`
	Links       Links     `json:"links"`
}

type Links struct {
	Self   string `json:"self"`
	Result string `json:"result,omitempty"`
}

type GetJobResponse struct {
	JobID           string          `json:"job_id"`
	Operator        string          `json:"operator"`
	Dataset         string          `json:"dataset"`
	Input           json.RawMessage `json:"input"`
	Status          string          `json:"status"`
	Priority        string          `json:"priority"`
	Progress        ProgressInfo    `json:"progress"`
	Timestamps      TimestampsInfo  `json:"timestamps"`
	Cost            float64         `json:"cost"`
	DurationSeconds float64         `json:"duration_seconds"`
	Error           *string         `json:"error,omitempty"`
	Links           Links           `json:"links"`
}

type ProgressInfo struct {
	Kind       string  `json:"kind"` // "percentage" or "blocks"
	Percentage float64 `json:"percentage"`
	Total      int     `json:"total"`
	Waiting    int     `json:"waiting"`
	Processing int     `json:"processing"`
	Completed  int     `json:"completed"`
}

type TimestampsInfo struct {
	Submitted time.Time  `json:"submitted"`
	Started   *time.Time `json:"started"`
	Completed *time.Time `json:"completed"`
}

type ListJobsResponse struct {
	Jobs       []JobSummary `json:"jobs"`
	Total      int          `json:"total"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
	NextOffset *int         `json:"next_offset,omitempty"`
}

type JobSummary struct {
	JobID       string     `json:"job_id"`
	Operator    string     `json:"operator"`
	Dataset     string     `json:"dataset"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type GetTasksResponse struct {
	Tasks []TaskInfo `json:"tasks"`
}

type TaskInfo struct {
	Index     int        `json:"index"`
	Status    string     `json:"status"` // "SUCCEEDED" or "FAILED"
	WorkerID  string     `json:"worker_id,omitempty"`
	Cost      float64    `json:"cost"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Error     *string    `json:"error,omitempty"`
}

type GetResultResponse struct {
	JobID   string            `json:"job_id"`
	Status  string            `json:"status"`
	Outputs []json.RawMessage `json:"outputs"`
	Error   *string           `json:"error,omitempty"`
}

type KindsResponse struct {
	Operators    []OperatorInfo `json:"operators"`
	Datasets     []DatasetInfo  `json:"datasets"`
	Fingerprints []string       `json:"fingerprints"`
}

type OperatorInfo struct {
	Name        string `json:"name"`
	App         string `json:"app"`
	Computation string `json:"computation"`
	Default     string `json:"default"`
}

type DatasetInfo struct {
	Name   string `json:"name"`
	Size   int    `json:"size"`
	Source string `json:"source,omitempty"`
}

type ListWorkersResponse struct {
	Workers []WorkerInfo `json:"workers"`
}

type WorkerInfo struct {
	WorkerID        string    `json:"worker_id"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	RegisteredAt    time.Time `json:"registered_at"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
