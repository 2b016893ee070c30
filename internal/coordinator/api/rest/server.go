package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/shared/logging"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

type API struct {
	jobService    core.JobService
	workerService core.WorkerService
	logger        logging.Logger
}

func NewAPI(jobService core.JobService, workerService core.WorkerService, logger logging.Logger) *API {
	return &API{
		jobService:    jobService,
		workerService: workerService,
		logger:        logger,
	}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/jobs", a.submitJob)
	mux.HandleFunc("GET /api/jobs", a.listJobs)
	mux.HandleFunc("GET /api/jobs/{id}", a.getJob)
	mux.HandleFunc("GET /api/jobs/{id}/tasks", a.getJobTasks)
	mux.HandleFunc("GET /api/jobs/{id}/result", a.getJobResult)
	mux.HandleFunc("POST /api/jobs/{id}/cancel", a.cancelJob)
	mux.HandleFunc("GET /api/kinds", a.getKinds)
	mux.HandleFunc("GET /api/workers", a.listWorkers)
}

// submitJob handles POST /api/jobs. Submitting a requirement that is already
// running or completed returns the existing job.
func (a *API) submitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	requirement, priority, err := req.ToRequirement()
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	job, err := a.jobService.SubmitJob(requirement, priority)
	if err != nil {
		a.respondServiceError(w, "failed to submit job", err)
		return
	}

	a.respondJSON(w, http.StatusCreated, ToSubmitJobResponse(job))
}

// getJob handles GET /api/jobs/{id}
func (a *API) getJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.parseJobID(w, r)
	if !ok {
		return
	}

	job, err := a.jobService.GetJob(jobID)
	if err != nil {
		a.respondServiceError(w, "failed to get job", err)
		return
	}

	a.respondJSON(w, http.StatusOK, ToGetJobResponse(job))
}

// listJobs handles GET /api/jobs with filters and pagination
func (a *API) listJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := core.JobFilter{Limit: defaultListLimit}
	if statusStr := query.Get("status"); statusStr != "" {
		status, err := core.ParseJobStatus(statusStr)
		if err != nil {
			a.respondError(w, http.StatusBadRequest, "invalid status filter", err.Error())
			return
		}
		filter.Status = &status
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = min(l, maxListLimit)
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	jobs, total, err := a.jobService.GetJobs(filter)
	if err != nil {
		a.respondServiceError(w, "failed to list jobs", err)
		return
	}

	summaries := make([]JobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, ToJobSummary(job))
	}

	var nextOffset *int
	if end := filter.Offset + len(jobs); end < total {
		nextOffset = &end
	}

	a.respondJSON(w, http.StatusOK, ListJobsResponse{
		Jobs:       summaries,
		Total:      total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
		NextOffset: nextOffset,
	})
}

// getJobTasks handles GET /api/jobs/{id}/tasks
func (a *API) getJobTasks(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.parseJobID(w, r)
	if !ok {
		return
	}

	results, err := a.jobService.GetTaskResults(jobID)
	if err != nil {
		a.respondServiceError(w, "failed to get tasks", err)
		return
	}

	tasks := make([]TaskInfo, 0, len(results))
	for _, tr := range results {
		tasks = append(tasks, ToTaskInfo(tr))
	}

	a.respondJSON(w, http.StatusOK, GetTasksResponse{Tasks: tasks})
}

// getJobResult handles GET /api/jobs/{id}/result
func (a *API) getJobResult(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.parseJobID(w, r)
	if !ok {
		return
	}

	// Status and outputs come from the same read of the job.
	job, err := a.jobService.GetJob(jobID)
	if err != nil {
		a.respondServiceError(w, "failed to get result", err)
		return
	}
	result := job.GetResult()

	a.respondJSON(w, http.StatusOK, ToGetResultResponse(job, &result))
}

// cancelJob handles POST /api/jobs/{id}/cancel
func (a *API) cancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.parseJobID(w, r)
	if !ok {
		return
	}

	job, err := a.jobService.CancelJob(jobID)
	if err != nil {
		a.respondServiceError(w, "failed to cancel job", err)
		return
	}

	a.respondJSON(w, http.StatusOK, ToGetJobResponse(job))
}

// getKinds handles GET /api/kinds
func (a *API) getKinds(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, ToKindsResponse())
}

// listWorkers handles GET /api/workers
func (a *API) listWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := a.workerService.GetWorkers()
	if err != nil {
		a.respondServiceError(w, "failed to list workers", err)
		return
	}

	infos := make([]WorkerInfo, 0, len(workers))
	for _, worker := range workers {
		infos = append(infos, ToWorkerInfo(worker))
	}

	a.respondJSON(w, http.StatusOK, ListWorkersResponse{Workers: infos})
}

func (a *API) parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		a.respondError(w, http.StatusBadRequest, "job ID required", "")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid job ID", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) respondServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, core.ErrJobNotFound):
		a.respondError(w, http.StatusNotFound, "job not found", err.Error())
	case errors.Is(err, core.ErrJobTerminal), errors.Is(err, core.ErrJobNotCompleted):
		a.respondError(w, http.StatusConflict, msg, err.Error())
	case errors.Is(err, core.ErrInvalidDivisor):
		a.respondError(w, http.StatusBadRequest, msg, err.Error())
	default:
		a.logger.Error(msg, "error", err)
		a.respondError(w, http.StatusInternalServerError, msg, "")
	}
}

func (a *API) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("Failed to encode response", "error", err)
	}
}

func (a *API) respondError(w http.ResponseWriter, statusCode int, error string, message string) {
	resp := ErrorResponse{
		Error:   error,
		Message: message,
		Code:    statusCode,
	}
	a.respondJSON(w, statusCode, resp)
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func NewServer(cfg ServerConfig, api *API, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	handler := ChainMiddleware(
		mux,
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger),
	)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
