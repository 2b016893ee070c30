package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

func saveTestJob(t *testing.T, store core.JobStore, status core.JobStatus, submittedAt time.Time) *core.Job {
	t.Helper()
	req := core.NewRequirement(`{"smarts":"`+uuid.NewString()+`"}`, kinds.Substructure{}, kinds.DatasetDummy)
	job, err := core.NewJob(req, 2)
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}
	job.Status = status
	job.SubmittedAt = submittedAt
	if err := store.SaveJob(job, core.NewResult(req, 2)); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}
	return job
}

func TestGetJobs_StatusFilter(t *testing.T) {
	store := NewInMemoryJobStore()
	now := time.Now()

	saveTestJob(t, store, core.JobStatusCreated, now)
	saveTestJob(t, store, core.JobStatusProcessing, now)
	saveTestJob(t, store, core.JobStatusCompletedSuccess, now)

	createdStatus := core.JobStatusCreated
	filter := core.JobFilter{
		Status: &createdStatus,
		Limit:  10,
		Offset: 0,
	}

	jobs, total, err := store.GetJobs(filter)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 1 {
		t.Errorf("Expected total 1, got %d", total)
	}
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Status != core.JobStatusCreated {
		t.Errorf("Expected status CREATED, got %s", jobs[0].Status)
	}
}

func TestGetJobs_NoStatusFilter(t *testing.T) {
	store := NewInMemoryJobStore()
	for range 5 {
		saveTestJob(t, store, core.JobStatusCreated, time.Now())
	}

	jobs, total, err := store.GetJobs(core.JobFilter{Limit: 10})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}
	if len(jobs) != 5 {
		t.Errorf("Expected 5 jobs, got %d", len(jobs))
	}
}

func TestGetJobs_Pagination(t *testing.T) {
	store := NewInMemoryJobStore()
	base := time.Now()
	var ids []uuid.UUID
	for i := range 15 {
		job := saveTestJob(t, store, core.JobStatusCreated, base.Add(time.Duration(i)*time.Second))
		ids = append(ids, job.ID)
	}

	filter := core.JobFilter{Limit: 10, Offset: 0}
	jobs, total, err := store.GetJobs(filter)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 15 {
		t.Errorf("Expected total 15, got %d", total)
	}
	if len(jobs) != 10 {
		t.Errorf("Expected 10 jobs in first page, got %d", len(jobs))
	}
	if jobs[0].ID != ids[0] {
		t.Errorf("Expected oldest job first")
	}

	filter.Offset = 10
	jobs, total, err = store.GetJobs(filter)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 15 {
		t.Errorf("Expected total 15, got %d", total)
	}
	if len(jobs) != 5 {
		t.Errorf("Expected 5 jobs in second page, got %d", len(jobs))
	}
	if jobs[4].ID != ids[14] {
		t.Errorf("Expected newest job last")
	}
}

func TestGetJobs_StatusFilterAndPagination(t *testing.T) {
	store := NewInMemoryJobStore()
	for range 8 {
		saveTestJob(t, store, core.JobStatusProcessing, time.Now())
	}
	for range 4 {
		saveTestJob(t, store, core.JobStatusCancelled, time.Now())
	}

	status := core.JobStatusProcessing
	jobs, total, err := store.GetJobs(core.JobFilter{Status: &status, Limit: 5, Offset: 5})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 8 {
		t.Errorf("Expected total 8, got %d", total)
	}
	if len(jobs) != 3 {
		t.Errorf("Expected 3 jobs, got %d", len(jobs))
	}
}

func TestGetJobs_EmptyResults(t *testing.T) {
	store := NewInMemoryJobStore()
	saveTestJob(t, store, core.JobStatusCreated, time.Now())

	status := core.JobStatusCompletedError
	jobs, total, err := store.GetJobs(core.JobFilter{Status: &status, Limit: 10})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 0 || len(jobs) != 0 {
		t.Errorf("Expected no jobs, got %d of %d", len(jobs), total)
	}
}

func TestGetJobs_OffsetBeyondTotal(t *testing.T) {
	store := NewInMemoryJobStore()
	for range 3 {
		saveTestJob(t, store, core.JobStatusCreated, time.Now())
	}

	jobs, total, err := store.GetJobs(core.JobFilter{Limit: 10, Offset: 100})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 3 {
		t.Errorf("Expected total 3, got %d", total)
	}
	if len(jobs) != 0 {
		t.Errorf("Expected 0 jobs, got %d", len(jobs))
	}
}

func TestInMemoryJobStore_ReturnsCopies(t *testing.T) {
	store := NewInMemoryJobStore()
	job := saveTestJob(t, store, core.JobStatusCreated, time.Now())

	got, _ := store.GetJobByID(job.ID)
	got.Status = core.JobStatusCancelled

	again, _ := store.GetJobByID(job.ID)
	if again.Status != core.JobStatusCreated {
		t.Error("mutating a returned job changed the stored job")
	}
}

func TestInMemoryJobStore(t *testing.T) {
	testJobStore(t, func(t *testing.T) core.JobStore { return NewInMemoryJobStore() })
}

func TestInMemoryWorkerStore(t *testing.T) {
	testWorkerStore(t, func(t *testing.T) core.WorkerStore { return NewInMemoryWorkerStore() })
}
