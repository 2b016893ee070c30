package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

// testJobStore runs the behaviour every JobStore must share.
func testJobStore(t *testing.T, newStore func(t *testing.T) core.JobStore) {
	t.Run("round trips job and result", func(t *testing.T) {
		store := newStore(t)
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		job := saveTestJob(t, store, core.JobStatusCreated, now)

		_ = job.AssignTask(now)
		_ = job.CompleteTaskWithSuccess(1, `{"results":[]}`, 0.5, now)
		if err := store.UpdateJob(job); err != nil {
			t.Fatalf("UpdateJob() error = %v", err)
		}
		output := `{"results":[]}`
		tr := &core.TaskResult{Output: &output, StartedAt: now, EndedAt: now.Add(time.Second), Cost: 0.5, WorkerID: "w1"}
		if err := store.UpdateResult(job.ID, 1, tr); err != nil {
			t.Fatalf("UpdateResult() error = %v", err)
		}

		got, err := store.GetJobByID(job.ID)
		if err != nil {
			t.Fatalf("GetJobByID() error = %v", err)
		}
		if got.Status != core.JobStatusProcessing || got.Progress != job.Progress || got.Cost != 0.5 {
			t.Errorf("unexpected job %+v", got)
		}
		if got.Requirement != job.Requirement {
			t.Errorf("requirement = %v, want %v", got.Requirement, job.Requirement)
		}

		result, err := store.GetResult(job.ID)
		if err != nil {
			t.Fatalf("GetResult() error = %v", err)
		}
		if len(result.Tasks) != 2 || result.Tasks[0] != nil {
			t.Fatalf("unexpected result tasks %+v", result.Tasks)
		}
		stored := result.Tasks[1]
		if stored.Index != 1 || *stored.Output != output || stored.WorkerID != "w1" || !stored.EndedAt.Equal(now.Add(time.Second)) {
			t.Errorf("unexpected task result %+v", stored)
		}
	})

	t.Run("missing job", func(t *testing.T) {
		store := newStore(t)
		id := uuid.New()
		if _, err := store.GetJobByID(id); !errors.Is(err, core.ErrJobNotFound) {
			t.Errorf("GetJobByID() error = %v, want ErrJobNotFound", err)
		}
		if _, err := store.GetResult(id); !errors.Is(err, core.ErrJobNotFound) {
			t.Errorf("GetResult() error = %v, want ErrJobNotFound", err)
		}
		if err := store.UpdateResult(id, 0, &core.TaskResult{}); !errors.Is(err, core.ErrJobNotFound) {
			t.Errorf("UpdateResult() error = %v, want ErrJobNotFound", err)
		}
		job, _ := core.NewJob(core.NewRequirement("{}", kinds.Substructure{}, kinds.DatasetDummy), 1)
		if err := store.UpdateJob(job); !errors.Is(err, core.ErrJobNotFound) {
			t.Errorf("UpdateJob() error = %v, want ErrJobNotFound", err)
		}
	})

	t.Run("result index out of range", func(t *testing.T) {
		store := newStore(t)
		job := saveTestJob(t, store, core.JobStatusCreated, time.Now())
		if err := store.UpdateResult(job.ID, 2, &core.TaskResult{}); !errors.Is(err, core.ErrDividendOutOfRange) {
			t.Errorf("UpdateResult() error = %v, want ErrDividendOutOfRange", err)
		}
	})

	t.Run("lists jobs by submission time", func(t *testing.T) {
		store := newStore(t)
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		second := saveTestJob(t, store, core.JobStatusCreated, base.Add(time.Minute))
		first := saveTestJob(t, store, core.JobStatusCancelled, base)

		jobs, total, err := store.GetJobs(core.JobFilter{Limit: 10})
		if err != nil {
			t.Fatalf("GetJobs() error = %v", err)
		}
		if total != 2 || jobs[0].ID != first.ID || jobs[1].ID != second.ID {
			t.Errorf("unexpected listing, total %d", total)
		}

		status := core.JobStatusCancelled
		jobs, total, _ = store.GetJobs(core.JobFilter{Status: &status, Limit: 10})
		if total != 1 || jobs[0].ID != first.ID {
			t.Errorf("unexpected filtered listing, total %d", total)
		}
	})
}

// testWorkerStore runs the behaviour every WorkerStore must share.
func testWorkerStore(t *testing.T, newStore func(t *testing.T) core.WorkerStore) {
	t.Run("heartbeats decide staleness", func(t *testing.T) {
		store := newStore(t)
		now := time.Now().UTC().Truncate(time.Millisecond)
		fresh := &core.Worker{ID: uuid.New(), Name: "fresh", Status: core.WorkerStatusActive, LastHeartbeatAt: now}
		stale := &core.Worker{ID: uuid.New(), Name: "stale", Status: core.WorkerStatusActive, LastHeartbeatAt: now.Add(-time.Minute)}
		_ = store.AddWorker(fresh)
		_ = store.AddWorker(stale)

		workers, err := store.GetStaleWorkers(now.Add(-30 * time.Second))
		if err != nil {
			t.Fatalf("GetStaleWorkers() error = %v", err)
		}
		if len(workers) != 1 || workers[0].ID != stale.ID {
			t.Errorf("unexpected stale workers %+v", workers)
		}

		if err := store.UpdateWorkerHeartbeat(stale.ID, now); err != nil {
			t.Fatalf("UpdateWorkerHeartbeat() error = %v", err)
		}
		workers, _ = store.GetStaleWorkers(now.Add(-30 * time.Second))
		if len(workers) != 0 {
			t.Errorf("expected no stale workers, got %d", len(workers))
		}
	})

	t.Run("status and removal", func(t *testing.T) {
		store := newStore(t)
		w := &core.Worker{ID: uuid.New(), Name: "w", Status: core.WorkerStatusActive, LastHeartbeatAt: time.Now()}
		_ = store.AddWorker(w)

		if err := store.UpdateWorkerStatus(w.ID, core.WorkerStatusBusy); err != nil {
			t.Fatalf("UpdateWorkerStatus() error = %v", err)
		}
		got, err := store.GetWorkerByID(w.ID)
		if err != nil {
			t.Fatalf("GetWorkerByID() error = %v", err)
		}
		if got.Status != core.WorkerStatusBusy || got.Name != "w" {
			t.Errorf("unexpected worker %+v", got)
		}

		all, _ := store.GetAllWorkers()
		if len(all) != 1 {
			t.Errorf("expected 1 worker, got %d", len(all))
		}

		if err := store.RemoveWorker(w.ID); err != nil {
			t.Fatalf("RemoveWorker() error = %v", err)
		}
		if _, err := store.GetWorkerByID(w.ID); !errors.Is(err, core.ErrWorkerNotFound) {
			t.Errorf("GetWorkerByID() error = %v, want ErrWorkerNotFound", err)
		}
		if err := store.UpdateWorkerHeartbeat(w.ID, time.Now()); !errors.Is(err, core.ErrWorkerNotFound) {
			t.Errorf("UpdateWorkerHeartbeat() error = %v, want ErrWorkerNotFound", err)
		}
	})
}
