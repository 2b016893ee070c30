package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/nemanja-m/divvy/pkg/kinds"
)

func queueTestDividend(jobID uuid.UUID, index, count int) *Dividend {
	return &Dividend{
		JobID:       jobID,
		Requirement: NewRequirement(`{"smarts":"C"}`, kinds.Substructure{}, kinds.DatasetTestChembl),
		Dividend:    kinds.Dividend{Index: index, Count: count},
	}
}

func popAll(t *testing.T, q DividendQueue) []*Dividend {
	t.Helper()
	var out []*Dividend
	for {
		d, err := q.Pop()
		if errors.Is(err, ErrQueueEmpty) {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, d)
	}
}

func TestDividendQueue_Order(t *testing.T) {
	low, medium, high := uuid.New(), uuid.New(), uuid.New()

	q := NewDividendQueue()
	pushes := []struct {
		job      uuid.UUID
		index    int
		priority Priority
	}{
		{low, 0, PriorityLow},
		{medium, 0, PriorityMedium},
		{low, 1, PriorityLow},
		{high, 0, PriorityHigh},
		{medium, 1, PriorityMedium},
		{high, 1, PriorityHigh},
	}
	for _, p := range pushes {
		if err := q.Push(queueTestDividend(p.job, p.index, 2), p.priority); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := []struct {
		job   uuid.UUID
		index int
	}{
		{high, 0}, {high, 1}, {medium, 0}, {medium, 1}, {low, 0}, {low, 1},
	}
	got := popAll(t, q)
	if len(got) != len(want) {
		t.Fatalf("expected %d dividends, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].JobID != w.job || got[i].Index != w.index {
			t.Errorf("position %d: expected job %s dividend %d, got job %s dividend %d",
				i, w.job, w.index, got[i].JobID, got[i].Index)
		}
	}
}

func TestDividendQueue_Push(t *testing.T) {
	t.Run("rejects nil", func(t *testing.T) {
		q := NewDividendQueue()
		if err := q.Push(nil, PriorityHigh); err == nil {
			t.Error("expected error for nil dividend")
		}
	})

	t.Run("rejects a dividend that is already queued", func(t *testing.T) {
		q := NewDividendQueue()
		jobID := uuid.New()
		_ = q.Push(queueTestDividend(jobID, 1, 3), PriorityMedium)

		err := q.Push(queueTestDividend(jobID, 1, 3), PriorityHigh)
		if !errors.Is(err, ErrDividendQueued) {
			t.Errorf("expected ErrDividendQueued, got %v", err)
		}
		if q.Len() != 1 {
			t.Errorf("expected length 1, got %d", q.Len())
		}
	})

	t.Run("accepts a dividend again once popped", func(t *testing.T) {
		q := NewDividendQueue()
		d := queueTestDividend(uuid.New(), 0, 1)
		_ = q.Push(d, PriorityMedium)
		_, _ = q.Pop()

		if err := q.Push(d, PriorityMedium); err != nil {
			t.Errorf("expected requeue to succeed, got %v", err)
		}
	})

	t.Run("same index of different jobs", func(t *testing.T) {
		q := NewDividendQueue()
		if err := q.Push(queueTestDividend(uuid.New(), 0, 1), PriorityMedium); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := q.Push(queueTestDividend(uuid.New(), 0, 1), PriorityMedium); err != nil {
			t.Errorf("expected dividend of another job to be accepted, got %v", err)
		}
	})
}

func TestDividendQueue_PopEmpty(t *testing.T) {
	q := NewDividendQueue()
	d, err := q.Pop()
	if !errors.Is(err, ErrQueueEmpty) || d != nil {
		t.Errorf("expected nil and ErrQueueEmpty, got %v, %v", d, err)
	}
}

func TestDividendQueue_RemoveJob(t *testing.T) {
	q := NewDividendQueue()
	cancelled, kept := uuid.New(), uuid.New()
	for i := range 4 {
		_ = q.Push(queueTestDividend(cancelled, i, 4), Priority(i%3))
		_ = q.Push(queueTestDividend(kept, i, 4), Priority(i%3))
	}
	// The first pop takes dividend 0 of the job queued first.
	_, _ = q.Pop()

	if removed := q.RemoveJob(cancelled); removed != 3 {
		t.Errorf("expected 3 dividends removed, got %d", removed)
	}
	if removed := q.RemoveJob(cancelled); removed != 0 {
		t.Errorf("expected second removal to be a no-op, got %d", removed)
	}

	var got []int
	for _, d := range popAll(t, q) {
		if d.JobID != kept {
			t.Errorf("dividend %d of job %s should not be queued", d.Index, d.JobID)
		}
		got = append(got, d.Index)
	}
	want := []int{0, 3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected dividends %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected dividends %v, got %v", want, got)
			break
		}
	}
}

func TestDividendQueue_Concurrent(t *testing.T) {
	q := NewDividendQueue()
	const jobs, perJob = 20, 10

	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobID := uuid.New()
			for i := range perJob {
				if err := q.Push(queueTestDividend(jobID, i, perJob), Priority(i%3)); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if q.Len() != jobs*perJob {
		t.Fatalf("expected %d queued dividends, got %d", jobs*perJob, q.Len())
	}

	popped := make(chan *Dividend, jobs*perJob)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				d, err := q.Pop()
				if errors.Is(err, ErrQueueEmpty) {
					return
				}
				popped <- d
			}
		}()
	}
	wg.Wait()
	close(popped)

	seen := make(map[uuid.UUID]map[int]bool)
	for d := range popped {
		if seen[d.JobID] == nil {
			seen[d.JobID] = make(map[int]bool)
		}
		if seen[d.JobID][d.Index] {
			t.Errorf("dividend %d of job %s popped twice", d.Index, d.JobID)
		}
		seen[d.JobID][d.Index] = true
	}
	if len(seen) != jobs {
		t.Errorf("expected dividends of %d jobs, got %d", jobs, len(seen))
	}
}
