package core

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrQueueEmpty     = errors.New("dividend queue is empty")
	ErrDividendQueued = errors.New("dividend is already queued")
)

// DividendQueue holds the dividends waiting for a worker. Higher priority
// jobs are served first and dividends of equal priority in the order they
// were queued. A dividend is queued at most once.
type DividendQueue interface {
	Push(d *Dividend, priority Priority) error
	Pop() (*Dividend, error)
	// RemoveJob drops every queued dividend of jobID and returns how many
	// were dropped.
	RemoveJob(jobID uuid.UUID) int
	Len() int
}

type heapDividendQueue struct {
	mu       sync.Mutex
	heap     dividendHeap
	byJob    map[uuid.UUID]map[int]*queued
	sequence uint64
}

func NewDividendQueue() DividendQueue {
	return &heapDividendQueue{byJob: make(map[uuid.UUID]map[int]*queued)}
}

func (q *heapDividendQueue) Push(d *Dividend, priority Priority) error {
	if d == nil {
		return errors.New("cannot queue nil dividend")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	slots := q.byJob[d.JobID]
	if _, exists := slots[d.Index]; exists {
		return fmt.Errorf("%w: job %s dividend %d", ErrDividendQueued, d.JobID, d.Index)
	}
	if slots == nil {
		slots = make(map[int]*queued)
		q.byJob[d.JobID] = slots
	}

	entry := &queued{dividend: d, priority: priority, sequence: q.sequence}
	q.sequence++
	heap.Push(&q.heap, entry)
	slots[d.Index] = entry
	return nil
}

func (q *heapDividendQueue) Pop() (*Dividend, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.heap.Len() == 0 {
		return nil, ErrQueueEmpty
	}
	entry := heap.Pop(&q.heap).(*queued)
	q.forget(entry.dividend)
	return entry.dividend, nil
}

func (q *heapDividendQueue) RemoveJob(jobID uuid.UUID) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	slots := q.byJob[jobID]
	for _, entry := range slots {
		heap.Remove(&q.heap, entry.index)
	}
	delete(q.byJob, jobID)
	return len(slots)
}

func (q *heapDividendQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

func (q *heapDividendQueue) forget(d *Dividend) {
	slots := q.byJob[d.JobID]
	delete(slots, d.Index)
	if len(slots) == 0 {
		delete(q.byJob, d.JobID)
	}
}

type queued struct {
	dividend *Dividend
	priority Priority
	sequence uint64
	index    int
}

// dividendHeap implements heap.Interface.
type dividendHeap []*queued

func (h dividendHeap) Len() int { return len(h) }

func (h dividendHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].sequence < h[j].sequence
}

func (h dividendHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *dividendHeap) Push(x any) {
	entry := x.(*queued)
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *dividendHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*h = old[:n-1]
	return entry
}
