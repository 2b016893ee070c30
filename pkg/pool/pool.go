// Package pool runs tasks on a fixed number of goroutines.
package pool

import (
	"context"
	"sync"
)

type Task func()

type Pool struct {
	size  int
	tasks chan Task
	wg    sync.WaitGroup
	once  sync.Once
}

// New returns a pool of size goroutines; sizes below one are raised to one.
func New(size int) *Pool {
	return &Pool{
		size:  max(size, 1),
		tasks: make(chan Task),
	}
}

func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) Start() {
	p.once.Do(func() {
		for range p.size {
			p.wg.Go(func() {
				for task := range p.tasks {
					task()
				}
			})
		}
	})
}

// Submit blocks until a goroutine takes task or ctx is done. Submitting to
// a closed pool panics.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for the running ones.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
