package worker

import (
	"context"
	"sync"
)

// Task is one unit of work. Tasks receive the context the pool was started with.
type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed number of goroutines. Every submitted
// task runs to completion, even after ctx is done; tasks are expected to
// observe ctx themselves.
type Pool struct {
	numWorkers int
	tasks      chan Task
	wg         sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

func NewPool(numWorkers int, bufferSize int) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		tasks:      make(chan Task, bufferSize),
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for task := range p.tasks {
		if err := task(ctx); err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
	}
}

// Submit queues a task, blocking while the buffer is full. It gives up when
// ctx is done and the buffer has no room.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case p.tasks <- task:
		return nil
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue, waits for every queued task and returns the errors
// they reported.
func (p *Pool) Stop() []error {
	close(p.tasks)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs
}

// Run executes tasks concurrently on up to numWorkers goroutines and waits
// for all of them. A failing task never prevents the others from running.
func Run(ctx context.Context, numWorkers int, tasks ...Task) []error {
	pool := NewPool(numWorkers, len(tasks))
	pool.Start(ctx)
	for _, t := range tasks {
		// The buffer holds every task, so Submit never waits or fails here.
		_ = pool.Submit(ctx, t)
	}
	return pool.Stop()
}
