// Package worker runs independent jobs concurrently with bounded parallelism
// and rate limiting.
package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of workers
type Pool struct {
	workers int
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the number of workers
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes jobs and returns every result once all jobs have finished.
// Jobs are fed from a separate goroutine so a full queue never blocks result
// collection. Cancelling ctx stops feeding; jobs that never started have no
// result. Results arrive in completion order.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan Job, p.workers*2)
	results := make(chan Result, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				results <- job.Execute(ctx)
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case queue <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Result, 0, len(jobs))
	for result := range results {
		out = append(out, result)
	}
	return out
}
