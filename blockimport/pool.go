package blockimport

import (
	"errors"
	"runtime"
)

// ErrPoolClosed is returned by Do after Close.
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool is the dedicated CPU-bound execution context the import work runs on.
// Submitting goroutines suspend cooperatively while a worker runs the task;
// the hash-heavy synchronous work never blocks the caller's scheduler
// context. Tasks run to completion: there is no cancellation and no timeout.
type Pool struct {
	tasks chan func()
	done  chan struct{}
}

// NewPool starts a pool with the given number of workers; workers <= 0 means
// one per CPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		tasks: make(chan func()),
		done:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for {
		select {
		case task := <-p.tasks:
			task()
		case <-p.done:
			return
		}
	}
}

// Do runs f on the pool and waits for its result. Returns ErrPoolClosed
// instead of blocking when the pool has been shut down.
func (p *Pool) Do(f func() error) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}
	result := make(chan error, 1)
	select {
	case p.tasks <- func() { result <- f() }:
		return <-result
	case <-p.done:
		return ErrPoolClosed
	}
}

// Close stops the workers. Tasks already started still run to completion.
func (p *Pool) Close() {
	close(p.done)
}
