package engine

import (
	"runtime"
	"sync"
)

// span is one contiguous chunk of the flat index space handed to a worker.
type span struct {
	start, end int
	fn         func(start, end int)
	wg         *sync.WaitGroup
}

// Pool is a fixed set of worker goroutines for the CPU-bound phases of an
// update step. The caller bridges into the pool with Run, which blocks on a
// one-shot completion signal until every chunk has been processed, so the
// force computation can use multiple cores without the caller spinning.
type Pool struct {
	workers int
	jobs    chan span
	once    sync.Once
}

// NewPool starts a pool with the given number of workers; workers <= 0 uses
// one worker per CPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		workers: workers,
		jobs:    make(chan span, workers),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for s := range p.jobs {
		s.fn(s.start, s.end)
		s.wg.Done()
	}
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Run splits [0, n) into one chunk per worker, executes fn over the chunks
// in parallel, and returns once all chunks are done. fn must be safe to call
// concurrently on disjoint ranges.
func (p *Pool) Run(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	chunks := p.workers
	if chunks > n {
		chunks = n
	}

	var wg sync.WaitGroup
	chunk := (n + chunks - 1) / chunks
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		p.jobs <- span{start: start, end: end, fn: fn, wg: &wg}
	}

	// One-shot completion signal: the submitting goroutine suspends here
	// while the workers grind through the chunks.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	<-done
}

// Close stops the workers. Run must not be called after Close.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.jobs) })
}
