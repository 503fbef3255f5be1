package ingest

import (
	"context"
	"sync"
	"time"

	pkgLog "max-notify/pkg/log"
)

type job func(ctx context.Context)

// workerPool runs jobs from an unbounded FIFO queue on a fixed set of workers.
// Submitting never blocks, so a poll loop is never held up by slow consumers.
type workerPool struct {
	timeout time.Duration
	l       pkgLog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool
	wg     sync.WaitGroup
}

func newWorkerPool(workers int, timeout time.Duration, l pkgLog.Logger) *workerPool {
	p := &workerPool{timeout: timeout, l: l}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *workerPool) submit(j job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, j)
	p.cond.Signal()
	return true
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(j)
	}
}

func (p *workerPool) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.l.Errorf(ctx, "ingest: worker recovered from panic: %v", r)
		}
	}()
	j(ctx)
}

// pending returns the number of queued, not yet started jobs.
func (p *workerPool) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// close rejects new jobs and waits until the queue is drained or ctx ends.
func (p *workerPool) close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
