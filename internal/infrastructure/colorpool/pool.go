// Package colorpool runs CPU-bound palette extraction on a bounded set
// of workers with a priority queue, so request handlers never block on
// pixel analysis longer than the queue timeout.
package colorpool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"leadhub/internal/domain"
)

const (
	defaultQueueTimeout = 15 * time.Second
	defaultIdleTimeout  = 30 * time.Second
	maxWorkerCap        = 4
)

// ExtractFunc is the unit of work submitted to the pool.
type ExtractFunc func() (domain.BusinessColors, error)

type taskResult struct {
	colors domain.BusinessColors
	err    error
}

type task struct {
	priority int
	enqueued time.Time
	fn       ExtractFunc
	done     chan taskResult
	// claimed flips exactly once, either by a worker picking the task
	// up or by the submitter abandoning it on timeout.
	claimed atomic.Bool
}

// Pool is a bounded worker pool. Workers are spawned on demand up to
// max, reaped after idleTimeout down to min, and replaced when they
// die mid-task. A closed pool degrades to synchronous execution on the
// caller.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*task
	workers int
	idle    int
	closed  bool

	min          int
	max          int
	queueTimeout time.Duration
	idleTimeout  time.Duration
	logger       *slog.Logger
}

// Option tunes pool construction.
type Option func(*Pool)

// WithQueueTimeout overrides the 15s queue wait limit.
func WithQueueTimeout(d time.Duration) Option {
	return func(p *Pool) { p.queueTimeout = d }
}

// WithIdleTimeout overrides the 30s idle worker reap interval.
func WithIdleTimeout(d time.Duration) Option {
	return func(p *Pool) { p.idleTimeout = d }
}

// WithMaxWorkers overrides the computed worker ceiling.
func WithMaxWorkers(n int) Option {
	return func(p *Pool) {
		if n >= 1 {
			p.max = n
		}
	}
}

// NewPool creates a pool sized between min 1 and min(NumCPU, 4).
func NewPool(logger *slog.Logger, opts ...Option) *Pool {
	max := runtime.NumCPU()
	if max > maxWorkerCap {
		max = maxWorkerCap
	}
	if max < 1 {
		max = 1
	}

	p := &Pool{
		min:          1,
		max:          max,
		queueTimeout: defaultQueueTimeout,
		idleTimeout:  defaultIdleTimeout,
		logger:       logger,
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}

	go p.reaperLoop()
	return p
}

// Run queues fn at the given priority and waits for its result. A task
// that waits longer than the queue timeout fails with
// domain.ErrExtractionTimeout. If the pool is closed, fn runs
// synchronously on the caller instead.
func (p *Pool) Run(ctx context.Context, priority int, fn ExtractFunc) (domain.BusinessColors, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return runGuarded(fn)
	}

	t := &task{
		priority: priority,
		enqueued: time.Now(),
		fn:       fn,
		done:     make(chan taskResult, 1),
	}
	p.enqueue(t)

	if p.idle == 0 && p.workers < p.max {
		p.workers++
		go p.worker()
	}
	p.cond.Signal()
	p.mu.Unlock()

	timer := time.NewTimer(p.queueTimeout)
	defer timer.Stop()

	select {
	case res := <-t.done:
		return res.colors, res.err
	case <-ctx.Done():
		if t.claimed.CompareAndSwap(false, true) {
			return domain.BusinessColors{}, ctx.Err()
		}
		// A worker already took it; wait out the result.
		res := <-t.done
		return res.colors, res.err
	case <-timer.C:
		if t.claimed.CompareAndSwap(false, true) {
			return domain.BusinessColors{}, domain.ErrExtractionTimeout
		}
		res := <-t.done
		return res.colors, res.err
	}
}

// enqueue inserts sorted by priority descending, FIFO within equal
// priority. Callers hold p.mu.
func (p *Pool) enqueue(t *task) {
	p.queue = append(p.queue, t)
	sort.SliceStable(p.queue, func(i, j int) bool {
		return p.queue[i].priority > p.queue[j].priority
	})
}

// worker loops popping tasks until reaped or the pool closes.
func (p *Pool) worker() {
	for {
		p.mu.Lock()
		waitStart := time.Now()
		for len(p.queue) == 0 {
			if p.closed {
				p.workers--
				p.mu.Unlock()
				return
			}
			if time.Since(waitStart) >= p.idleTimeout && p.workers > p.min {
				p.workers--
				p.mu.Unlock()
				return
			}
			p.idle++
			p.cond.Wait()
			p.idle--
		}

		t := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if !t.claimed.CompareAndSwap(false, true) {
			// Submitter gave up while the task sat in the queue.
			continue
		}

		colors, err := runGuarded(t.fn)
		t.done <- taskResult{colors: colors, err: err}

		if err != nil {
			// An erroring worker is torn down and replaced if the pool
			// fell below its minimum.
			p.logger.Error("extraction worker stopped on error", "error", err)
			p.mu.Lock()
			p.workers--
			if !p.closed && p.workers < p.min {
				p.workers++
				go p.worker()
			}
			p.mu.Unlock()
			return
		}
	}
}

// reaperLoop wakes idle workers periodically so they can check their
// idle timeout against the minimum pool size.
func (p *Pool) reaperLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		closed := p.closed
		p.cond.Broadcast()
		p.mu.Unlock()
		if closed {
			return
		}
	}
}

// Close drains the pool. Subsequent Run calls execute synchronously.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// runGuarded executes fn on the calling goroutine, converting panics
// into errors. Used for the synchronous fallback path.
func runGuarded(fn ExtractFunc) (colors domain.BusinessColors, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrExtractionFailed, r)
		}
	}()
	return fn()
}
