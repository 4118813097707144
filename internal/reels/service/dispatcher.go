package service

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/prasannasamana/ai-reel-generator/internal/metrics"
)

type task struct {
	name string
	fn   func() error
	done chan error
}

// Dispatcher runs pipeline steps off the request path on a fixed worker
// pool with a bounded queue. Unlike spawn-and-forget goroutines per
// request, admission is explicit: Dispatch refuses work when the queue is
// full, and every task hands back a completion channel so callers (and
// tests) can join on the result instead of polling.
type Dispatcher struct {
	mu     sync.Mutex
	queue  chan task
	wg     sync.WaitGroup
	closed bool
	log    zerolog.Logger
}

func NewDispatcher(workers, queueSize int, log zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 16
	}

	d := &Dispatcher{
		queue: make(chan task, queueSize),
		log:   log.With().Str("component", "dispatcher").Logger(),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.queue {
		metrics.DispatcherQueueDepth.Dec()

		err := t.fn()
		if err != nil {
			// The step has already persisted the failure on the job;
			// here we only record that the background run ended.
			d.log.Warn().Err(err).Str("task", t.name).Msg("background task failed")
		} else {
			d.log.Debug().Str("task", t.name).Msg("background task done")
		}

		t.done <- err
		close(t.done)
	}
}

// Dispatch enqueues fn. The second return is false when the dispatcher is
// closed or the queue is full; nothing was enqueued in that case.
// Admission shares a mutex with Close so the queue can never be closed
// between the check and the send.
func (d *Dispatcher) Dispatch(name string, fn func() error) (<-chan error, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, false
	}

	t := task{name: name, fn: fn, done: make(chan error, 1)}
	select {
	case d.queue <- t:
		metrics.DispatcherQueueDepth.Inc()
		return t.done, true
	default:
		return nil, false
	}
}

// Close stops admission and waits for in-flight tasks to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}
