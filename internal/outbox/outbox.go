// Package outbox runs fire-and-forget store writes off the caller's path.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// Job is a single write. Name and UserID only feed the logs.
type Job struct {
	Name   string
	UserID string
	Run    func(ctx context.Context) error
}

// Outbox is an unbounded queue drained by a fixed set of workers. Enqueue
// never blocks; failed jobs are logged and dropped.
type Outbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Job
	closed  bool
	started bool

	pending sync.WaitGroup
	workers conc.WaitGroup
	timeout time.Duration
}

func New(jobTimeout time.Duration) *Outbox {
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Second
	}
	o := &Outbox{timeout: jobTimeout}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// Start launches n workers. Calling it again is a no-op.
func (o *Outbox) Start(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.closed {
		return
	}
	o.started = true
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		o.workers.Go(o.work)
	}
}

func (o *Outbox) Enqueue(job Job) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		log.Warn().Str("job", job.Name).Str("userID", job.UserID).Msg("Outbox closed, dropping write")
		return
	}
	o.pending.Add(1)
	o.queue = append(o.queue, job)
	o.cond.Signal()
}

func (o *Outbox) work() {
	for {
		o.mu.Lock()
		for len(o.queue) == 0 && !o.closed {
			o.cond.Wait()
		}
		if len(o.queue) == 0 {
			o.mu.Unlock()
			return
		}
		job := o.queue[0]
		o.queue[0] = Job{}
		o.queue = o.queue[1:]
		o.mu.Unlock()

		o.run(job)
	}
}

func (o *Outbox) run(job Job) {
	defer o.pending.Done()
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	if err := job.Run(ctx); err != nil {
		log.Error().Err(err).Str("job", job.Name).Str("userID", job.UserID).Msg("Background write failed")
	}
}

// Flush blocks until every job enqueued so far has run.
func (o *Outbox) Flush() {
	o.pending.Wait()
}

// Stop refuses new jobs, lets workers drain the queue and waits for them or ctx.
// Jobs queued on an outbox that was never started are discarded.
func (o *Outbox) Stop(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	if !o.started {
		for range o.queue {
			o.pending.Done()
		}
		o.queue = nil
	}
	o.cond.Broadcast()
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
