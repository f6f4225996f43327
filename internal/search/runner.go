package search

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/kobzarvs/qscribe/internal/logger"
)

// Finished is delivered once per search that ran to completion.
type Finished struct {
	Request Request
	Results []Result
	Err     error
}

// Runner keeps at most one search running. Starting a search interrupts
// the previous one and waits for it before launching the next.
type Runner struct {
	worker *Worker
	events chan Finished

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     *conc.WaitGroup
	quit   bool
}

func NewRunner(w *Worker) *Runner {
	return &Runner{
		worker: w,
		events: make(chan Finished, 1),
	}
}

// Events delivers the outcome of searches that were not interrupted.
func (r *Runner) Events() <-chan Finished {
	return r.events
}

func (r *Runner) Worker() *Worker {
	return r.worker
}

func (r *Runner) Start(req Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quit {
		return
	}
	r.interruptLocked()

	ctx, cancel := context.WithCancel(context.Background())
	wg := conc.NewWaitGroup()
	r.cancel, r.wg = cancel, wg
	wg.Go(func() {
		results, err := r.worker.Run(ctx, req)
		if ctx.Err() != nil {
			logger.Debug("search interrupted", "pattern", req.Pattern)
			return
		}
		select {
		case r.events <- Finished{Request: req, Results: results, Err: err}:
		case <-ctx.Done():
		}
	})
}

// Interrupt cancels the running search, if any, and waits for it to return.
func (r *Runner) Interrupt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interruptLocked()
}

func (r *Runner) interruptLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.cancel, r.wg = nil, nil
	// A result nobody read yet belongs to the interrupted search.
	select {
	case <-r.events:
	default:
	}
}

// Wait blocks until the running search returns without cancelling it.
func (r *Runner) Wait() {
	r.mu.Lock()
	wg := r.wg
	r.mu.Unlock()
	if wg != nil {
		wg.Wait()
	}
}

// Quit interrupts the running search and refuses new ones.
func (r *Runner) Quit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interruptLocked()
	r.quit = true
}
