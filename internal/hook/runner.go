package hook

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/goldenreps/internal/metrics"
	"github.com/ayusman/goldenreps/internal/session"
)

const defaultQueueSize = 32

type job struct {
	hook *Hook
	ev   session.Event
}

// Runner executes hooks for published session events on a single worker
// goroutine, in publish order. It implements session.Display; Publish never
// blocks and drops the job when the queue is full.
type Runner struct {
	manager  *Manager
	executor *Executor
	metrics  *metrics.Manager
	logger   *zap.Logger

	queue  chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner starts a Runner. m may be nil.
func NewRunner(manager *Manager, executor *Executor, m *metrics.Manager, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		manager:  manager,
		executor: executor,
		metrics:  m,
		logger:   logger.Named("hook"),
		queue:    make(chan job, defaultQueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Publish implements session.Display.
func (r *Runner) Publish(ev session.Event) {
	hooks := r.manager.For(ev.Type)
	if len(hooks) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for _, h := range hooks {
		select {
		case r.queue <- job{hook: h, ev: ev}:
		default:
			r.logger.Warn("hook queue full, dropping event",
				zap.String("hook", h.Manifest.Name),
				zap.String("event", string(ev.Type)),
			)
			r.observe(h, "dropped")
		}
	}
}

// Close stops accepting events, kills a running hook and waits for the
// worker to exit. Queued jobs are discarded.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

func (r *Runner) run() {
	defer r.wg.Done()

	for j := range r.queue {
		if r.ctx.Err() != nil {
			continue
		}
		r.execute(j)
	}
}

func (r *Runner) execute(j job) {
	name := j.hook.Manifest.Name
	resp, err := r.executor.Execute(r.ctx, j.hook, &Request{Hook: name, Event: j.ev})
	switch {
	case errors.Is(err, ErrTimeout):
		r.logger.Warn("hook timed out", zap.String("hook", name), zap.String("event", string(j.ev.Type)))
		r.observe(j.hook, "timeout")
	case err != nil:
		if r.ctx.Err() == nil {
			r.logger.Warn("hook failed", zap.String("hook", name), zap.Error(err))
		}
		r.observe(j.hook, "error")
	case !resp.Success:
		r.logger.Warn("hook reported failure", zap.String("hook", name), zap.String("error", resp.Error))
		r.observe(j.hook, "error")
	default:
		r.logger.Debug("hook ran", zap.String("hook", name), zap.String("event", string(j.ev.Type)))
		r.observe(j.hook, "ok")
	}
}

func (r *Runner) observe(h *Hook, result string) {
	if r.metrics != nil {
		r.metrics.CounterHookRuns.WithLabelValues(h.Manifest.Name, result).Inc()
	}
}
