// Package poll runs scoped periodic work: the flash-sale automation sweep on
// the server and countdown refreshes on the client side.
package poll

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Func is one unit of periodic work
type Func func(ctx context.Context) error

// ErrStopped is returned by Start once a task has been stopped
var ErrStopped = errors.New("poll: task stopped")

// Config controls a Task
type Config struct {
	Name     string
	Interval time.Duration
	// Immediate runs fn once as soon as the task starts
	Immediate bool
	// Jitter adds up to this much random delay to every interval
	Jitter time.Duration
	// RunTimeout bounds a single run; zero means the scope ctx only
	RunTimeout time.Duration
	OnError    func(error)
	Logger     *zap.Logger
}

// Stats is a snapshot of what a task has done so far
type Stats struct {
	Runs      int64
	Failures  int64
	Skipped   int64
	LastRun   time.Time
	LastError error
}

// Task runs fn every Interval until its scope ctx ends or Stop is called.
// Runs never overlap: a tick that fires while the previous run is still
// executing is skipped.
type Task struct {
	fn     Func
	config Config
	logger *zap.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
	runs    sync.WaitGroup

	busy  atomic.Bool
	stats Stats
}

// New creates a task. It does nothing until Start.
func New(fn Func, cfg Config) (*Task, error) {
	if fn == nil {
		return nil, errors.New("poll: fn is required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poll: interval must be positive")
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name != "" {
		logger = logger.With(zap.String("task", cfg.Name))
	}
	return &Task{
		fn:     fn,
		config: cfg,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// Start launches the loop bound to ctx. Calling Start twice is a no-op.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return ErrStopped
	}
	if t.started {
		return nil
	}
	t.started = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	go t.loop(ctx)

	t.logger.Debug("Periodic task started", zap.Duration("interval", t.config.Interval))
	return nil
}

// Stop cancels the task and waits for an in-flight run to return.
// It is safe to call more than once and before Start.
func (t *Task) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		<-t.Done()
		return
	}
	t.stopped = true
	started := t.started
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()

	if !started {
		close(t.done)
		return
	}
	<-t.done
}

// Done is closed once the loop has exited and no run is in flight
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Running reports whether a run is executing right now
func (t *Task) Running() bool {
	return t.busy.Load()
}

// Stats returns a snapshot of the counters
func (t *Task) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func (t *Task) loop(ctx context.Context) {
	defer close(t.done)
	defer t.runs.Wait()

	if t.config.Immediate {
		t.trigger(ctx)
	}

	timer := time.NewTimer(t.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Debug("Periodic task stopped")
			return
		case <-timer.C:
			t.trigger(ctx)
			timer.Reset(t.nextDelay())
		}
	}
}

// trigger starts a run unless one is still executing
func (t *Task) trigger(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !t.busy.CompareAndSwap(false, true) {
		t.mu.Lock()
		t.stats.Skipped++
		t.mu.Unlock()
		t.logger.Debug("Skipping tick, previous run still in progress")
		return
	}

	t.runs.Add(1)
	go func() {
		defer t.runs.Done()
		defer t.busy.Store(false)
		t.run(ctx)
	}()
}

func (t *Task) run(ctx context.Context) {
	runCtx := ctx
	if t.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.config.RunTimeout)
		defer cancel()
	}

	err := t.fn(runCtx)

	t.mu.Lock()
	t.stats.Runs++
	t.stats.LastRun = time.Now()
	t.stats.LastError = err
	if err != nil {
		t.stats.Failures++
	}
	t.mu.Unlock()

	if err == nil || errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}
	t.logger.Warn("Periodic task run failed", zap.Error(err))
	if t.config.OnError != nil {
		t.config.OnError(err)
	}
}

func (t *Task) nextDelay() time.Duration {
	if t.config.Jitter <= 0 {
		return t.config.Interval
	}
	return t.config.Interval + rand.N(t.config.Jitter)
}
