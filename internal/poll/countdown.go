package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/domain/flashsale"
)

// CountdownSource fetches the countdown of one campaign.
// apiclient.FlashSaleService satisfies it.
type CountdownSource interface {
	Countdown(ctx context.Context, id uuid.UUID) (flashsale.Countdown, error)
}

// CountdownConfig controls a CountdownWatcher
type CountdownConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	OnError  func(error)
	Logger   *zap.Logger
}

// CountdownWatcher polls a campaign countdown and publishes snapshots.
// The channel holds only the newest snapshot; a slow reader skips stale ones.
// Polling stops by itself once the campaign reaches a terminal status.
type CountdownWatcher struct {
	id      uuid.UUID
	source  CountdownSource
	task    *Task
	cancel  context.CancelFunc
	updates chan flashsale.Countdown

	mu   sync.RWMutex
	last flashsale.Countdown
	seen bool
}

// WatchCountdown starts polling immediately. Cancelling ctx stops it.
func WatchCountdown(ctx context.Context, source CountdownSource, id uuid.UUID, cfg CountdownConfig) (*CountdownWatcher, error) {
	if source == nil {
		return nil, errors.New("poll: countdown source is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}

	w := &CountdownWatcher{
		id:      id,
		source:  source,
		updates: make(chan flashsale.Countdown, 1),
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	task, err := New(w.poll, Config{
		Name:       "countdown",
		Interval:   cfg.Interval,
		Immediate:  true,
		RunTimeout: cfg.Timeout,
		OnError:    cfg.OnError,
		Logger:     logger.With(zap.String("flash_sale_id", id.String())),
	})
	if err != nil {
		return nil, err
	}
	w.task = task

	scope, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	if err := task.Start(scope); err != nil {
		cancel()
		return nil, err
	}
	go func() {
		<-task.Done()
		close(w.updates)
	}()
	return w, nil
}

// Updates delivers snapshots and is closed once polling has stopped
func (w *CountdownWatcher) Updates() <-chan flashsale.Countdown {
	return w.updates
}

// Last returns the newest snapshot, if any arrived yet
func (w *CountdownWatcher) Last() (flashsale.Countdown, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last, w.seen
}

// Stop ends polling and waits for an in-flight fetch
func (w *CountdownWatcher) Stop() {
	w.cancel()
	w.task.Stop()
}

// Done is closed once polling has stopped
func (w *CountdownWatcher) Done() <-chan struct{} {
	return w.task.Done()
}

func (w *CountdownWatcher) Stats() Stats {
	return w.task.Stats()
}

func (w *CountdownWatcher) poll(ctx context.Context) error {
	cd, err := w.source.Countdown(ctx, w.id)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.last = cd
	w.seen = true
	w.mu.Unlock()

	w.publish(cd)
	if cd.Status.IsTerminal() {
		w.cancel()
	}
	return nil
}

// publish replaces any unread snapshot. Runs never overlap, so there is a
// single sender.
func (w *CountdownWatcher) publish(cd flashsale.Countdown) {
	select {
	case w.updates <- cd:
		return
	default:
	}
	select {
	case <-w.updates:
	default:
	}
	w.updates <- cd
}
