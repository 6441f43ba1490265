package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Refresher periodically re-submits the city currently on screen so the reading and
// clock stay current.
type Refresher struct {
	controller   *Controller
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger
	refreshed    chan State
}

// NewRefresher creates a refresher for c. interval must be positive.
func NewRefresher(c *Controller, interval time.Duration, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		controller:   c,
		interval:     interval,
		fetchTimeout: 10 * time.Second,
		logger:       logger,
		refreshed:    make(chan State, 1),
	}
}

// SetFetchTimeout changes the timeout for one refresh
func (r *Refresher) SetFetchTimeout(timeout time.Duration) {
	r.fetchTimeout = timeout
}

// Refreshed emits the state after each refresh. Slow readers only see the latest one.
func (r *Refresher) Refreshed() <-chan State {
	return r.refreshed
}

// Start begins refreshing in the background.
// The returned function stops the loop and waits for it to exit.
func (r *Refresher) Start(ctx context.Context) func() {
	refreshCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go r.loop(refreshCtx, &wg)

	return func() {
		cancel()
		wg.Wait()
	}
}

func (r *Refresher) loop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.refreshOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// refreshOnce re-submits the last city; nothing happens before the first submit
func (r *Refresher) refreshOnce(ctx context.Context) {
	city := r.controller.LastCity()
	if city == "" {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	state, err := r.controller.OnSubmit(fetchCtx, city)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return
		}
		r.logger.Warn("refresh failed", "city", city, "error", err)
	}

	// keep only the newest state in the buffer
	select {
	case <-r.refreshed:
	default:
	}
	select {
	case r.refreshed <- state:
	default:
	}
}
