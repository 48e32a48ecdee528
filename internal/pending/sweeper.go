package pending

import (
	"context"
	"time"

	"github.com/traino/session-bridge/internal/log"
	"golang.org/x/sync/singleflight"
)

// Sweeper periodically purges expired pending sessions so abandoned
// flows cannot grow the registry without bound
type Sweeper struct {
	store    Store
	interval time.Duration
	group    singleflight.Group // Collapses overlapping sweeps
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewSweeper creates a sweeper for the given store
func NewSweeper(store Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the sweep loop in a goroutine
func (sw *Sweeper) Start(ctx context.Context) {
	log.LogInfoWithFields("pending", "Starting pending session sweeper", map[string]any{
		"interval": sw.interval.String(),
	})

	go sw.run(ctx)
}

// Stop gracefully stops the sweep loop
func (sw *Sweeper) Stop() {
	close(sw.stopChan)
	<-sw.doneChan // Wait for sweep loop to finish
	log.Logf("Pending session sweeper stopped")
}

// run is the main sweep loop
func (sw *Sweeper) run(ctx context.Context) {
	defer close(sw.doneChan)

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	// Run a sweep immediately on start
	sw.Sweep(ctx)

	for {
		select {
		case <-ticker.C:
			sw.Sweep(ctx)
		case <-sw.stopChan:
			// Final sweep on shutdown
			sw.Sweep(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep purges expired entries once. Overlapping calls (ticker firing
// during a slow Firestore sweep, shutdown racing the ticker) share a
// single execution.
func (sw *Sweeper) Sweep(ctx context.Context) {
	_, _, _ = sw.group.Do("sweep", func() (any, error) {
		count, err := sw.store.CleanupExpired(ctx)
		if err != nil {
			log.LogErrorWithFields("pending", "Failed to sweep expired pending sessions", map[string]any{
				"error": err.Error(),
			})
			return nil, err
		}

		if count > 0 {
			log.LogInfoWithFields("pending", "Swept expired pending sessions", map[string]any{
				"count": count,
			})
		}
		return count, nil
	})
}
