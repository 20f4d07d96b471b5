package app

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/nevu/internal/logging"
)

const defaultRefreshInterval = 60 * time.Second

// Refresher runs a function now and then on a fixed cadence until stopped.
// A failed run is logged and the loop carries on. There is no backoff.
type Refresher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartRefresher launches fn in a background goroutine: once immediately,
// then on every interval boundary. Ticks that arrive while fn is running are
// dropped. The loop ends when ctx is cancelled or Stop is called.
func StartRefresher(ctx context.Context, fn func(context.Context) error, interval time.Duration, logger *log.Logger) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	logger = logging.OrDiscard(logger).With("component", "refresher")
	ctx, cancel := context.WithCancel(ctx)
	r := &Refresher{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if ctx.Err() != nil {
				return
			}
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("refresh failed", "err", err)
			}
			// Drop a tick that fired during the run.
			select {
			case <-ticker.C:
			default:
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return r
}

// Stop cancels the loop and waits for it to exit. It is safe to call more
// than once and on a nil Refresher.
func (r *Refresher) Stop() {
	if r == nil {
		return
	}
	r.once.Do(r.cancel)
	<-r.done
}
