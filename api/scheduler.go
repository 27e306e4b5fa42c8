/*
scheduler.go - Periodic household count recomputation

PURPOSE:
  Household member and voter counts are cached on the household row.
  The engine refreshes them after its own writes when recount-on-write
  is enabled; this scheduler sweeps every household on an interval so
  counts converge even when it is not (or after manual database edits).

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Sweeps once immediately on start
  - A failed sweep is logged and retried on the next tick

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRecountScheduler(store, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Recount endpoint (manual sweep)
  - store/sqlite/sqlite.go: RecountAll
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/census-engine/logger"
)

// Recounter recomputes cached household counts.
type Recounter interface {
	RecountAll(ctx context.Context) (int64, error)
}

// RecountScheduler sweeps household counts on an interval.
type RecountScheduler struct {
	Store         Recounter
	Log           *logger.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastRun   time.Time
	lastCount int64
	lastErr   error
}

// NewRecountScheduler creates a new scheduler.
func NewRecountScheduler(store Recounter, log *logger.Logger) *RecountScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &RecountScheduler{
		Store:         store,
		Log:           log,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (rs *RecountScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Log.Info("recount scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.Log.Info("recount scheduler started", "interval", rs.CheckInterval)
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (rs *RecountScheduler) Stop() {
	rs.mu.Lock()
	ticker, stop := rs.ticker, rs.stop
	rs.ticker, rs.stop = nil, nil
	rs.mu.Unlock()

	if ticker == nil {
		return
	}
	ticker.Stop()
	close(stop)
	rs.wg.Wait()
	rs.Log.Info("recount scheduler stopped")
}

func (rs *RecountScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.sweep()

	for {
		select {
		case <-ticker.C:
			rs.sweep()
		case <-stop:
			return
		}
	}
}

func (rs *RecountScheduler) sweep() {
	n, err := rs.Store.RecountAll(context.Background())

	rs.mu.Lock()
	rs.lastRun, rs.lastCount, rs.lastErr = time.Now(), n, err
	rs.mu.Unlock()

	if err != nil {
		rs.Log.Error("household recount failed", "error", err)
		return
	}
	rs.Log.Debug("households recounted", "households", n)
}

// LastRun reports the time, household count and error of the latest sweep.
func (rs *RecountScheduler) LastRun() (time.Time, int64, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.lastRun, rs.lastCount, rs.lastErr
}
