package storage

import (
	"sync"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Pruner: periodic cache sweeps
// ---------------------------------------------------------------------------

// DefaultPruneInterval is the default time between sweeps.
const DefaultPruneInterval = 10 * time.Minute

// Pruner periodically sweeps a DataStore's cache so long-running hosts only
// keep frequently used variables in memory.
type Pruner struct {
	store    *DataStore
	interval time.Duration
	enabled  atomic.Bool
	stop     chan struct{}
	stopped  chan struct{}
	mu       sync.Mutex // protects start/stop lifecycle

	sweepCount atomic.Uint64
	lastStats  atomic.Pointer[PruneStats]
}

// NewPruner returns a stopped Pruner for store. An interval of zero or less
// uses DefaultPruneInterval.
func NewPruner(store *DataStore, interval time.Duration) *Pruner {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	p := &Pruner{store: store, interval: interval}
	p.enabled.Store(true)
	return p
}

// Start begins the sweep goroutine. Calling Start on a running Pruner does nothing.
func (p *Pruner) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.stopped = make(chan struct{})
	go p.loop(p.stop, p.stopped)
}

// Stop halts the sweep goroutine and waits for it to exit. It is safe to
// call on a Pruner that was never started.
func (p *Pruner) Stop() {
	p.mu.Lock()
	stopCh, stoppedCh := p.stop, p.stopped
	p.stop, p.stopped = nil, nil
	p.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-stoppedCh
	}
}

// SetEnabled pauses or resumes sweeping without stopping the goroutine.
func (p *Pruner) SetEnabled(enabled bool) { p.enabled.Store(enabled) }

// Interval returns the sweep interval.
func (p *Pruner) Interval() time.Duration { return p.interval }

// SweepCount returns the number of sweeps run so far.
func (p *Pruner) SweepCount() uint64 { return p.sweepCount.Load() }

// LastStats returns the most recent sweep's statistics, or nil before the first.
func (p *Pruner) LastStats() *PruneStats { return p.lastStats.Load() }

// SweepNow sweeps immediately.
func (p *Pruner) SweepNow() *PruneStats { return p.sweep() }

func (p *Pruner) loop(stopCh <-chan struct{}, stoppedCh chan struct{}) {
	defer close(stoppedCh)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if p.enabled.Load() {
				p.sweep()
			}
		}
	}
}

func (p *Pruner) sweep() *PruneStats {
	stats := p.store.Prune()
	p.sweepCount.Add(1)
	p.lastStats.Store(stats)
	return stats
}
