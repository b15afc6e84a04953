package composite

import (
	"context"
	"sync"
	"time"

	"github.com/scioflow/objectstore/objlog"
)

// DefaultCapacityInterval matches the original's hard-coded recheck
// period: capacity state is assumed not to change meaningfully faster
// than this.
const DefaultCapacityInterval = 120 * time.Second

// Publisher is whatever composite type needs its live weight sequence
// refreshed as backends fill up. DistributedStore satisfies it.
type Publisher interface {
	SetMembers(members []Member)
}

// CapacityMonitor periodically recomputes a DistributedStore's live
// weight sequence from a fixed original sequence, zeroing out (excluding)
// any member whose usage has crossed its effective cap — the member's
// own MaxPercent if set, else the monitor's globalMaxPercent. Recovery is
// not automatic in the sense of gradual reinstatement: every tick
// recomputes from the original sequence, so a member that drops back
// under its cap is included again on the very next tick. Modeled on
// azcopy's own interruptible background-worker shape
// (folderDeletionManager, cpuMonitor): a context-cancellable loop owned
// by Start/Stop, not a bare goroutine.
type CapacityMonitor struct {
	original         []Member
	globalMaxPercent float64
	interval         time.Duration
	publisher        Publisher
	log              objlog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCapacityMonitor builds a monitor over original (the full, nominal
// weight sequence) that republishes a filtered sequence to publisher
// every interval. globalMaxPercent <= 0 means only per-member MaxPercent
// values (if any) are enforced.
func NewCapacityMonitor(original []Member, globalMaxPercent float64, interval time.Duration, publisher Publisher, logger objlog.Logger) *CapacityMonitor {
	if interval <= 0 {
		interval = DefaultCapacityInterval
	}
	if logger == nil {
		logger = objlog.Nop
	}
	return &CapacityMonitor{original: original, globalMaxPercent: globalMaxPercent, interval: interval, publisher: publisher, log: logger}
}

// NeedsMonitor reports whether any member has its own cap, or a global
// cap is configured — the condition used to decide
// whether to start the background worker at all.
func NeedsMonitor(members []Member, globalMaxPercent float64) bool {
	if globalMaxPercent > 0 {
		return true
	}
	for _, m := range members {
		if m.MaxPercent > 0 {
			return true
		}
	}
	return false
}

// Start begins the periodic sweep. It returns immediately; the sweep
// runs until ctx is done or Stop is called. A nil ctx runs until Stop is
// called. Calling Start twice without an intervening Stop is a no-op.
func (c *CapacityMonitor) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(runCtx)
}

// Stop halts the sweep and waits for the current tick, if any, to
// finish.
func (c *CapacityMonitor) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *CapacityMonitor) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	c.sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *CapacityMonitor) sweep() {
	effective := make([]Member, 0, len(c.original))
	for _, m := range c.original {
		effectiveCap := m.MaxPercent
		if effectiveCap <= 0 {
			effectiveCap = c.globalMaxPercent
		}
		pct, err := m.Backend.GetStoreUsagePercent()
		if err != nil {
			effective = append(effective, m)
			continue
		}
		if effectiveCap > 0 && pct > effectiveCap {
			c.log.Logf(objlog.ELevel.Info(), "excluding %s from distribution: %.1f%% full (cap %.1f%%)", m.ID, pct, effectiveCap)
			continue
		}
		effective = append(effective, m)
	}
	if len(effective) == 0 {
		c.log.Logf(objlog.ELevel.Warning(), "every distributed store member is over capacity; write pool is empty until usage drops")
	}
	c.publisher.SetMembers(effective)
}
