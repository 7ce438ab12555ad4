// internal/types/clock.go
package types

import (
	"sync/atomic"
	"time"
)

// Clock supplies the engine's notion of time. Height is a monotonically
// non-decreasing block counter used by the snapshot activation delay;
// Now is wall time used for caller-supplied deadlines.
type Clock interface {
	Height() uint64
	Now() time.Time
}

// WallClock derives block height from wall time at a fixed interval.
type WallClock struct {
	Genesis  time.Time
	Interval time.Duration
}

// NewWallClock creates a clock anchored at the current time.
func NewWallClock(interval time.Duration) *WallClock {
	if interval <= 0 {
		interval = time.Second
	}
	return &WallClock{Genesis: time.Now(), Interval: interval}
}

func (c *WallClock) Height() uint64 {
	elapsed := time.Since(c.Genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.Interval)
}

func (c *WallClock) Now() time.Time {
	return time.Now()
}

// TickClock is a manually advanced clock for deterministic tests and replays.
type TickClock struct {
	height atomic.Uint64
}

func (c *TickClock) Height() uint64 {
	return c.height.Load()
}

func (c *TickClock) Now() time.Time {
	// One second per block keeps deadlines and heights comparable.
	return time.Unix(int64(c.height.Load()), 0)
}

// Advance moves the clock forward by n blocks.
func (c *TickClock) Advance(n uint64) {
	c.height.Add(n)
}
