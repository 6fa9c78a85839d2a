package ledger

import (
	"sync/atomic"
	"time"
)

// ClockSource supplies the logical timestamp recorded on mint journal
// entries. The host environment guarantees the value never decreases; the
// ledger treats it as an opaque ordering value.
type ClockSource interface {
	Height() uint64
}

// SystemClock derives the logical height from wall-clock seconds, clamped
// so repeated reads never go backwards even if the system clock does.
type SystemClock struct {
	last atomic.Uint64
}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Height() uint64 {
	now := uint64(time.Now().Unix())
	for {
		last := c.last.Load()
		if now <= last {
			return last
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// ManualClock is a test clock advanced by hand.
type ManualClock struct {
	height atomic.Uint64
}

func NewManualClock(start uint64) *ManualClock {
	c := &ManualClock{}
	c.height.Store(start)
	return c
}

func (c *ManualClock) Height() uint64 {
	return c.height.Load()
}

func (c *ManualClock) Advance(delta uint64) {
	c.height.Add(delta)
}
