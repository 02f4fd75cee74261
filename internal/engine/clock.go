package engine

import (
	"context"
	"sync"
)

// SeqSource reports the highest run seq already recorded.
// *store.Store satisfies it.
type SeqSource interface {
	LastSeq(ctx context.Context) (int64, error)
}

// Clock issues the logical seq stamped on stored check runs and on harness
// trace entries. Seqs from one Clock are strictly increasing, so run
// listings never depend on wall-clock time.
//
// A fresh Clock starts at 0. Resume lifts it past the runs a store already
// holds, so a new process never reuses a seq.
type Clock struct {
	mu      sync.Mutex
	seq     int64
	resumed bool
}

// NewClock returns a clock whose first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next issues the next seq.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Last returns the most recently issued seq, or 0.
func (c *Clock) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Resume reads src once and moves the clock up to its last seq. The clock
// never moves back. After a successful Resume later calls do nothing; a
// failed read leaves the clock unresumed so the next call retries.
func (c *Clock) Resume(ctx context.Context, src SeqSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resumed {
		return nil
	}
	last, err := src.LastSeq(ctx)
	if err != nil {
		return err
	}
	if last > c.seq {
		c.seq = last
	}
	c.resumed = true
	return nil
}
