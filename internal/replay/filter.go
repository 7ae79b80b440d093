// Package replay implements the packet-tag replay filter: a time-windowed
// Bloom filter, process-wide but hidden behind a narrow interface so unit
// tests stay hermetic, per the design notes' "isolate behind an interface
// with contains_or_insert(tag) -> bool".
package replay

import (
	"sync"
	"time"

	"github.com/yawning/bloom"

	"github.com/hoprnet/hopr-mixnode/internal/config"
)

// Filter is a time-windowed Bloom filter over 16-byte packet tags. Two
// generations (current, previous) are kept so a tag inserted near the
// end of one window is still caught as a replay early in the next,
// bounding the window-rollover gap invariant 4 requires.
type Filter struct {
	mu       sync.Mutex
	cfg      config.ReplayFilterConfig
	current  *bloom.Filter
	previous *bloom.Filter
	windowAt time.Time
	now      func() time.Time
}

// New constructs a Filter from its configuration.
func New(cfg config.ReplayFilterConfig) *Filter {
	f := &Filter{cfg: cfg, now: time.Now}
	f.current = newGeneration(cfg)
	f.windowAt = f.now()
	return f
}

func newGeneration(cfg config.ReplayFilterConfig) *bloom.Filter {
	m, k := bloom.EstimateParameters(cfg.ExpectedTagsPerPage, cfg.FalsePositiveRate)
	return bloom.New(m, k)
}

func (f *Filter) rollIfExpired() {
	if f.now().Sub(f.windowAt) < f.cfg.WindowDuration {
		return
	}
	f.previous = f.current
	f.current = newGeneration(f.cfg)
	f.windowAt = f.now()
}

// ContainsOrInsert reports whether tag was already present (a replay);
// if not present, it is inserted and false is returned. Insertion and
// membership-check are atomic per tag (§5's concurrency guarantee),
// enforced here by the mutex.
func (f *Filter) ContainsOrInsert(tag []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rollIfExpired()

	if f.current.Test(tag) {
		return true
	}
	if f.previous != nil && f.previous.Test(tag) {
		return true
	}
	f.current.Add(tag)
	return false
}

// Snapshot returns the raw bytes of both filter generations for
// persistence, and the window start time of the current generation.
func (f *Filter) Snapshot() (current, previous []byte, windowAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current = f.current.Bytes()
	if f.previous != nil {
		previous = f.previous.Bytes()
	}
	windowAt = f.windowAt
	return
}

// Restore loads a previously persisted snapshot, replacing the filter's
// state. Used on startup; missed persistence on crash is acceptable
// since window rollover bounds the damage (§4.2).
func (f *Filter) Restore(current, previous []byte, windowAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, err := bloom.FromBytes(current)
	if err != nil {
		return err
	}
	f.current = cur
	if len(previous) > 0 {
		prev, err := bloom.FromBytes(previous)
		if err != nil {
			return err
		}
		f.previous = prev
	}
	f.windowAt = windowAt
	return nil
}
