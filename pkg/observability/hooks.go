// Package observability lets an application watch graph builds, lane
// recomputation and cache traffic without the libraries depending on a
// metrics backend.
//
// Libraries emit events through the hook interfaces below. Until an
// application registers its own implementations the events go to no-op
// hooks. [LogHooks] turns every event into a debug log line; the CLI
// registers it when run with --verbose:
//
//	hooks := observability.NewLogHooks(logger)
//	observability.SetBuildHooks(hooks)
//	observability.SetLayoutHooks(hooks)
//	observability.SetCacheHooks(hooks)
package observability

import (
	"context"
	"sync"
	"time"
)

// BuildHooks observes graph construction.
type BuildHooks interface {
	// OnBuildStart precedes a full build over the given number of records.
	OnBuildStart(ctx context.Context, records int)
	OnBuildComplete(ctx context.Context, rows int, duration time.Duration, err error)
	// OnAppend follows an incremental append that changed rows [from, to).
	OnAppend(ctx context.Context, records, from, to int, duration time.Duration, err error)
}

// LayoutHooks observes print cell recomputation.
type LayoutHooks interface {
	// OnRecalculate reports a lane recomputation over physical rows
	// [from, to) that produced the given number of visible rows.
	OnRecalculate(ctx context.Context, from, to, rows int, duration time.Duration)
	// OnConceal reports the number of hidden fragments after a change.
	OnConceal(ctx context.Context, hidden int)
}

// CacheHooks observes record cache traffic. keyType is "records" or "refs".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

type NoopBuildHooks struct{}

func (NoopBuildHooks) OnBuildStart(context.Context, int)                             {}
func (NoopBuildHooks) OnBuildComplete(context.Context, int, time.Duration, error)    {}
func (NoopBuildHooks) OnAppend(context.Context, int, int, int, time.Duration, error) {}

type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnRecalculate(context.Context, int, int, int, time.Duration) {}
func (NoopLayoutHooks) OnConceal(context.Context, int)                              {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// slot holds the registered implementation of one hook interface.
type slot[H any] struct {
	mu   sync.RWMutex
	cur  H
	noop H
}

func newSlot[H any](noop H) *slot[H] { return &slot[H]{cur: noop, noop: noop} }

func (s *slot[H]) get() H {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *slot[H]) set(h H) {
	s.mu.Lock()
	s.cur = h
	s.mu.Unlock()
}

func (s *slot[H]) reset() { s.set(s.noop) }

var (
	buildSlot  = newSlot[BuildHooks](NoopBuildHooks{})
	layoutSlot = newSlot[LayoutHooks](NoopLayoutHooks{})
	cacheSlot  = newSlot[CacheHooks](NoopCacheHooks{})
)

// SetBuildHooks registers h. A nil h is ignored.
func SetBuildHooks(h BuildHooks) {
	if h != nil {
		buildSlot.set(h)
	}
}

// SetLayoutHooks registers h. A nil h is ignored.
func SetLayoutHooks(h LayoutHooks) {
	if h != nil {
		layoutSlot.set(h)
	}
}

// SetCacheHooks registers h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

func Build() BuildHooks   { return buildSlot.get() }
func Layout() LayoutHooks { return layoutSlot.get() }
func Cache() CacheHooks   { return cacheSlot.get() }

// Reset restores the no-op hooks.
func Reset() {
	buildSlot.reset()
	layoutSlot.reset()
	cacheSlot.reset()
}
