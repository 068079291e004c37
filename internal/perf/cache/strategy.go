package cache

import (
	"container/list"
	"fmt"
	"time"
)

// Strategy selects the eviction policy.
type Strategy string

const (
	// StrategyLRU evicts the least recently accessed entry.
	StrategyLRU Strategy = "lru"
	// StrategyAdaptive looks at the oldest entries and evicts the least
	// valuable one: expired first, then fewest hits, then largest size.
	StrategyAdaptive Strategy = "adaptive"
	// StrategyTTL evicts expired entries first, then the one expiring soonest.
	StrategyTTL Strategy = "ttl"
)

// adaptiveWindow is how many tail entries the adaptive strategy compares.
const adaptiveWindow = 8

type evictor interface {
	// victim returns the element to evict, never protect unless it is the only one.
	victim(order *list.List, now time.Time, protect *list.Element) *list.Element
}

func evictorFor(s Strategy) (evictor, error) {
	switch s {
	case StrategyLRU:
		return lruEvictor{}, nil
	case StrategyAdaptive:
		return adaptiveEvictor{window: adaptiveWindow}, nil
	case StrategyTTL:
		return ttlEvictor{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", s)
	}
}

type lruEvictor struct{}

func (lruEvictor) victim(order *list.List, _ time.Time, protect *list.Element) *list.Element {
	for el := order.Back(); el != nil; el = el.Prev() {
		if el != protect {
			return el
		}
	}
	return nil
}

type adaptiveEvictor struct {
	window int
}

func (a adaptiveEvictor) victim(order *list.List, now time.Time, protect *list.Element) *list.Element {
	var best *list.Element
	seen := 0
	for el := order.Back(); el != nil && seen < a.window; el = el.Prev() {
		if el == protect {
			continue
		}
		seen++
		e := el.Value.(*Entry)
		if e.expired(now) {
			return el
		}
		if best == nil || less(e, best.Value.(*Entry)) {
			best = el
		}
	}
	return best
}

// less reports whether a is a better eviction candidate than b.
// Walking from the tail, ties keep the older candidate.
func less(a, b *Entry) bool {
	if a.Hits != b.Hits {
		return a.Hits < b.Hits
	}
	return a.Size > b.Size
}

type ttlEvictor struct{}

func (ttlEvictor) victim(order *list.List, now time.Time, protect *list.Element) *list.Element {
	var soonest, fallback *list.Element
	for el := order.Back(); el != nil; el = el.Prev() {
		if el == protect {
			continue
		}
		if fallback == nil {
			fallback = el
		}
		e := el.Value.(*Entry)
		if e.expired(now) {
			return el
		}
		if e.ExpiresAt.IsZero() {
			continue
		}
		if soonest == nil || e.ExpiresAt.Before(soonest.Value.(*Entry).ExpiresAt) {
			soonest = el
		}
	}
	if soonest != nil {
		return soonest
	}
	return fallback
}
