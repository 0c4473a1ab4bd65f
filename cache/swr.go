// Package cache implements a keyed stale-while-revalidate memoizer for
// expensive asynchronous lookups such as off-chain pool catalogues.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Logger defines a standard interface for structured, leveled logging,
// compatible with the standard library's slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Zone classifies a key by the age of its cached value.
type Zone string

const (
	ZoneCold    Zone = "cold"
	ZoneFresh   Zone = "fresh"
	ZoneStale   Zone = "stale"
	ZoneExpired Zone = "expired"
)

// FetchFunc loads the value of key.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// load is a synchronous fetch in flight. Concurrent cold callers wait on done
// and share value and err.
type load[V any] struct {
	done  chan struct{}
	value V
	err   error
}

type options struct {
	now     func() time.Time
	logger  Logger
	metrics *Metrics
	name    string
}

// Option configures a cache.
type Option func(*options)

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger receives background refresh failures.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records zone hits and refresh outcomes under the cache label name.
func WithMetrics(m *Metrics, name string) Option {
	return func(o *options) {
		o.metrics = m
		o.name = name
	}
}

// SWR memoizes fetch per key. Values younger than fresh are served as is,
// values younger than stale are served while one background refresh runs,
// older or missing values are fetched synchronously.
type SWR[K comparable, V any] struct {
	fetch FetchFunc[K, V]
	fresh time.Duration
	stale time.Duration
	opts  options

	// mu guards entries, loads and refreshing.
	mu         sync.Mutex
	entries    map[K]entry[V]
	loads      map[K]*load[V]
	refreshing map[K]struct{}
}

// New wraps fetch. stale must not be shorter than fresh.
func New[K comparable, V any](fetch FetchFunc[K, V], fresh, stale time.Duration, opts ...Option) (*SWR[K, V], error) {
	if fetch == nil {
		return nil, errors.New("fetch function is required")
	}
	if fresh <= 0 {
		return nil, errors.New("fresh duration must be positive")
	}
	if stale < fresh {
		return nil, errors.New("stale duration must not be shorter than fresh duration")
	}
	o := options{now: time.Now, name: "default"}
	for _, opt := range opts {
		opt(&o)
	}
	return &SWR[K, V]{
		fetch:      fetch,
		fresh:      fresh,
		stale:      stale,
		opts:       o,
		entries:    make(map[K]entry[V]),
		loads:      make(map[K]*load[V]),
		refreshing: make(map[K]struct{}),
	}, nil
}

// Get returns the value of key according to its zone.
func (c *SWR[K, V]) Get(ctx context.Context, key K) (V, error) {
	c.mu.Lock()
	zone := ZoneCold
	if e, ok := c.entries[key]; ok {
		age := c.opts.now().Sub(e.fetchedAt)
		switch {
		case age < c.fresh:
			c.mu.Unlock()
			c.observe(ZoneFresh)
			return e.value, nil
		case age < c.stale:
			if _, busy := c.refreshing[key]; !busy {
				c.refreshing[key] = struct{}{}
				go c.refresh(context.WithoutCancel(ctx), key)
			}
			c.mu.Unlock()
			c.observe(ZoneStale)
			return e.value, nil
		}
		zone = ZoneExpired
	}
	c.observe(zone)

	l, ok := c.loads[key]
	if !ok {
		l = &load[V]{done: make(chan struct{})}
		c.loads[key] = l
		go c.fill(context.WithoutCancel(ctx), key, l)
	}
	c.mu.Unlock()

	select {
	case <-l.done:
		return l.value, l.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// fill fetches key detached from the caller that started it. Every waiter,
// the starter included, gives up only when its own context ends.
func (c *SWR[K, V]) fill(ctx context.Context, key K, l *load[V]) {
	defer close(l.done)
	defer func() {
		if r := recover(); r != nil {
			var zero V
			l.value, l.err = zero, fmt.Errorf("cache fetch panicked: %v", r)
		}
		c.mu.Lock()
		delete(c.loads, key)
		if l.err == nil {
			c.entries[key] = entry[V]{value: l.value, fetchedAt: c.opts.now()}
		} else {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}()

	l.value, l.err = c.fetch(ctx, key)
}

// refresh re-fetches key in the background. On failure the previous value is
// kept. The in-flight marker is always cleared.
func (c *SWR[K, V]) refresh(ctx context.Context, key K) {
	defer func() {
		c.mu.Lock()
		delete(c.refreshing, key)
		c.mu.Unlock()
	}()

	v, err := c.fetch(ctx, key)
	if err != nil {
		if c.opts.logger != nil {
			c.opts.logger.Warn("background cache refresh failed, serving previous value", "cache", c.opts.name, "key", key, "error", err)
		}
		c.observeRefresh("error")
		return
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: v, fetchedAt: c.opts.now()}
	c.mu.Unlock()
	c.observeRefresh("ok")
}

// Refreshing reports whether a background refresh of key is in flight.
func (c *SWR[K, V]) Refreshing(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.refreshing[key]
	return ok
}

func (c *SWR[K, V]) observe(z Zone) {
	if c.opts.metrics != nil {
		c.opts.metrics.Requests.WithLabelValues(c.opts.name, string(z)).Inc()
	}
}

func (c *SWR[K, V]) observeRefresh(result string) {
	if c.opts.metrics != nil {
		c.opts.metrics.Refreshes.WithLabelValues(c.opts.name, result).Inc()
	}
}
