// Package cache keeps rendered public views in memory until a mutation invalidates them
package cache

import (
	"cms/logger"
	"strings"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"
)

type entry struct {
	value     any
	expiresAt time.Time
}

type RenderCache struct {
	entries cmap.ConcurrentMap[string, entry]
	ttl     time.Duration
	now     func() time.Time
	// generation is bumped before every invalidation
	generation atomic.Uint64
}

// New creates a cache whose entries live at most ttl (0 keeps them until invalidated)
func New(ttl time.Duration) *RenderCache {
	return &RenderCache{
		entries: cmap.New[entry](),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (rc *RenderCache) Get(key string) (any, bool) {
	e, ok := rc.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && rc.now().After(e.expiresAt) {
		rc.entries.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (rc *RenderCache) Set(key string, value any) {
	e := entry{value: value}
	if rc.ttl > 0 {
		e.expiresAt = rc.now().Add(rc.ttl)
	}
	rc.entries.Set(key, e)
}

// GetOrLoad returns the cached value of key or stores the result of load.
// Errors are not cached, and neither is a result whose load overlapped an
// invalidation since it may have read the state from before the mutation.
func GetOrLoad[T any](rc *RenderCache, key string, load func() (T, error)) (T, error) {
	if v, ok := rc.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	gen := rc.generation.Load()
	v, err := load()
	if err != nil {
		return v, err
	}
	if rc.generation.Load() != gen {
		return v, nil
	}
	rc.Set(key, v)
	// an invalidation may have slipped in between the check and Set
	if rc.generation.Load() != gen {
		rc.entries.Remove(key)
	}
	return v, nil
}

// Invalidate drops every entry equal to one of keys or nested below it
// ("album/1" also drops "album/1/page/2").
func (rc *RenderCache) Invalidate(keys ...string) {
	rc.generation.Add(1)
	for _, key := range keys {
		rc.entries.Remove(key)
		prefix := key + "/"
		for _, k := range rc.entries.Keys() {
			if strings.HasPrefix(k, prefix) {
				rc.entries.Remove(k)
			}
		}
	}
	logger.L().Debug("cache invalidated", zap.Strings("keys", keys))
}

func (rc *RenderCache) Clear() {
	rc.generation.Add(1)
	rc.entries.Clear()
}

func (rc *RenderCache) Len() int {
	return rc.entries.Count()
}

// Fanout forwards invalidations to every target in order
type Fanout []interface{ Invalidate(keys ...string) }

func (f Fanout) Invalidate(keys ...string) {
	for _, target := range f {
		if target != nil {
			target.Invalidate(keys...)
		}
	}
}
