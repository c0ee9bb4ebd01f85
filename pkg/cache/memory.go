package cache

import (
	"container/list"
	"context"
	"path"
	"sync"
	"time"
)

// noExpiry is how long an entry set with a zero expiration lives.
const noExpiry = 7 * 24 * time.Hour

type memoryEntry struct {
	key      string
	value    []byte
	expireAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// MemoryCache implements Service in process with LRU eviction. The list front
// is the most recently used entry.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	maxSize int

	cleanup   *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates an in-memory cache holding at most 1000 entries by default.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}

	mc := &MemoryCache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: cfg.MaxSize,
		cleanup: time.NewTicker(cfg.CleanupInterval),
		done:    make(chan struct{}),
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	mc.mu.Lock()
	mc.put(key, data, expiration)
	mc.mu.Unlock()
	return nil
}

// put stores data at the front, evicting from the back when full. Caller holds mu.
func (mc *MemoryCache) put(key string, data []byte, expiration time.Duration) {
	if expiration <= 0 {
		expiration = noExpiry
	}
	expireAt := time.Now().Add(expiration)

	if el, ok := mc.items[key]; ok {
		e := el.Value.(*memoryEntry)
		e.value, e.expireAt = data, expireAt
		mc.order.MoveToFront(el)
		return
	}
	for mc.order.Len() >= mc.maxSize {
		mc.remove(mc.order.Back())
	}
	mc.items[key] = mc.order.PushFront(&memoryEntry{key: key, value: data, expireAt: expireAt})
}

func (mc *MemoryCache) remove(el *list.Element) {
	if el == nil {
		return
	}
	mc.order.Remove(el)
	delete(mc.items, el.Value.(*memoryEntry).key)
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	el, ok := mc.items[key]
	if !ok {
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	e := el.Value.(*memoryEntry)
	if e.expired(time.Now()) {
		mc.remove(el)
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	mc.order.MoveToFront(el)
	data := e.value
	mc.mu.Unlock()

	return decode(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		mc.remove(mc.items[key])
	}
	return nil
}

// DeleteByPattern removes keys matching a glob pattern (Redis-style `*` and `?`).
func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for key, el := range mc.items {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return err
		}
		if ok {
			mc.remove(el)
		}
	}
	return nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if el, ok := mc.items[key]; ok && !el.Value.(*memoryEntry).expired(time.Now()) {
		return false, nil
	}
	mc.put(key, []byte("locked"), ttl)
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.order.Len()
}

func (mc *MemoryCache) sweep() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.cleanup.C:
		}

		now := time.Now()
		mc.mu.Lock()
		for el := mc.order.Back(); el != nil; {
			prev := el.Prev()
			if el.Value.(*memoryEntry).expired(now) {
				mc.remove(el)
			}
			el = prev
		}
		mc.mu.Unlock()
	}
}

// Close stops the sweep goroutine.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.cleanup.Stop()
		close(mc.done)
	})
	return nil
}
