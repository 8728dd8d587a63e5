package utils

import "fmt"
import "sync"
import "time"
import "reflect"

type cacheEntry struct {
	value   interface{}
	expires time.Time
}

// ExpiringCache maps keys to values of a single type, each with its own
// expiry. When full, expired entries are dropped first; if that frees
// nothing the whole cache is reset.
type ExpiringCache struct {
	t   reflect.Type
	s   int
	m   map[string]*cacheEntry
	l   sync.Mutex
	now func() time.Time
}

func NewExpiringCache(valid_type interface{}, size int) (cache *ExpiringCache) {
	return &ExpiringCache{
		t:   reflect.TypeOf(valid_type),
		s:   size,
		m:   make(map[string]*cacheEntry),
		now: time.Now,
	}
}

func (cache *ExpiringCache) Get(key string) (value interface{}, ok bool) {
	cache.l.Lock()
	defer cache.l.Unlock()

	entry := cache.m[key]
	if entry == nil {
		return nil, false
	}
	if !entry.expires.After(cache.now()) {
		delete(cache.m, key)
		return nil, false
	}
	return entry.value, true
}

func (cache *ExpiringCache) SetTime(key string, value interface{}, expire_time time.Time) {
	cache.l.Lock()
	defer cache.l.Unlock()

	value_type := reflect.TypeOf(value)
	if value_type != cache.t {
		panic(fmt.Sprintf("Invalid type in cache Set(): %s != %s", value_type, cache.t))
	}

	now := cache.now()
	if !expire_time.After(now) {
		delete(cache.m, key)
		return
	}

	if _, exists := cache.m[key]; !exists && len(cache.m)+1 > cache.s {
		cache.evict(now)
	}

	cache.m[key] = &cacheEntry{
		value:   value,
		expires: expire_time,
	}
}

func (cache *ExpiringCache) SetDelay(key string, value interface{}, expire_delay time.Duration) {
	cache.SetTime(key, value, cache.now().Add(expire_delay))
}

// evict is called with the lock held.
func (cache *ExpiringCache) evict(now time.Time) {
	for key, entry := range cache.m {
		if !entry.expires.After(now) {
			delete(cache.m, key)
		}
	}
	if len(cache.m)+1 > cache.s {
		cache.m = make(map[string]*cacheEntry)
	}
}

func (cache *ExpiringCache) Len() int {
	cache.l.Lock()
	defer cache.l.Unlock()
	return len(cache.m)
}

func (cache *ExpiringCache) Invalidate(key string) {
	cache.l.Lock()
	defer cache.l.Unlock()

	delete(cache.m, key)
}

func (cache *ExpiringCache) InvalidateAll() {
	cache.l.Lock()
	defer cache.l.Unlock()

	cache.m = make(map[string]*cacheEntry)
}
