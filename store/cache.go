package store

// The S3 store has a need to cache remote state in memory. This file
// implements a cache of which keys exist.

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// known is the structure stored in an existcache.
type known struct {
	expire time.Time
	exists bool
}

// An existcache is used to remember whether a remote key exists. Entries will
// expire after some amount of time. Items not existing will expire quicker
// than items that exist.
type existcache struct {
	m         sync.Mutex       // protects everything below
	clock     clock.Clock      // source of time, replaceable for testing
	cache     map[string]known // cache for item existence
	sweeptime time.Time        // next time to age everything
}

const (
	defaultMissTTL = 3 * time.Minute
	defaultHitTTL  = 240 * time.Hour // 10 days
)

func newExistCache(c clock.Clock) *existcache {
	if c == nil {
		c = clock.New()
	}
	return &existcache{
		clock: c,
		cache: make(map[string]known),
	}
}

// Get returns whether key exists. If key is not in the cache, or the cached
// entry has expired, it will call the fill function to find out.
func (s *existcache) Get(key string, fill func(key string) (bool, error)) (bool, error) {
	s.m.Lock()
	now := s.clock.Now()
	if now.After(s.sweeptime) {
		s.age(now)
	}
	entry, ok := s.cache[key]
	s.m.Unlock()
	if ok && now.Before(entry.expire) {
		return entry.exists, nil
	}
	// fill without holding the lock. A concurrent Set for this key may be
	// overwritten by a stale answer, which then only lives for one TTL.
	exists, err := fill(key)
	if err != nil {
		return false, err
	}
	s.Set(key, exists)
	return exists, nil
}

// Set records whether the given key exists.
func (s *existcache) Set(key string, exists bool) {
	ttl := defaultHitTTL
	if !exists {
		ttl = defaultMissTTL
	}
	s.m.Lock()
	s.cache[key] = known{expire: s.clock.Now().Add(ttl), exists: exists}
	s.m.Unlock()
}

// Forget removes any cached state for key.
func (s *existcache) Forget(key string) {
	s.m.Lock()
	delete(s.cache, key)
	s.m.Unlock()
}

// age removes the entries which have expired. Caller must hold m.
func (s *existcache) age(now time.Time) {
	s.sweeptime = now.Add(time.Hour) // next sweep in an hour
	for k, v := range s.cache {
		if now.After(v.expire) {
			delete(s.cache, k) // remove aged entries
		}
	}
}
