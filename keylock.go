package objectstore

import "sync"

// keyLock hands out one mutex per identifier. Mutexes are created on demand
// and dropped once nobody holds or waits for them, so the map only ever has
// entries for identifiers in use.
type keyLock struct {
	mu    sync.Mutex // protects locks
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	n int // holders plus waiters
}

// Lock blocks until the caller holds the lock for id. The returned function
// releases it.
func (k *keyLock) Lock(id string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refLock)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &refLock{}
		k.locks[id] = l
	}
	l.n++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.n--
		if l.n == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

// size returns the number of identifiers currently locked or waited on.
func (k *keyLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func nopUnlock() {}
