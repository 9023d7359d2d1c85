package util

import "sync"

// A Gate limits concurrency. Every gate has a maximum number of goroutines to
// allow through at a time. Goroutines enter the gate by calling Enter(), and
// signal that they are done by calling Leave(). Once Stop() is called the
// gate refuses everyone.
type Gate struct {
	slots chan struct{}
	stop  chan struct{}
	once  sync.Once
}

// NewGate returns a Gate which accepts at most n entries at a time.
func NewGate(n int) *Gate {
	if n < 1 {
		n = 1
	}
	return &Gate{
		slots: make(chan struct{}, n),
		stop:  make(chan struct{}),
	}
}

// Enter is called at the beginning of the section to be protected by
// the gate, and will block the calling goroutine until there are less than
// n goroutines inside. It returns false, without entering, if the gate is
// stopped before a place frees up.
// It is safe to call this from multiple goroutines.
func (g *Gate) Enter() bool {
	select {
	case <-g.stop:
		return false
	default:
	}
	select {
	case g.slots <- struct{}{}:
	case <-g.stop:
		return false
	}
	// both cases may have been ready at once
	select {
	case <-g.stop:
		<-g.slots
		return false
	default:
	}
	return true
}

// Leave marks a goroutine outside the critical section. It is important to
// balance each successful call to Enter with a call to Leave. Enter and Leave
// do not need to be called from the same goroutine, necessarily.
func (g *Gate) Leave() {
	<-g.slots
}

// Stop closes the gate. Goroutines waiting in Enter return false, and Stop
// blocks until every goroutine inside has called Leave.
func (g *Gate) Stop() {
	g.once.Do(func() {
		close(g.stop)
		// taking every slot means nobody is left inside
		for i := 0; i < cap(g.slots); i++ {
			g.slots <- struct{}{}
		}
	})
}
