package async

import (
	"context"
	"sync"
)

// A Dispatcher runs callbacks on a completion context.
type Dispatcher interface {
	Dispatch(f func())
}

// Inline runs each callback right away on the worker goroutine which
// finished the operation. Callbacks may then run concurrently.
type Inline struct{}

// Dispatch calls f.
func (Inline) Dispatch(f func()) { f() }

// A Loop is a single consumer event loop. Callbacks are queued by Dispatch
// and run one at a time, in the order queued, by the goroutine calling Run.
// Use it when callbacks must not run concurrently, e.g. when they touch state
// owned by one goroutine.
type Loop struct {
	m       sync.Mutex // protects everything below
	queue   []func()
	closed  bool
	started bool
	wake    chan struct{}
	done    chan struct{}
}

// NewLoop returns an empty loop. Nothing runs until Run or Start is called.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Dispatch queues f. Functions dispatched after Close are dropped.
func (l *Loop) Dispatch(f func()) {
	l.m.Lock()
	if l.closed {
		l.m.Unlock()
		return
	}
	l.queue = append(l.queue, f)
	l.m.Unlock()
	l.signal()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes queued functions until the loop is closed and its queue is
// empty, in which case it returns nil, or until ctx is done, in which case it
// returns ctx.Err() and leaves the rest of the queue in place. Only one
// goroutine may be in Run at a time.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.m.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.m.Unlock()

		for _, f := range batch {
			f()
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return nil
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start() {
	l.m.Lock()
	l.started = true
	l.m.Unlock()
	go func() {
		l.Run(context.Background())
		close(l.done)
	}()
}

// Close stops the loop from accepting new functions. Functions already
// queued still run. If the loop was started with Start, Close waits for
// them to finish.
func (l *Loop) Close() {
	l.m.Lock()
	l.closed = true
	started := l.started
	l.m.Unlock()
	l.signal()
	if started {
		<-l.done
	}
}
