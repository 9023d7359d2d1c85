// Package async runs objectstore operations in the background. Each
// operation is handed to a bounded pool of goroutines and its result is
// passed to a callback on a completion context chosen by the caller.
//
// The operations go through a safe.Store, so failures have already been
// logged and turned into false or nil by the time a callback sees them.
// Every callback is invoked exactly once per accepted operation; a nil
// callback is allowed and the result is then discarded.
//
//	loop := async.NewLoop()
//	ex := async.New(safe.New(raw, nil), async.Options{Dispatcher: loop})
//	async.Store(ex, "k", v, func(id string, v T, ok bool) { ... })
//	...
//	loop.Run(ctx)
//
// There is no cancellation. Operations on different identifiers run in
// parallel and complete in any order.
package async

import (
	"errors"
	"runtime"
	"sync"

	"github.com/ndlib/objectstore/safe"
	"github.com/ndlib/objectstore/util"
)

// ErrClosed is returned when an operation is submitted after Close.
var ErrClosed = errors.New("async: executor is closed")

// Options configure an Executor.
type Options struct {
	// Workers is the most operations running at once. It defaults to the
	// number of CPUs.
	Workers int
	// Dispatcher runs the callbacks. It defaults to Inline.
	Dispatcher Dispatcher
}

// An Executor runs operations against a safe.Store on a worker pool.
type Executor struct {
	store    *safe.Store
	gate     *util.Gate
	dispatch Dispatcher
	wg       sync.WaitGroup

	m      sync.RWMutex // protects closed
	closed bool
}

// New returns an executor running operations against s.
func New(s *safe.Store, opts Options) *Executor {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = Inline{}
	}
	return &Executor{
		store:    s,
		gate:     util.NewGate(opts.Workers),
		dispatch: opts.Dispatcher,
	}
}

// Store returns the facade operations run against.
func (e *Executor) Store() *safe.Store {
	return e.store
}

// submit runs work in the background once a worker slot is free. The
// function work returns is handed to the dispatcher, unless it is nil.
func (e *Executor) submit(work func() func()) error {
	e.m.RLock()
	defer e.m.RUnlock()
	if e.closed {
		return ErrClosed
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if !e.gate.Enter() {
			return
		}
		deliver := work()
		e.gate.Leave()
		if deliver != nil {
			e.dispatch.Dispatch(deliver)
		}
	}()
	return nil
}

// Close refuses new operations and waits for the accepted ones to finish and
// hand their callbacks to the dispatcher. When the dispatcher is a Loop,
// close the Executor first and the Loop second, so the last callbacks still
// run.
func (e *Executor) Close() error {
	e.m.Lock()
	if e.closed {
		e.m.Unlock()
		return nil
	}
	e.closed = true
	e.m.Unlock()

	e.wg.Wait()
	e.gate.Stop()
	return nil
}
