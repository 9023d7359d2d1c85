package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndlib/objectstore"
	"github.com/ndlib/objectstore/safe"
	"github.com/ndlib/objectstore/store"
)

func newExecutor(s store.Store, opts Options) *Executor {
	raw := objectstore.New(s)
	return New(safe.New(raw, objectstore.NewNoopLogger()), opts)
}

// drain closes ex and then runs every callback left on loop.
func drain(t *testing.T, ex *Executor, loop *Loop) {
	require.NoError(t, ex.Close())
	loop.Close()
	require.NoError(t, loop.Run(context.Background()))
}

func TestStoreCallbackOnLoop(t *testing.T) {
	loop := NewLoop()
	ex := newExecutor(store.NewMemory(), Options{Dispatcher: loop})

	type call struct {
		id string
		v  string
		ok bool
	}
	var calls []call
	err := Store(ex, "k", "v", func(id string, v string, ok bool) {
		calls = append(calls, call{id, v, ok})
	})
	require.NoError(t, err)
	drain(t, ex, loop)

	assert.Equal(t, []call{{"k", "v", true}}, calls)
	assert.True(t, ex.Store().Contains("k"))
}

func TestCallbacksDoNotOverlap(t *testing.T) {
	loop := NewLoop()
	ex := newExecutor(store.NewMemory(), Options{Workers: 8, Dispatcher: loop})

	var running, most int32
	seen := make(map[string]int)
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("id%d", i)
		err := StoreList(ex, id, []int{i}, func(id string, _ []int, ok bool) {
			n := atomic.AddInt32(&running, 1)
			if n > most {
				most = n
			}
			seen[id]++
			atomic.AddInt32(&running, -1)
		})
		require.NoError(t, err)
	}
	drain(t, ex, loop)

	assert.Equal(t, int32(1), most)
	assert.Len(t, seen, 100)
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
}

func TestRoundTrip(t *testing.T) {
	ex := newExecutor(store.NewMemory(), Options{})
	var wg sync.WaitGroup
	wg.Add(4)
	require.NoError(t, StoreList(ex, "l", []string{"a", "b"}, func(string, []string, bool) { wg.Done() }))
	require.NoError(t, StoreSet(ex, "s", objectstore.NewSet(1, 2), func(string, objectstore.Set[int], bool) { wg.Done() }))
	require.NoError(t, StoreMap(ex, "m", map[string]int{"a": 1}, func(string, map[string]int, bool) { wg.Done() }))
	require.NoError(t, Store(ex, "v", 42, func(string, int, bool) { wg.Done() }))
	wg.Wait()

	var (
		list []string
		set  objectstore.Set[int]
		m    map[string]int
		v    *int
	)
	wg.Add(4)
	require.NoError(t, GetList[string](ex, "l", func(_ string, got []string) { list = got; wg.Done() }))
	require.NoError(t, GetSet[int](ex, "s", func(_ string, got objectstore.Set[int]) { set = got; wg.Done() }))
	require.NoError(t, GetMap[string, int](ex, "m", func(_ string, got map[string]int) { m = got; wg.Done() }))
	require.NoError(t, Get[int](ex, "v", func(_ string, got *int) { v = got; wg.Done() }))
	wg.Wait()
	require.NoError(t, ex.Close())

	assert.Equal(t, []string{"a", "b"}, list)
	assert.Equal(t, objectstore.NewSet(1, 2), set)
	assert.Equal(t, map[string]int{"a": 1}, m)
	require.NotNil(t, v)
	assert.Equal(t, 42, *v)
}

func TestFill(t *testing.T) {
	loop := NewLoop()
	ex := newExecutor(store.NewMemory(), Options{Dispatcher: loop})
	ex.Store().Store("l", []int{1, 2})
	safe.StoreMap(ex.Store(), "m", map[int]bool{1: true})

	list := objectstore.List[int]{0}
	var listOK bool
	err := FillCollection[int](ex, "l", &list, func(id string, c *objectstore.List[int], ok bool) {
		assert.Equal(t, "l", id)
		listOK = ok
	})
	require.NoError(t, err)

	m := map[int]bool{}
	var mapOK bool
	err = FillMap(ex, "m", m, func(_ string, _ map[int]bool, ok bool) { mapOK = ok })
	require.NoError(t, err)

	var absentOK = true
	err = FillMap(ex, "none", map[int]bool{}, func(_ string, _ map[int]bool, ok bool) { absentOK = ok })
	require.NoError(t, err)
	drain(t, ex, loop)

	assert.True(t, listOK)
	assert.Equal(t, objectstore.List[int]{0, 1, 2}, list)
	assert.True(t, mapOK)
	assert.Equal(t, map[int]bool{1: true}, m)
	assert.False(t, absentOK)
}

func TestRemove(t *testing.T) {
	loop := NewLoop()
	ex := newExecutor(store.NewMemory(), Options{Workers: 1, Dispatcher: loop})
	ex.Store().Store("k", 1)

	var results []bool
	require.NoError(t, ex.Remove("k", func(_ string, removed bool) { results = append(results, removed) }))
	drain(t, ex, loop)
	assert.Equal(t, []bool{true}, results)
	assert.False(t, ex.Store().Contains("k"))
}

func TestNilCallbacks(t *testing.T) {
	ex := newExecutor(store.NewMemory(), Options{})
	assert.NoError(t, Store[int](ex, "k", 1, nil))
	assert.NoError(t, StoreList[int](ex, "l", []int{1}, nil))
	assert.NoError(t, Get[int](ex, "k", nil))
	assert.NoError(t, GetMap[string, int](ex, "m", nil))
	assert.NoError(t, FillCollection[int](ex, "l", &objectstore.List[int]{}, nil))
	assert.NoError(t, ex.Remove("l", nil))
	require.NoError(t, ex.Close())
	assert.True(t, ex.Store().Contains("k"))
}

var errNoDisk = errors.New("no disk")

type brokenStore struct{ store.Store }

func (brokenStore) Contains(string) (bool, error) { return false, errNoDisk }
func (brokenStore) Get(string) ([]byte, error)    { return nil, errNoDisk }
func (brokenStore) Put(string, []byte) error      { return errNoDisk }

func TestFailureSeenAsFalse(t *testing.T) {
	loop := NewLoop()
	ex := newExecutor(brokenStore{store.NewMemory()}, Options{Dispatcher: loop})

	var stored = true
	var got = []int{7}
	require.NoError(t, Store(ex, "k", 1, func(_ string, _ int, ok bool) { stored = ok }))
	require.NoError(t, GetList[int](ex, "k", func(_ string, v []int) { got = v }))
	drain(t, ex, loop)

	assert.False(t, stored)
	assert.Nil(t, got)
}

// slowStore counts how many Puts are in progress at once.
type slowStore struct {
	store.Store
	running, most int32
}

func (s *slowStore) Put(key string, value []byte) error {
	n := atomic.AddInt32(&s.running, 1)
	for {
		m := atomic.LoadInt32(&s.most)
		if n <= m || atomic.CompareAndSwapInt32(&s.most, m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&s.running, -1)
	return s.Store.Put(key, value)
}

func TestWorkerLimit(t *testing.T) {
	s := &slowStore{Store: store.NewMemory()}
	ex := newExecutor(s, Options{Workers: 2})
	for i := 0; i < 20; i++ {
		require.NoError(t, Store[int](ex, fmt.Sprint(i), i, nil))
	}
	require.NoError(t, ex.Close())
	assert.True(t, s.most <= 2, "most = %d", s.most)
	assert.Len(t, ex.Store().Keys(""), 20)
}

func TestClosed(t *testing.T) {
	ex := newExecutor(store.NewMemory(), Options{})
	require.NoError(t, ex.Close())
	require.NoError(t, ex.Close())

	called := false
	err := Store(ex, "k", 1, func(string, int, bool) { called = true })
	assert.Equal(t, ErrClosed, err)
	assert.Equal(t, ErrClosed, ex.Remove("k", nil))
	assert.False(t, called)
}

func TestLoopOrder(t *testing.T) {
	loop := NewLoop()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Dispatch(func() { got = append(got, i) })
	}
	loop.Close()
	loop.Dispatch(func() { got = append(got, 99) })
	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoopContext(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Equal(t, context.DeadlineExceeded, loop.Run(ctx))
}

func TestLoopStart(t *testing.T) {
	loop := NewLoop()
	loop.Start()
	var n int32
	for i := 0; i < 10; i++ {
		loop.Dispatch(func() { atomic.AddInt32(&n, 1) })
	}
	loop.Close()
	assert.Equal(t, int32(10), atomic.LoadInt32(&n))
}

func TestMisorderedMapSeenAsFalse(t *testing.T) {
	loop := NewLoop()
	m := store.NewMemory()
	ex := newExecutor(m, Options{Dispatcher: loop})
	require.NoError(t, m.Put("m", []byte(`[{"value":1,"key":"a"}]`)))

	target := map[string]int{"keep": 1}
	filled := true
	require.NoError(t, FillMap(ex, "m", target, func(_ string, _ map[string]int, ok bool) { filled = ok }))
	got := map[string]int{"x": 1}
	require.NoError(t, GetMap[string, int](ex, "m", func(_ string, v map[string]int) { got = v }))
	drain(t, ex, loop)

	assert.False(t, filled)
	assert.Equal(t, map[string]int{"keep": 1}, target)
	assert.Nil(t, got)
}
