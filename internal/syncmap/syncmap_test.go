package syncmap_test

import (
	"sync"
	"testing"

	"github.com/delaneyj/reactnotify/internal/syncmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrAddCreatesOnce(t *testing.T) {
	m := syncmap.NewString[int]()
	calls := 0
	add := func() int {
		calls++
		return 7
	}

	assert.Equal(t, 7, m.GetOrAdd("a", add))
	assert.Equal(t, 7, m.GetOrAdd("a", add))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, m.Len())
}

func TestAddOrUpdate(t *testing.T) {
	m := syncmap.NewString[string]()

	v := m.AddOrUpdate("k", func() string { return "first" }, func(old string) string { return old + "!" })
	assert.Equal(t, "first", v)

	v = m.AddOrUpdate("k", func() string { return "unused" }, func(old string) string { return old + "!" })
	assert.Equal(t, "first!", v)

	got, ok := m.Load("k")
	require.True(t, ok)
	assert.Equal(t, "first!", got)
}

func TestTryAddKeepsFirst(t *testing.T) {
	m := syncmap.NewString[int]()
	assert.True(t, m.TryAdd("x", 1))
	assert.False(t, m.TryAdd("x", 2))
	v, _ := m.Load("x")
	assert.Equal(t, 1, v)
}

func TestLoadAndDeleteOnlyOnce(t *testing.T) {
	type id uint64
	m := syncmap.NewUint64[id, string]()
	m.Store(42, "answer")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.LoadAndDelete(42); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, 0, m.Len())
}

func TestRangeAllowsMutation(t *testing.T) {
	m := syncmap.NewString[int]()
	for _, k := range []string{"a", "b", "c", "d"} {
		m.Store(k, 1)
	}

	seen := 0
	m.Range(func(k string, v int) bool {
		seen++
		m.Delete(k)
		return true
	})
	assert.Equal(t, 4, seen)
	assert.Equal(t, 0, m.Len())
}

func TestRangeStopsEarly(t *testing.T) {
	m := syncmap.New[string, int](1, syncmap.HashString)
	m.Store("a", 1)
	m.Store("b", 2)

	seen := 0
	m.Range(func(string, int) bool {
		seen++
		return false
	})
	assert.Equal(t, 1, seen)
}

func TestDrain(t *testing.T) {
	m := syncmap.NewString[int]()
	m.Store("a", 1)
	m.Store("b", 2)

	out := m.Drain()
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, out)
	assert.Equal(t, 0, m.Len())
}
