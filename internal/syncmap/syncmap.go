// Package syncmap is a sharded, mutex-guarded associative map with the
// atomic get-or-add / add-or-update / remove-if-present operations the
// notification registries are built on.
package syncmap

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const DefaultShardCount = 16

type HashFunc[K comparable] func(K) uint64

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

type Map[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   HashFunc[K]
}

// New returns a map spreading keys over shardCount shards using hash.
// A shardCount below one falls back to DefaultShardCount.
func New[K comparable, V any](shardCount int, hash HashFunc[K]) *Map[K, V] {
	if shardCount < 1 {
		shardCount = DefaultShardCount
	}
	m := &Map[K, V]{
		shards: make([]*shard[K, V], shardCount),
		hash:   hash,
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{m: map[K]V{}}
	}
	return m
}

func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

func HashUint64(v uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return xxhash.Sum64(buf[:])
}

func NewString[V any]() *Map[string, V] {
	return New[string, V](DefaultShardCount, HashString)
}

func NewUint64[K ~uint64, V any]() *Map[K, V] {
	return New[K, V](DefaultShardCount, func(k K) uint64 {
		return HashUint64(uint64(k))
	})
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	if len(m.shards) == 1 {
		return m.shards[0]
	}
	return m.shards[m.hash(key)%uint64(len(m.shards))]
}

func (m *Map[K, V]) Load(key K) (v V, ok bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok = s.m[key]
	s.mu.RUnlock()
	return v, ok
}

func (m *Map[K, V]) Store(key K, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
}

// TryAdd stores value only when key is absent and reports whether it did.
func (m *Map[K, V]) TryAdd(key K, value V) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; ok {
		return false
	}
	s.m[key] = value
	return true
}

// GetOrAdd returns the value for key, creating it with add when absent.
// add runs under the shard lock and at most once per missing key.
func (m *Map[K, V]) GetOrAdd(key K, add func() V) V {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok := s.m[key]
	s.mu.RUnlock()
	if ok {
		return v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok = s.m[key]; ok {
		return v
	}
	v = add()
	s.m[key] = v
	return v
}

// AddOrUpdate stores add() when key is absent or update(old) when present,
// returning whatever was stored. Both callbacks run under the shard lock.
func (m *Map[K, V]) AddOrUpdate(key K, add func() V, update func(old V) V) V {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.m[key]
	var v V
	if ok {
		v = update(old)
	} else {
		v = add()
	}
	s.m[key] = v
	return v
}

// LoadAndDelete removes key if present, returning the removed value.
func (m *Map[K, V]) LoadAndDelete(key K) (v V, ok bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	v, ok = s.m[key]
	if ok {
		delete(s.m, key)
	}
	s.mu.Unlock()
	return v, ok
}

func (m *Map[K, V]) Delete(key K) {
	m.LoadAndDelete(key)
}

// Range calls fn for a snapshot of every entry until fn returns false.
// fn runs without any shard lock held, so it may mutate the map.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		keys := make([]K, 0, len(s.m))
		values := make([]V, 0, len(s.m))
		for k, v := range s.m {
			keys = append(keys, k)
			values = append(values, v)
		}
		s.mu.RUnlock()

		for i := range keys {
			if !fn(keys[i], values[i]) {
				return
			}
		}
	}
}

func (m *Map[K, V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Drain empties the map and returns everything it held.
func (m *Map[K, V]) Drain() map[K]V {
	out := map[K]V{}
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.m {
			out[k] = v
		}
		s.m = map[K]V{}
		s.mu.Unlock()
	}
	return out
}
