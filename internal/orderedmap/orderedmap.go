// Package orderedmap provides a frame-keyed sorted map supporting the
// lower_bound/upper_bound range operations the script engine's per-level
// caches (save bank, save cache, frame counter, inputs cache, load tracker)
// all need for diff-invalidation pruning.
package orderedmap

import "sort"

// Map is an ordered map keyed by int64 (frame numbers). The zero value is
// ready to use.
type Map[V any] struct {
	order []int64
	byKey map[int64]V
}

func (m *Map[V]) init() {
	if m.byKey == nil {
		m.byKey = make(map[int64]V)
	}
}

// Len reports the number of entries.
func (m *Map[V]) Len() int { return len(m.order) }

// Empty reports whether the map has no entries.
func (m *Map[V]) Empty() bool { return len(m.order) == 0 }

// Get returns the value at key, if present.
func (m *Map[V]) Get(key int64) (V, bool) {
	v, ok := m.byKey[key]
	return v, ok
}

// Contains reports whether key is present.
func (m *Map[V]) Contains(key int64) bool {
	_, ok := m.byKey[key]
	return ok
}

// Set inserts or overwrites the value at key.
func (m *Map[V]) Set(key int64, v V) {
	m.init()
	if _, exists := m.byKey[key]; exists {
		m.byKey[key] = v
		return
	}
	i := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= key })
	m.order = append(m.order, 0)
	copy(m.order[i+1:], m.order[i:])
	m.order[i] = key
	m.byKey[key] = v
}

// Delete removes the entry at key, if any.
func (m *Map[V]) Delete(key int64) {
	if _, ok := m.byKey[key]; !ok {
		return
	}
	delete(m.byKey, key)
	i := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= key })
	m.order = append(m.order[:i], m.order[i+1:]...)
}

// FirstKey returns the smallest key. Panics if empty.
func (m *Map[V]) FirstKey() int64 { return m.order[0] }

// LastKey returns the largest key. Panics if empty.
func (m *Map[V]) LastKey() int64 { return m.order[len(m.order)-1] }

// LastAtOrBefore returns the entry with the largest key <= target, the
// equivalent of `std::prev(upper_bound(target))` guarded for emptiness.
func (m *Map[V]) LastAtOrBefore(target int64) (key int64, value V, ok bool) {
	i := sort.Search(len(m.order), func(i int) bool { return m.order[i] > target })
	if i == 0 {
		return 0, value, false
	}
	k := m.order[i-1]
	return k, m.byKey[k], true
}

// LowerBound returns the smallest key >= target, if any (C++ lower_bound).
func (m *Map[V]) LowerBound(target int64) (int64, bool) {
	i := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= target })
	if i == len(m.order) {
		return 0, false
	}
	return m.order[i], true
}

// EraseFrom removes every entry with key >= from (C++ erase(lower_bound(from), end())).
func (m *Map[V]) EraseFrom(from int64) {
	i := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= from })
	m.eraseTail(i)
}

// EraseAfter removes every entry with key > after (C++ erase(upper_bound(after), end())).
func (m *Map[V]) EraseAfter(after int64) {
	i := sort.Search(len(m.order), func(i int) bool { return m.order[i] > after })
	m.eraseTail(i)
}

func (m *Map[V]) eraseTail(i int) {
	for _, k := range m.order[i:] {
		delete(m.byKey, k)
	}
	m.order = m.order[:i]
}

// EraseBefore removes every entry with key < before and returns the removed
// keys.
func (m *Map[V]) EraseBefore(before int64) []int64 {
	i := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= before })
	removed := append([]int64(nil), m.order[:i]...)
	for _, k := range m.order[:i] {
		delete(m.byKey, k)
	}
	m.order = m.order[i:]
	return removed
}

// Keys returns the keys in increasing order. The returned slice must not be
// mutated.
func (m *Map[V]) Keys() []int64 { return m.order }

// Each calls fn in increasing key order.
func (m *Map[V]) Each(fn func(key int64, value V)) {
	for _, k := range m.order {
		fn(k, m.byKey[k])
	}
}
