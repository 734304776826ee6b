package value

import (
	"strconv"
	"strings"
	"sync"
)

// Map is an ordered string-keyed map. Keys are unique and enumerate in
// insertion order; overwriting a key keeps its position.
type Map struct {
	mu    sync.RWMutex
	keys  []string
	vals  []Value
	index map[string]int
}

// NewMap creates an empty map
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// MapOf builds a map from alternating key/value pairs in order
func MapOf(pairs ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(Value))
	}
	return m
}

func (m *Map) Get(key string) (Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(key)
}

func (m *Map) getLocked(key string) (Value, bool) {
	if i, ok := m.index[key]; ok {
		return m.vals[i], true
	}
	return Undefined, false
}

func (m *Map) Set(key string, v Value) {
	m.mu.Lock()
	m.setLocked(key, v)
	m.mu.Unlock()
}

func (m *Map) setLocked(key string, v Value) {
	if i, ok := m.index[key]; ok {
		m.vals[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
}

// Delete removes key and reports whether it was present
func (m *Map) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
	return true
}

func (m *Map) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.index[key]
	return ok
}

func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.keys...)
}

// Range calls fn for each entry in order until fn returns false.
// It iterates over a snapshot, so fn may modify the map.
func (m *Map) Range(fn func(key string, v Value) bool) {
	m.mu.RLock()
	keys := append([]string(nil), m.keys...)
	vals := append([]Value(nil), m.vals...)
	m.mu.RUnlock()
	for i, k := range keys {
		if !fn(k, vals[i]) {
			return
		}
	}
}

// Values returns the entries' values in order, as a map keyed by position
func (m *Map) Values() *Map {
	out := NewMap()
	i := 0
	m.Range(func(_ string, v Value) bool {
		out.Set(strconv.Itoa(i), v)
		i++
		return true
	})
	return out
}

func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	m.Range(func(k string, v Value) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(k)
		sb.WriteString(": ")
		if inner, ok := v.AsMap(); ok && inner == m {
			sb.WriteString("{...}")
		} else {
			sb.WriteString(Inspect(v))
		}
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}
