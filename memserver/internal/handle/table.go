// Package handle maps uint32 handles to values. Handle 0 is never issued.
package handle

// Table stores values under reusable handles. It is not safe for concurrent use.
type Table[T any] struct {
	entries  []entry[T]
	freeList []uint32
	live     int
}

type entry[T any] struct {
	value T
	valid bool
}

// New returns an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{
		entries:  make([]entry[T], 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Insert stores v and returns its handle. Freed handles are reused first.
func (t *Table[T]) Insert(v T) uint32 {
	t.live++
	e := entry[T]{value: v, valid: true}
	if n := len(t.freeList); n > 0 {
		h := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[h-1] = e
		return h
	}
	t.entries = append(t.entries, e)
	return uint32(len(t.entries))
}

// Get returns the value stored under h.
func (t *Table[T]) Get(h uint32) (T, bool) {
	var zero T
	if h == 0 || int(h) > len(t.entries) {
		return zero, false
	}
	e := t.entries[h-1]
	if !e.valid {
		return zero, false
	}
	return e.value, true
}

// Remove drops h and returns its value.
func (t *Table[T]) Remove(h uint32) (T, bool) {
	v, ok := t.Get(h)
	if !ok {
		return v, false
	}
	t.entries[h-1] = entry[T]{}
	t.freeList = append(t.freeList, h)
	t.live--
	return v, true
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	return t.live
}

// Each calls fn for every live handle until fn returns false.
func (t *Table[T]) Each(fn func(h uint32, v T) bool) {
	for i, e := range t.entries {
		if e.valid && !fn(uint32(i+1), e.value) {
			return
		}
	}
}
