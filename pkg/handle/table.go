package handle

import "sync"

// Table maps owning handles to objects of type T. The mutex guards slot
// bookkeeping only; the objects themselves are not locked.
type Table[T any] struct {
	mu    sync.Mutex
	name  string
	kind  Kind
	slots []slot[T]
	free  []uint32
	live  int
	settings
}

type slot[T any] struct {
	gen   uint32
	value *T
}

// NewTable creates a table for objects tagged with kind. Name appears in
// violations. Kind must be nonzero and below 128.
func NewTable[T any](kind Kind, name string, opts ...Option) *Table[T] {
	if kind == 0 || kind > kindMask {
		panic("handle: table kind out of range")
	}
	t := &Table[T]{name: name, kind: kind}
	for _, opt := range opts {
		opt(&t.settings)
	}
	return t
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// Kind returns the kind tag of handles issued by t.
func (t *Table[T]) Kind() Kind { return t.kind }

// Make stores v and returns a new owning handle for it.
func (t *Table[T]) Make(v *T) Owned[T] {
	if v == nil {
		panic("handle: Make with nil value")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var index uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		index = uint32(len(t.slots))
		t.slots = append(t.slots, slot[T]{})
	}
	s := &t.slots[index]
	s.gen = nextGen(s.gen)
	s.value = v
	t.live++
	return Owned[T]{id: newID(t.kind, s.gen, index, false)}
}

// Owned adopts a raw value as an owning handle of t. The handle is checked
// when it is used, except that a borrowed value is rejected here.
func (t *Table[T]) Owned(id ID) Owned[T] {
	if id.IsBorrowed() {
		t.raise(ViolationBorrowed, t.name, id)
	}
	return Owned[T]{id: id}
}

// Get resolves h. It panics with a *Violation when h is null, stale or of
// another kind.
func (t *Table[T]) Get(h Owned[T]) *T {
	t.mu.Lock()
	v, kind := t.lookup(h.id)
	t.mu.Unlock()
	if kind != 0 {
		t.raise(kind, t.name, h.id)
	}
	return v
}

// Delete releases h and returns the object it referred to. Deleting the null
// handle does nothing and returns nil. Deleting a stale handle, including a
// second delete of the same handle, is a violation.
func (t *Table[T]) Delete(h Owned[T]) *T {
	if h.id.IsNull() {
		return nil
	}
	t.mu.Lock()
	v, kind := t.lookup(h.id)
	if kind == 0 {
		s := &t.slots[h.id.index()]
		s.value = nil
		t.free = append(t.free, h.id.index())
		t.live--
	}
	t.mu.Unlock()
	if kind != 0 {
		t.raise(kind, t.name, h.id)
	}
	return v
}

// Valid reports whether h refers to a live object of t.
func (t *Table[T]) Valid(h Owned[T]) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, kind := t.lookup(h.id)
	return kind == 0
}

// Live returns the number of live objects.
func (t *Table[T]) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

// lookup must be called with t.mu held. It returns the object or the reason
// the handle does not resolve.
func (t *Table[T]) lookup(id ID) (*T, ViolationKind) {
	switch {
	case id.IsNull():
		return nil, ViolationNull
	case id.IsBorrowed():
		return nil, ViolationBorrowed
	case id.Kind() != t.kind:
		return nil, ViolationWrongKind
	}
	index := id.index()
	if int(index) >= len(t.slots) {
		return nil, ViolationStale
	}
	s := &t.slots[index]
	if s.value == nil || s.gen != id.generation() {
		return nil, ViolationStale
	}
	return s.value, 0
}
