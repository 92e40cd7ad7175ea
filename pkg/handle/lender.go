package handle

import "sync"

// Lender issues borrowed handles for objects of type T that live inside
// other objects. Each owner gets at most one live loan; lending again
// returns the same handle until the loan is revoked.
type Lender[T any] struct {
	mu      sync.Mutex
	name    string
	kind    Kind
	loans   []loan[T]
	free    []uint32
	byOwner map[ID]uint32
	live    int
	settings
}

type loan[T any] struct {
	gen   uint32
	owner ID
	value *T
}

// NewLender creates a lender for objects tagged with kind, normally the
// same kind as the Table holding standalone objects of T.
func NewLender[T any](kind Kind, name string, opts ...Option) *Lender[T] {
	if kind == 0 || kind > kindMask {
		panic("handle: lender kind out of range")
	}
	l := &Lender[T]{name: name, kind: kind, byOwner: make(map[ID]uint32)}
	for _, opt := range opts {
		opt(&l.settings)
	}
	return l
}

// Lend returns a borrowed handle to v, which must be embedded in the object
// identified by owner.
func (l *Lender[T]) Lend(owner ID, v *T) Borrowed[T] {
	if v == nil {
		panic("handle: Lend with nil value")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if index, ok := l.byOwner[owner]; ok {
		ln := &l.loans[index]
		if ln.value == v {
			return Borrowed[T]{id: newID(l.kind, ln.gen, index, true)}
		}
		l.release(index)
	}

	var index uint32
	if n := len(l.free); n > 0 {
		index = l.free[n-1]
		l.free = l.free[:n-1]
	} else {
		index = uint32(len(l.loans))
		l.loans = append(l.loans, loan[T]{})
	}
	ln := &l.loans[index]
	ln.gen = nextGen(ln.gen)
	ln.owner = owner
	ln.value = v
	l.byOwner[owner] = index
	l.live++
	return Borrowed[T]{id: newID(l.kind, ln.gen, index, true)}
}

// Loan returns the outstanding loan for owner, or the null handle.
func (l *Lender[T]) Loan(owner ID) Borrowed[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	index, ok := l.byOwner[owner]
	if !ok {
		return Borrowed[T]{}
	}
	return Borrowed[T]{id: newID(l.kind, l.loans[index].gen, index, true)}
}

// Borrowed adopts a raw value as a borrowed handle. An owning value is
// rejected here; everything else is checked on use.
func (l *Lender[T]) Borrowed(id ID) Borrowed[T] {
	if !id.IsNull() && !id.IsBorrowed() {
		l.raise(ViolationOwned, l.name, id)
	}
	return Borrowed[T]{id: id}
}

// Get resolves b. It panics with a *Violation when b is null, of another
// kind, or revoked.
func (l *Lender[T]) Get(b Borrowed[T]) *T {
	l.mu.Lock()
	v, _, kind := l.lookup(b.id)
	l.mu.Unlock()
	if kind != 0 {
		l.raise(kind, l.name, b.id)
	}
	return v
}

// Owner returns the owner b was lent from.
func (l *Lender[T]) Owner(b Borrowed[T]) ID {
	l.mu.Lock()
	_, owner, kind := l.lookup(b.id)
	l.mu.Unlock()
	if kind != 0 {
		l.raise(kind, l.name, b.id)
	}
	return owner
}

// Revoke invalidates the loan made for owner, if any, and returns the
// handle that was revoked.
func (l *Lender[T]) Revoke(owner ID) (ID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	index, ok := l.byOwner[owner]
	if !ok {
		return Null, false
	}
	id := newID(l.kind, l.loans[index].gen, index, true)
	l.release(index)
	return id, true
}

// Live returns the number of outstanding loans.
func (l *Lender[T]) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

// release must be called with l.mu held.
func (l *Lender[T]) release(index uint32) {
	ln := &l.loans[index]
	delete(l.byOwner, ln.owner)
	ln.owner = Null
	ln.value = nil
	l.free = append(l.free, index)
	l.live--
}

// lookup must be called with l.mu held.
func (l *Lender[T]) lookup(id ID) (*T, ID, ViolationKind) {
	switch {
	case id.IsNull():
		return nil, Null, ViolationNull
	case !id.IsBorrowed():
		return nil, Null, ViolationOwned
	case id.Kind() != l.kind:
		return nil, Null, ViolationWrongKind
	}
	index := id.index()
	if int(index) >= len(l.loans) {
		return nil, Null, ViolationRevoked
	}
	ln := &l.loans[index]
	if ln.value == nil || ln.gen != id.generation() {
		return nil, Null, ViolationRevoked
	}
	return ln.value, ln.owner, 0
}

// Resolve returns the object h refers to, using t for owning handles and l
// for borrowed ones. l may be nil when T is never lent.
func Resolve[T any](t *Table[T], l *Lender[T], h Handle[T]) *T {
	switch h := h.(type) {
	case Owned[T]:
		return t.Get(h)
	case Borrowed[T]:
		if l == nil {
			t.raise(ViolationBorrowed, t.name, h.id)
		}
		return l.Get(h)
	default:
		panic("handle: unknown handle implementation")
	}
}

// Adopt turns a raw value into the handle type its borrow flag names.
func Adopt[T any](t *Table[T], l *Lender[T], id ID) Handle[T] {
	if id.IsBorrowed() {
		if l == nil {
			t.raise(ViolationBorrowed, t.name, id)
		}
		return l.Borrowed(id)
	}
	return t.Owned(id)
}
