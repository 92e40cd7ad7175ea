package handle

import "fmt"

// ID is the raw 64-bit handle value seen by foreign callers.
type ID uint64

// Null is the null handle.
const Null ID = 0

const (
	borrowBit = 1 << 63
	kindShift = 56
	kindMask  = 0x7f
	genShift  = 32
	genMask   = 1<<24 - 1
	indexMask = 1<<32 - 1
	firstGen  = 1
)

// Kind tags the object type a handle refers to. Zero is reserved.
type Kind uint8

func newID(kind Kind, gen, index uint32, borrowed bool) ID {
	id := ID(kind&kindMask)<<kindShift | ID(gen&genMask)<<genShift | ID(index)
	if borrowed {
		id |= borrowBit
	}
	return id
}

// IsNull reports whether id is the null handle.
func (id ID) IsNull() bool { return id == Null }

// IsBorrowed reports whether the borrow flag is set.
func (id ID) IsBorrowed() bool { return id&borrowBit != 0 }

// Kind returns the kind tag.
func (id ID) Kind() Kind { return Kind(id >> kindShift & kindMask) }

func (id ID) generation() uint32 { return uint32(id >> genShift & genMask) }

func (id ID) index() uint32 { return uint32(id & indexMask) }

// String formats the handle for diagnostics.
func (id ID) String() string {
	if id.IsNull() {
		return "null"
	}
	flag := "owned"
	if id.IsBorrowed() {
		flag = "borrowed"
	}
	return fmt.Sprintf("%s(kind=%d gen=%d slot=%d)", flag, id.Kind(), id.generation(), id.index())
}

func nextGen(gen uint32) uint32 {
	gen = (gen + 1) & genMask
	if gen == 0 {
		gen = firstGen
	}
	return gen
}

// Handle is satisfied by both Owned and Borrowed handles of T.
type Handle[T any] interface {
	ID() ID
	handleOf(*T)
}

// Owned is an owning handle to a T. Table.Make creates one; Table.Owned
// adopts a raw value received from a foreign caller.
type Owned[T any] struct {
	id ID
}

// ID returns the raw handle value.
func (h Owned[T]) ID() ID { return h.id }

// IsNull reports whether h is the null handle.
func (h Owned[T]) IsNull() bool { return h.id.IsNull() }

func (Owned[T]) handleOf(*T) {}

// Borrowed is a non-owning reference to a T embedded in another object.
// Lender.Lend creates one; Lender.Borrowed adopts a raw value.
type Borrowed[T any] struct {
	id ID
}

// ID returns the raw handle value.
func (h Borrowed[T]) ID() ID { return h.id }

// IsNull reports whether h is the null handle.
func (h Borrowed[T]) IsNull() bool { return h.id.IsNull() }

func (Borrowed[T]) handleOf(*T) {}
