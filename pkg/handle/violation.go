package handle

import "fmt"

// ViolationKind classifies a contract violation.
type ViolationKind int

const (
	// ViolationNull is a null handle where a live one is required.
	ViolationNull ViolationKind = iota + 1
	// ViolationStale is a handle whose object was already deleted,
	// including a second Delete of the same handle.
	ViolationStale
	// ViolationWrongKind is a handle of another object type.
	ViolationWrongKind
	// ViolationRevoked is a borrowed handle whose owner was deleted or whose
	// lent field was replaced.
	ViolationRevoked
	// ViolationBorrowed is a borrowed handle where an owning handle is
	// required, such as a delete.
	ViolationBorrowed
	// ViolationOwned is an owning handle where a borrowed one is required.
	ViolationOwned
)

// String returns the violation kind name.
func (k ViolationKind) String() string {
	switch k {
	case ViolationNull:
		return "null"
	case ViolationStale:
		return "stale"
	case ViolationWrongKind:
		return "wrong_kind"
	case ViolationRevoked:
		return "revoked"
	case ViolationBorrowed:
		return "borrowed"
	case ViolationOwned:
		return "owned"
	default:
		return fmt.Sprintf("ViolationKind(%d)", int(k))
	}
}

// Violation describes a misuse of a handle. It is raised with panic.
type Violation struct {
	Kind ViolationKind

	// Table is the name of the table or lender that detected the misuse.
	Table string

	// ID is the offending handle.
	ID ID
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return fmt.Sprintf("handle contract violation: %s %s handle %s", v.Kind, v.Table, v.ID)
}

// Hook runs before a violation panics.
type Hook func(*Violation)

// Option configures a Table or Lender.
type Option func(*settings)

type settings struct {
	hook Hook
}

// WithHook installs a hook that runs before every violation panic.
func WithHook(h Hook) Option {
	return func(s *settings) {
		s.hook = h
	}
}

func (s *settings) raise(kind ViolationKind, table string, id ID) {
	v := &Violation{Kind: kind, Table: table, ID: id}
	if s.hook != nil {
		s.hook(v)
	}
	panic(v)
}
