package cstr

import (
	"bytes"
	"errors"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// ErrMissingTerminator is returned when a boundary string has no zero byte.
var ErrMissingTerminator = errors.New("boundary string is not NUL-terminated")

// Decode returns the bytes of a boundary string up to, not including, the
// first zero byte. The result aliases b.
func Decode(b []byte) ([]byte, error) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return nil, ErrMissingTerminator
	}
	return b[:i:i], nil
}

// Encode returns a detached, NUL-terminated copy of s. It is used when
// ownership of the bytes moves to the caller.
func Encode(s string) []byte {
	out := make([]byte, len(s)+1)
	copy(out, s)
	return out
}

// terminated is the shared storage of Text and Path: the value followed by a
// single zero byte. The zero value represents the empty string.
type terminated struct {
	b []byte
}

func newTerminated(raw []byte) terminated {
	if len(raw) == 0 {
		return terminated{}
	}
	b := make([]byte, len(raw)+1)
	copy(b, raw)
	return terminated{b: b}
}

func (t terminated) bytes() []byte {
	if len(t.b) == 0 {
		return nil
	}
	return t.b[: len(t.b)-1 : len(t.b)-1]
}

var emptyCString = []byte{0}

func (t terminated) cstring() []byte {
	if len(t.b) == 0 {
		return emptyCString
	}
	return t.b
}

func display(raw []byte) string {
	s, _, err := transform.Bytes(runes.ReplaceIllFormed(), raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("\uFFFD")))
	}
	return string(s)
}

// Text is a text value held in boundary form.
type Text struct {
	t terminated
}

// NewText builds a Text from a Go string. Go strings may hold arbitrary
// bytes, so the conversion is lossless. A zero byte inside s truncates the
// value, exactly as the boundary would.
func NewText(s string) Text {
	if i := bytes.IndexByte([]byte(s), 0); i >= 0 {
		s = s[:i]
	}
	return Text{t: newTerminated([]byte(s))}
}

// DecodeText decodes a NUL-terminated boundary string into a Text.
func DecodeText(b []byte) (Text, error) {
	raw, err := Decode(b)
	if err != nil {
		return Text{}, err
	}
	return Text{t: newTerminated(raw)}, nil
}

// String returns the exact text.
func (x Text) String() string { return string(x.t.bytes()) }

// Bytes returns the text without terminator. The slice aliases x.
func (x Text) Bytes() []byte { return x.t.bytes() }

// CString returns the NUL-terminated text. The slice aliases x and stays
// valid only while the owner keeps this value.
func (x Text) CString() []byte { return x.t.cstring() }

// Len reports the length in bytes, excluding the terminator.
func (x Text) Len() int { return len(x.t.bytes()) }

// IsEmpty reports whether the text is empty.
func (x Text) IsEmpty() bool { return x.Len() == 0 }

// Display returns a printable rendering for diagnostics. It is lossy.
func (x Text) Display() string { return display(x.t.bytes()) }

// Equal reports whether both values hold the same bytes.
func (x Text) Equal(y Text) bool { return bytes.Equal(x.t.bytes(), y.t.bytes()) }

// Path is a filesystem path held in boundary form.
type Path struct {
	t terminated
}

// NewPath builds a Path from a Go string, truncating at any zero byte.
func NewPath(s string) Path {
	if i := bytes.IndexByte([]byte(s), 0); i >= 0 {
		s = s[:i]
	}
	return Path{t: newTerminated([]byte(s))}
}

// DecodePath decodes a NUL-terminated boundary string into a Path and checks
// that the platform can represent it natively.
func DecodePath(b []byte) (Path, error) {
	raw, err := Decode(b)
	if err != nil {
		return Path{}, err
	}
	p := Path{t: newTerminated(raw)}
	if _, err := p.Native(); err != nil {
		return Path{}, err
	}
	return p, nil
}

// String returns the exact path bytes as a Go string.
func (p Path) String() string { return string(p.t.bytes()) }

// Bytes returns the path without terminator. The slice aliases p.
func (p Path) Bytes() []byte { return p.t.bytes() }

// CString returns the NUL-terminated path, aliasing p.
func (p Path) CString() []byte { return p.t.cstring() }

// IsEmpty reports whether the path is empty.
func (p Path) IsEmpty() bool { return len(p.t.bytes()) == 0 }

// Display returns a printable rendering for diagnostics. It is lossy.
func (p Path) Display() string { return display(p.t.bytes()) }

// Equal reports whether both paths hold the same bytes.
func (p Path) Equal(q Path) bool { return bytes.Equal(p.t.bytes(), q.t.bytes()) }

// Append returns p with suffix appended, e.g. ".map".
func (p Path) Append(suffix string) Path {
	return NewPath(p.String() + suffix)
}
