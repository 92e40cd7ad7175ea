//go:build windows

package cstr

import (
	"encoding/binary"
	"errors"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// ErrInvalidUTF8 is returned when boundary bytes cannot be read as UTF-8 and
// therefore have no wide-character equivalent.
var ErrInvalidUTF8 = errors.New("boundary path is not valid UTF-8")

// ErrInvalidUTF16 is returned when native code units hold an unpaired
// surrogate and therefore have no UTF-8 equivalent.
var ErrInvalidUTF16 = errors.New("native path is not valid UTF-16")

// Native is the platform path representation: NUL-terminated UTF-16 code
// units as consumed by the wide-character file APIs.
type Native []uint16

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Native converts p to UTF-16. The boundary bytes are read as UTF-8; ill-formed
// input is rejected rather than replaced so that a converted path always names
// the file the caller meant.
func (p Path) Native() (Native, error) {
	raw := p.t.bytes()
	if !utf8.Valid(raw) {
		return nil, ErrInvalidUTF8
	}
	wide, err := utf16le.NewEncoder().Bytes(raw)
	if err != nil {
		return nil, err
	}
	out := make(Native, len(wide)/2+1)
	for i := 0; i+1 < len(wide); i += 2 {
		out[i/2] = binary.LittleEndian.Uint16(wide[i:])
	}
	return out, nil
}

// PathFromNative converts UTF-16 code units (optionally NUL-terminated) back
// to boundary form. Unpaired surrogates are rejected rather than replaced.
func PathFromNative(n Native) (Path, error) {
	for i, u := range n {
		if u == 0 {
			n = n[:i]
			break
		}
	}
	if !validUTF16(n) {
		return Path{}, ErrInvalidUTF16
	}
	wide := make([]byte, 2*len(n))
	for i, u := range n {
		binary.LittleEndian.PutUint16(wide[2*i:], u)
	}
	raw, err := utf16le.NewDecoder().Bytes(wide)
	if err != nil {
		return Path{}, err
	}
	return Path{t: newTerminated(raw)}, nil
}

func validUTF16(n Native) bool {
	for i := 0; i < len(n); i++ {
		r := rune(n[i])
		if !utf16.IsSurrogate(r) {
			continue
		}
		if r >= 0xdc00 || i+1 == len(n) {
			return false
		}
		if utf16.DecodeRune(r, rune(n[i+1])) == utf8.RuneError {
			return false
		}
		i++
	}
	return true
}
