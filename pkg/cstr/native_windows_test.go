//go:build windows

package cstr

import (
	"errors"
	"testing"
)

func TestDecodePathWide(t *testing.T) {
	p, err := DecodePath([]byte("caf\xc3\xa9.scss\x00"))
	if err != nil {
		t.Fatalf("DecodePath() error: %v", err)
	}
	n, err := p.Native()
	if err != nil {
		t.Fatalf("Native() error: %v", err)
	}
	want := []uint16{'c', 'a', 'f', 0xe9, '.', 's', 'c', 's', 's', 0}
	if len(n) != len(want) {
		t.Fatalf("Native() = %v, want %v", n, want)
	}
	for i := range want {
		if n[i] != want[i] {
			t.Fatalf("Native()[%d] = %#x, want %#x", i, n[i], want[i])
		}
	}
	back, err := PathFromNative(n)
	if err != nil {
		t.Fatalf("PathFromNative() error: %v", err)
	}
	if !back.Equal(p) {
		t.Errorf("round trip changed the path: %q", back.String())
	}
}

func TestDecodePathRejectsInvalidUTF8(t *testing.T) {
	if _, err := DecodePath([]byte{'a', 0xff, 0}); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("DecodePath() error = %v, want ErrInvalidUTF8", err)
	}
}

func TestPathFromNativeRejectsUnpairedSurrogates(t *testing.T) {
	tests := []struct {
		name string
		in   Native
	}{
		{name: "lone high", in: Native{'a', 0xd800, 'b', 0}},
		{name: "lone low", in: Native{'a', 0xdc00, 0}},
		{name: "high at end", in: Native{'a', 0xd83d}},
		{name: "reversed pair", in: Native{0xde00, 0xd83d, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PathFromNative(tt.in); !errors.Is(err, ErrInvalidUTF16) {
				t.Errorf("PathFromNative() error = %v, want ErrInvalidUTF16", err)
			}
		})
	}

	p, err := PathFromNative(Native{0xd83d, 0xde00, '.', 's', 'c', 's', 's', 0})
	if err != nil {
		t.Fatalf("PathFromNative(surrogate pair) error: %v", err)
	}
	if got := p.String(); got != "\U0001F600.scss" {
		t.Errorf("PathFromNative(surrogate pair) = %q", got)
	}
}
