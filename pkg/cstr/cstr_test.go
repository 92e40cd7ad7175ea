package cstr

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    string
		wantErr error
	}{
		{name: "terminated", input: []byte("main.scss\x00"), want: "main.scss"},
		{name: "empty string", input: []byte{0}, want: ""},
		{name: "stops at first zero", input: []byte("a\x00b\x00"), want: "a"},
		{name: "missing terminator", input: []byte("main.scss"), wantErr: ErrMissingTerminator},
		{name: "nil input", input: nil, wantErr: ErrMissingTerminator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeAliasesInput(t *testing.T) {
	in := []byte("abc\x00")
	got, err := Decode(in)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	in[0] = 'x'
	if string(got) != "xbc" {
		t.Errorf("expected decoded bytes to alias the input, got %q", got)
	}
}

func TestEncode(t *testing.T) {
	got := Encode("out.css")
	if string(got) != "out.css\x00" {
		t.Errorf("Encode() = %q", got)
	}
	if len(Encode("")) != 1 {
		t.Errorf("Encode(\"\") should be a lone terminator")
	}
}

func TestTextCStringAliasesStorage(t *testing.T) {
	x := NewText("  ")
	a := x.CString()
	b := x.CString()
	if &a[0] != &b[0] {
		t.Error("CString should return a pointer into the value's storage")
	}
	if string(a) != "  \x00" {
		t.Errorf("CString() = %q", a)
	}
}

func TestEmptyValues(t *testing.T) {
	var p Path
	if !p.IsEmpty() {
		t.Error("zero Path should be empty")
	}
	if string(p.CString()) != "\x00" {
		t.Errorf("empty CString() = %q", p.CString())
	}
	if NewText("").Len() != 0 {
		t.Error("empty text should have zero length")
	}
}

func TestNewTruncatesAtZero(t *testing.T) {
	if got := NewPath("a\x00b").String(); got != "a" {
		t.Errorf("NewPath truncation = %q", got)
	}
	if got := NewText("x\x00y").String(); got != "x" {
		t.Errorf("NewText truncation = %q", got)
	}
}

func TestLosslessVersusDisplay(t *testing.T) {
	raw := []byte{'d', 'i', 'r', 0xff, '/', 'a', '.', 's', 'c', 's', 's', 0}
	p, err := DecodeText(raw)
	if err != nil {
		t.Fatalf("DecodeText() error: %v", err)
	}
	if p.String() != string(raw[:len(raw)-1]) {
		t.Errorf("String() must preserve the exact bytes")
	}
	if got, want := p.Display(), "dir�/a.scss"; got != want {
		t.Errorf("Display() = %q, want %q", got, want)
	}
}

func TestPathAppend(t *testing.T) {
	if got := NewPath("out.css").Append(".map").String(); got != "out.css.map" {
		t.Errorf("Append() = %q", got)
	}
}

func TestEqual(t *testing.T) {
	if !NewPath("a").Equal(NewPath("a")) || NewPath("a").Equal(NewPath("b")) {
		t.Error("Path.Equal mismatch")
	}
	if !NewText("").Equal(Text{}) {
		t.Error("empty texts should be equal")
	}
}
