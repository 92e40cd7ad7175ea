//go:build cgo

package main

import (
	"testing"

	"github.com/sassafras/sassafras/pkg/handle"
)

func TestStringCacheReusesUnchangedValues(t *testing.T) {
	c := newStringCache()
	id := handle.ID(42)

	first := c.get(id, "indent", []byte("  \x00"))
	if again := c.get(id, "indent", []byte("  \x00")); again != first {
		t.Error("unchanged value returned a new copy")
	}
	if other := c.get(id, "linefeed", []byte("\n\x00")); other == first {
		t.Error("different fields share a copy")
	}

	changed := c.get(id, "indent", []byte("\t\x00"))
	if changed == first {
		t.Error("changed value returned the old copy")
	}
	if got := len(c.retired[id]); got != 1 {
		t.Errorf("retired copies = %d, want 1", got)
	}

	c.invalidate(id)
	if _, ok := c.owners[id]; ok {
		t.Error("owner still cached after invalidate")
	}
	if _, ok := c.retired[id]; ok {
		t.Error("retired copies kept after invalidate")
	}

	// Invalidating an unknown handle is harmless.
	c.invalidate(handle.ID(7))
}

func TestGoBytesNil(t *testing.T) {
	if got := goBytes(nil); len(got) != 1 || got[0] != 0 {
		t.Errorf("goBytes(nil) = %q, want a lone terminator", got)
	}
}

func TestListField(t *testing.T) {
	if got := listField("include_path", 3); got != "include_path[3]" {
		t.Errorf("listField() = %q", got)
	}
}
