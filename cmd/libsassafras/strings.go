package main

/*
#include <stdbool.h>
#include <stdlib.h>
#include <string.h>
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/sassafras/sassafras/pkg/handle"
)

// stringCache keeps the C copies of strings returned by getters, grouped by
// the handle they were read through.
type stringCache struct {
	mu     sync.Mutex
	owners map[handle.ID]map[string]cached
	// retired copies were replaced without an invalidation and are freed
	// together with their owner.
	retired map[handle.ID][]*C.char
}

type cached struct {
	p *C.char
	v string
}

func newStringCache() *stringCache {
	return &stringCache{
		owners:  make(map[handle.ID]map[string]cached),
		retired: make(map[handle.ID][]*C.char),
	}
}

// get returns a C copy of the NUL-terminated b, read from field of id.
// Repeated reads of an unchanged value return the same pointer.
func (c *stringCache) get(id handle.ID, field string, b []byte) *C.char {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := c.owners[id]
	if fields == nil {
		fields = make(map[string]cached)
		c.owners[id] = fields
	}
	if e, ok := fields[field]; ok {
		if e.v == string(b) {
			return e.p
		}
		c.retired[id] = append(c.retired[id], e.p)
	}
	p := (*C.char)(C.CBytes(b))
	fields[field] = cached{p: p, v: string(b)}
	return p
}

// invalidate frees every copy read through id.
func (c *stringCache) invalidate(id handle.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.owners[id] {
		C.free(unsafe.Pointer(e.p))
	}
	for _, p := range c.retired[id] {
		C.free(unsafe.Pointer(p))
	}
	delete(c.owners, id)
	delete(c.retired, id)
}

// goBytes copies a C string into NUL-terminated boundary bytes. NULL reads
// as the empty string.
func goBytes(s *C.char) []byte {
	if s == nil {
		return []byte{0}
	}
	return C.GoBytes(unsafe.Pointer(s), C.int(C.strlen(s)+1))
}

// owned returns a C copy of the NUL-terminated b that the caller frees.
func owned(b []byte) *C.char {
	if len(b) == 0 {
		b = []byte{0}
	}
	return (*C.char)(C.CBytes(b))
}

// listField names the i-th element of a path list in the cache.
func listField(name string, i C.size_t) string {
	return fmt.Sprintf("%s[%d]", name, uint64(i))
}

func cbool(v bool) C.bool { return C.bool(v) }
