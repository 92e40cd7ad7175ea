package main

/*
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
*/
import "C"

import (
	"context"
	"unsafe"

	"github.com/sassafras/sassafras/pkg/capi"
)

func compilerHandle(h C.uintptr_t) capi.CompilerHandle {
	return lb().boundary.RawCompiler(uint64(h))
}

//export sass_make_file_compiler
func sass_make_file_compiler(h C.uintptr_t) C.uintptr_t {
	l := lb()
	c := l.boundary.MakeFileCompiler(fileContext(h))
	l.setLastError()
	return raw(c.ID())
}

//export sass_make_data_compiler
func sass_make_data_compiler(h C.uintptr_t) C.uintptr_t {
	l := lb()
	c := l.boundary.MakeDataCompiler(dataContext(h))
	l.setLastError()
	return raw(c.ID())
}

//export sass_compiler_parse
func sass_compiler_parse(h C.uintptr_t) C.int {
	return C.int(lb().boundary.CompilerParse(context.Background(), compilerHandle(h)))
}

//export sass_compiler_execute
func sass_compiler_execute(h C.uintptr_t) C.int {
	return C.int(lb().boundary.CompilerExecute(context.Background(), compilerHandle(h)))
}

//export sass_compiler_get_state
func sass_compiler_get_state(h C.uintptr_t) C.int {
	return C.int(lb().boundary.CompilerGetState(compilerHandle(h)))
}

//export sass_compiler_get_context
func sass_compiler_get_context(h C.uintptr_t) C.uintptr_t {
	return raw(lb().boundary.CompilerGetContext(compilerHandle(h)).ID())
}

//export sass_compiler_get_options
func sass_compiler_get_options(h C.uintptr_t) C.uintptr_t {
	return raw(lb().boundary.CompilerGetOptions(compilerHandle(h)).ID())
}

//export sass_delete_compiler
func sass_delete_compiler(h C.uintptr_t) {
	lb().boundary.DeleteCompiler(compilerHandle(h))
}

//export libsass_version
func libsass_version() *C.char {
	return lb().version
}

//export libsass_language_version
func libsass_language_version() *C.char {
	return lb().languageVersion
}

// sassafras_last_error returns the message of the last failed make call, or
// NULL. It stays valid until the next make call.
//
//export sassafras_last_error
func sassafras_last_error() *C.char {
	l := lb()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

//export sass_alloc_memory
func sass_alloc_memory(size C.size_t) unsafe.Pointer {
	return C.malloc(size)
}

//export sass_copy_c_string
func sass_copy_c_string(s *C.char) *C.char {
	if s == nil {
		return nil
	}
	return C.strdup(s)
}

//export sass_free_memory
func sass_free_memory(p unsafe.Pointer) {
	C.free(p)
}
