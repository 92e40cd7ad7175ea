package main

/*
#include <stddef.h>
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"unsafe"

	"github.com/sassafras/sassafras/pkg/capi"
)

func contextRef(h C.uintptr_t) capi.ContextRef {
	return lb().boundary.RawContext(uint64(h))
}

func fileContext(h C.uintptr_t) capi.FileContextHandle {
	return lb().boundary.RawFileContext(uint64(h))
}

func dataContext(h C.uintptr_t) capi.DataContextHandle {
	return lb().boundary.RawDataContext(uint64(h))
}

// contextString caches a string read from the context behind c.
func contextString(c capi.ContextRef, field string, b []byte) *C.char {
	return lb().strings.get(c.ID(), field, b)
}

//export sass_make_file_context
func sass_make_file_context(inputPath *C.char) C.uintptr_t {
	l := lb()
	h := l.boundary.MakeFileContext(goBytes(inputPath))
	l.setLastError()
	return raw(h.ID())
}

//export sass_make_data_context
func sass_make_data_context(source *C.char) C.uintptr_t {
	l := lb()
	h := l.boundary.MakeDataContext(goBytes(source))
	l.setLastError()
	return raw(h.ID())
}

//export sass_delete_file_context
func sass_delete_file_context(h C.uintptr_t) {
	lb().boundary.DeleteFileContext(fileContext(h))
}

//export sass_delete_data_context
func sass_delete_data_context(h C.uintptr_t) {
	lb().boundary.DeleteDataContext(dataContext(h))
}

//export sass_file_context_get_context
func sass_file_context_get_context(h C.uintptr_t) C.uintptr_t {
	return raw(lb().boundary.FileContextGetContext(fileContext(h)).ID())
}

//export sass_data_context_get_context
func sass_data_context_get_context(h C.uintptr_t) C.uintptr_t {
	return raw(lb().boundary.DataContextGetContext(dataContext(h)).ID())
}

//export sass_file_context_get_options
func sass_file_context_get_options(h C.uintptr_t) C.uintptr_t {
	return raw(lb().boundary.FileContextGetOptions(fileContext(h)).ID())
}

//export sass_data_context_get_options
func sass_data_context_get_options(h C.uintptr_t) C.uintptr_t {
	return raw(lb().boundary.DataContextGetOptions(dataContext(h)).ID())
}

//export sass_file_context_set_options
func sass_file_context_set_options(h, opts C.uintptr_t) {
	lb().boundary.FileContextSetOptions(fileContext(h), optionsHandle(opts))
}

//export sass_data_context_set_options
func sass_data_context_set_options(h, opts C.uintptr_t) {
	lb().boundary.DataContextSetOptions(dataContext(h), optionsHandle(opts))
}

//export sass_data_context_get_srcmap_string
func sass_data_context_get_srcmap_string(h C.uintptr_t) *C.char {
	dh := dataContext(h)
	return lb().strings.get(dh.ID(), "srcmap_string", lb().boundary.DataContextGetSrcmapString(dh))
}

//export sass_data_context_set_srcmap_string
func sass_data_context_set_srcmap_string(h C.uintptr_t, s *C.char) {
	lb().boundary.DataContextSetSrcmapString(dataContext(h), goBytes(s))
}

//export sass_compile_file_context
func sass_compile_file_context(h C.uintptr_t) C.int {
	return C.int(lb().boundary.CompileFileContext(context.Background(), fileContext(h)))
}

//export sass_compile_data_context
func sass_compile_data_context(h C.uintptr_t) C.int {
	return C.int(lb().boundary.CompileDataContext(context.Background(), dataContext(h)))
}

//export sass_context_get_options
func sass_context_get_options(h C.uintptr_t) C.uintptr_t {
	return raw(lb().boundary.ContextGetOptions(contextRef(h)).ID())
}

//export sass_context_get_output_string
func sass_context_get_output_string(h C.uintptr_t) *C.char {
	c := contextRef(h)
	return contextString(c, "output_string", lb().boundary.ContextGetOutputString(c))
}

//export sass_context_get_source_map_string
func sass_context_get_source_map_string(h C.uintptr_t) *C.char {
	c := contextRef(h)
	return contextString(c, "source_map_string", lb().boundary.ContextGetSourceMapString(c))
}

//export sass_context_get_error_status
func sass_context_get_error_status(h C.uintptr_t) C.int {
	return C.int(lb().boundary.ContextGetErrorStatus(contextRef(h)))
}

//export sass_context_get_error_json
func sass_context_get_error_json(h C.uintptr_t) *C.char {
	c := contextRef(h)
	return contextString(c, "error_json", lb().boundary.ContextGetErrorJSON(c))
}

//export sass_context_get_error_text
func sass_context_get_error_text(h C.uintptr_t) *C.char {
	c := contextRef(h)
	return contextString(c, "error_text", lb().boundary.ContextGetErrorText(c))
}

//export sass_context_get_error_message
func sass_context_get_error_message(h C.uintptr_t) *C.char {
	c := contextRef(h)
	return contextString(c, "error_message", lb().boundary.ContextGetErrorMessage(c))
}

//export sass_context_get_error_file
func sass_context_get_error_file(h C.uintptr_t) *C.char {
	c := contextRef(h)
	return contextString(c, "error_file", lb().boundary.ContextGetErrorFile(c))
}

//export sass_context_get_error_src
func sass_context_get_error_src(h C.uintptr_t) *C.char {
	c := contextRef(h)
	return contextString(c, "error_src", lb().boundary.ContextGetErrorSrc(c))
}

//export sass_context_get_error_line
func sass_context_get_error_line(h C.uintptr_t) C.size_t {
	return C.size_t(lb().boundary.ContextGetErrorLine(contextRef(h)))
}

//export sass_context_get_error_column
func sass_context_get_error_column(h C.uintptr_t) C.size_t {
	return C.size_t(lb().boundary.ContextGetErrorColumn(contextRef(h)))
}

//export sass_context_get_included_files_size
func sass_context_get_included_files_size(h C.uintptr_t) C.size_t {
	return C.size_t(lb().boundary.ContextGetIncludedFilesSize(contextRef(h)))
}

//export sass_context_get_included_file
func sass_context_get_included_file(h C.uintptr_t, i C.size_t) *C.char {
	c := contextRef(h)
	return contextString(c, listField("included_file", i), lb().boundary.ContextGetIncludedFile(c, int(i)))
}

//export sass_context_take_output_string
func sass_context_take_output_string(h C.uintptr_t) *C.char {
	return owned(lb().boundary.ContextTakeOutputString(contextRef(h)))
}

//export sass_context_take_source_map_string
func sass_context_take_source_map_string(h C.uintptr_t) *C.char {
	return owned(lb().boundary.ContextTakeSourceMapString(contextRef(h)))
}

//export sass_context_take_error_json
func sass_context_take_error_json(h C.uintptr_t) *C.char {
	return owned(lb().boundary.ContextTakeErrorJSON(contextRef(h)))
}

//export sass_context_take_error_text
func sass_context_take_error_text(h C.uintptr_t) *C.char {
	return owned(lb().boundary.ContextTakeErrorText(contextRef(h)))
}

//export sass_context_take_error_message
func sass_context_take_error_message(h C.uintptr_t) *C.char {
	return owned(lb().boundary.ContextTakeErrorMessage(contextRef(h)))
}

//export sass_context_take_error_file
func sass_context_take_error_file(h C.uintptr_t) *C.char {
	return owned(lb().boundary.ContextTakeErrorFile(contextRef(h)))
}

// sass_context_take_included_files returns a NULL-terminated array of
// paths. The array and every path are released with sass_free_memory.
//
//export sass_context_take_included_files
func sass_context_take_included_files(h C.uintptr_t) **C.char {
	files := lb().boundary.ContextTakeIncludedFiles(contextRef(h))
	size := C.size_t(unsafe.Sizeof((*C.char)(nil)))
	arr := (**C.char)(C.calloc(C.size_t(len(files)+1), size))
	slots := unsafe.Slice(arr, len(files)+1)
	for i, f := range files {
		slots[i] = owned(f)
	}
	return arr
}
