package main

/*
#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"fmt"
	"math"

	"github.com/sassafras/sassafras/pkg/capi"
	"github.com/sassafras/sassafras/pkg/handle"
	"github.com/sassafras/sassafras/pkg/sass"
)

func optionsHandle(h C.uintptr_t) capi.OptionsHandle {
	return lb().boundary.RawOptions(uint64(h))
}

func raw(id handle.ID) C.uintptr_t { return C.uintptr_t(id) }

// optionString caches a string read from the options behind h.
func optionString(h capi.OptionsHandle, field string, b []byte) *C.char {
	return lb().strings.get(h.ID(), field, b)
}

//export sass_make_options
func sass_make_options() C.uintptr_t {
	l := lb()
	h := l.boundary.MakeOptions()
	l.setLastError()
	return raw(h.ID())
}

//export sass_delete_options
func sass_delete_options(h C.uintptr_t) {
	b := lb().boundary
	b.DeleteOptions(b.RawOwnedOptions(uint64(h)))
}

//export sass_option_get_precision
func sass_option_get_precision(h C.uintptr_t) C.int {
	return C.int(lb().boundary.OptionGetPrecision(optionsHandle(h)))
}

//export sass_option_set_precision
func sass_option_set_precision(h C.uintptr_t, precision C.int) {
	l := lb()
	p, err := precisionValue(int(precision))
	if err != nil {
		l.logger.Warn().Err(err).Int("precision", int(precision)).Msg("precision ignored")
		return
	}
	l.boundary.OptionSetPrecision(optionsHandle(h), p)
}

// precisionValue narrows a C precision, rejecting values that do not fit.
func precisionValue(p int) (uint8, error) {
	if p < 0 || p > math.MaxUint8 {
		return 0, fmt.Errorf("precision %d out of range [0, %d]", p, math.MaxUint8)
	}
	return uint8(p), nil
}

//export sass_option_get_output_style
func sass_option_get_output_style(h C.uintptr_t) C.int {
	return C.int(lb().boundary.OptionGetOutputStyle(optionsHandle(h)))
}

//export sass_option_set_output_style
func sass_option_set_output_style(h C.uintptr_t, style C.int) {
	l := lb()
	if err := l.boundary.OptionSetOutputStyle(optionsHandle(h), sass.OutputStyle(style)); err != nil {
		l.logger.Warn().Err(err).Int("style", int(style)).Msg("output style ignored")
	}
}

//export sass_option_get_source_comments
func sass_option_get_source_comments(h C.uintptr_t) C.bool {
	return cbool(lb().boundary.OptionGetSourceComments(optionsHandle(h)))
}

//export sass_option_set_source_comments
func sass_option_set_source_comments(h C.uintptr_t, v C.bool) {
	lb().boundary.OptionSetSourceComments(optionsHandle(h), bool(v))
}

//export sass_option_get_source_map_embed
func sass_option_get_source_map_embed(h C.uintptr_t) C.bool {
	return cbool(lb().boundary.OptionGetSourceMapEmbed(optionsHandle(h)))
}

//export sass_option_set_source_map_embed
func sass_option_set_source_map_embed(h C.uintptr_t, v C.bool) {
	lb().boundary.OptionSetSourceMapEmbed(optionsHandle(h), bool(v))
}

//export sass_option_get_source_map_contents
func sass_option_get_source_map_contents(h C.uintptr_t) C.bool {
	return cbool(lb().boundary.OptionGetSourceMapContents(optionsHandle(h)))
}

//export sass_option_set_source_map_contents
func sass_option_set_source_map_contents(h C.uintptr_t, v C.bool) {
	lb().boundary.OptionSetSourceMapContents(optionsHandle(h), bool(v))
}

//export sass_option_get_source_map_file_urls
func sass_option_get_source_map_file_urls(h C.uintptr_t) C.bool {
	return cbool(lb().boundary.OptionGetSourceMapFileURLs(optionsHandle(h)))
}

//export sass_option_set_source_map_file_urls
func sass_option_set_source_map_file_urls(h C.uintptr_t, v C.bool) {
	lb().boundary.OptionSetSourceMapFileURLs(optionsHandle(h), bool(v))
}

//export sass_option_get_omit_source_map_url
func sass_option_get_omit_source_map_url(h C.uintptr_t) C.bool {
	return cbool(lb().boundary.OptionGetOmitSourceMapURL(optionsHandle(h)))
}

//export sass_option_set_omit_source_map_url
func sass_option_set_omit_source_map_url(h C.uintptr_t, v C.bool) {
	lb().boundary.OptionSetOmitSourceMapURL(optionsHandle(h), bool(v))
}

//export sass_option_get_is_indented_syntax_src
func sass_option_get_is_indented_syntax_src(h C.uintptr_t) C.bool {
	return cbool(lb().boundary.OptionGetIsIndentedSyntaxSrc(optionsHandle(h)))
}

//export sass_option_set_is_indented_syntax_src
func sass_option_set_is_indented_syntax_src(h C.uintptr_t, v C.bool) {
	lb().boundary.OptionSetIsIndentedSyntaxSrc(optionsHandle(h), bool(v))
}

//export sass_option_get_indent
func sass_option_get_indent(h C.uintptr_t) *C.char {
	oh := optionsHandle(h)
	return optionString(oh, "indent", lb().boundary.OptionGetIndent(oh))
}

//export sass_option_set_indent
func sass_option_set_indent(h C.uintptr_t, s *C.char) {
	lb().boundary.OptionSetIndent(optionsHandle(h), goBytes(s))
}

//export sass_option_get_linefeed
func sass_option_get_linefeed(h C.uintptr_t) *C.char {
	oh := optionsHandle(h)
	return optionString(oh, "linefeed", lb().boundary.OptionGetLinefeed(oh))
}

//export sass_option_set_linefeed
func sass_option_set_linefeed(h C.uintptr_t, s *C.char) {
	lb().boundary.OptionSetLinefeed(optionsHandle(h), goBytes(s))
}

//export sass_option_get_input_path
func sass_option_get_input_path(h C.uintptr_t) *C.char {
	oh := optionsHandle(h)
	return optionString(oh, "input_path", lb().boundary.OptionGetInputPath(oh))
}

//export sass_option_set_input_path
func sass_option_set_input_path(h C.uintptr_t, s *C.char) {
	lb().boundary.OptionSetInputPath(optionsHandle(h), goBytes(s))
}

//export sass_option_get_output_path
func sass_option_get_output_path(h C.uintptr_t) *C.char {
	oh := optionsHandle(h)
	return optionString(oh, "output_path", lb().boundary.OptionGetOutputPath(oh))
}

//export sass_option_set_output_path
func sass_option_set_output_path(h C.uintptr_t, s *C.char) {
	lb().boundary.OptionSetOutputPath(optionsHandle(h), goBytes(s))
}

//export sass_option_get_source_map_file
func sass_option_get_source_map_file(h C.uintptr_t) *C.char {
	oh := optionsHandle(h)
	return optionString(oh, "source_map_file", lb().boundary.OptionGetSourceMapFile(oh))
}

//export sass_option_set_source_map_file
func sass_option_set_source_map_file(h C.uintptr_t, s *C.char) {
	lb().boundary.OptionSetSourceMapFile(optionsHandle(h), goBytes(s))
}

//export sass_option_get_source_map_root
func sass_option_get_source_map_root(h C.uintptr_t) *C.char {
	oh := optionsHandle(h)
	return optionString(oh, "source_map_root", lb().boundary.OptionGetSourceMapRoot(oh))
}

//export sass_option_set_source_map_root
func sass_option_set_source_map_root(h C.uintptr_t, s *C.char) {
	lb().boundary.OptionSetSourceMapRoot(optionsHandle(h), goBytes(s))
}

//export sass_option_push_import_extension
func sass_option_push_import_extension(h C.uintptr_t, ext *C.char) {
	lb().boundary.OptionPushImportExtension(optionsHandle(h), goBytes(ext))
}

//export sass_option_push_include_path
func sass_option_push_include_path(h C.uintptr_t, path *C.char) {
	lb().boundary.OptionPushIncludePath(optionsHandle(h), goBytes(path))
}

//export sass_option_push_plugin_path
func sass_option_push_plugin_path(h C.uintptr_t, path *C.char) {
	lb().boundary.OptionPushPluginPath(optionsHandle(h), goBytes(path))
}

//export sass_option_set_include_path
func sass_option_set_include_path(h C.uintptr_t, list *C.char) {
	lb().boundary.OptionSetIncludePath(optionsHandle(h), goBytes(list))
}

//export sass_option_set_plugin_path
func sass_option_set_plugin_path(h C.uintptr_t, list *C.char) {
	lb().boundary.OptionSetPluginPath(optionsHandle(h), goBytes(list))
}

//export sass_option_get_include_path_size
func sass_option_get_include_path_size(h C.uintptr_t) C.size_t {
	return C.size_t(lb().boundary.OptionGetIncludePathSize(optionsHandle(h)))
}

//export sass_option_get_include_path
func sass_option_get_include_path(h C.uintptr_t, i C.size_t) *C.char {
	oh := optionsHandle(h)
	return optionString(oh, listField("include_path", i), lb().boundary.OptionGetIncludePath(oh, int(i)))
}

//export sass_option_get_plugin_path_size
func sass_option_get_plugin_path_size(h C.uintptr_t) C.size_t {
	return C.size_t(lb().boundary.OptionGetPluginPathSize(optionsHandle(h)))
}

//export sass_option_get_plugin_path
func sass_option_get_plugin_path(h C.uintptr_t, i C.size_t) *C.char {
	oh := optionsHandle(h)
	return optionString(oh, listField("plugin_path", i), lb().boundary.OptionGetPluginPath(oh, int(i)))
}

//export sass_option_get_extension_size
func sass_option_get_extension_size(h C.uintptr_t) C.size_t {
	return C.size_t(lb().boundary.OptionGetExtensionSize(optionsHandle(h)))
}

//export sass_option_get_extension
func sass_option_get_extension(h C.uintptr_t, i C.size_t) *C.char {
	oh := optionsHandle(h)
	return optionString(oh, listField("extension", i), lb().boundary.OptionGetExtension(oh, int(i)))
}

//export sass_find_file
func sass_find_file(path *C.char, h C.uintptr_t) *C.char {
	return owned(lb().boundary.FindFile(goBytes(path), optionsHandle(h)))
}

//export sass_find_include
func sass_find_include(path *C.char, h C.uintptr_t) *C.char {
	return owned(lb().boundary.FindInclude(goBytes(path), optionsHandle(h)))
}
