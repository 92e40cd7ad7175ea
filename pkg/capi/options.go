package capi

import (
	"errors"
	"fmt"

	"github.com/sassafras/sassafras/pkg/cstr"
	"github.com/sassafras/sassafras/pkg/handle"
	"github.com/sassafras/sassafras/pkg/sass"
)

// MakeOptions creates a standalone Options with default values.
func (b *Boundary) MakeOptions() OwnedOptions {
	h := b.options.Make(sass.NewOptions())
	b.setLastError(nil)
	b.made("options", h.ID())
	return h
}

// DeleteOptions releases an Options made by MakeOptions. Deleting the null
// handle does nothing.
func (b *Boundary) DeleteOptions(h OwnedOptions) {
	if h.IsNull() {
		return
	}
	b.options.Delete(h)
	b.deleted("options", h.ID())
}

func (b *Boundary) opts(h OptionsHandle) *sass.Options {
	return handle.Resolve(b.options, b.optionLoans, h)
}

// mutated is called after every setter so that cached foreign strings of h
// can be refreshed.
func (b *Boundary) mutated(h OptionsHandle) {
	b.fire(h.ID())
}

// Scalar options.

// OptionGetPrecision returns the number of fractional digits in emitted
// numbers.
func (b *Boundary) OptionGetPrecision(h OptionsHandle) uint8 {
	return b.opts(h).Precision()
}

// OptionSetPrecision sets the number of fractional digits in emitted numbers.
func (b *Boundary) OptionSetPrecision(h OptionsHandle, v uint8) {
	b.opts(h).SetPrecision(v)
	b.mutated(h)
}

// OptionGetOutputStyle returns the output style.
func (b *Boundary) OptionGetOutputStyle(h OptionsHandle) sass.OutputStyle {
	return b.opts(h).OutputStyle()
}

// OptionSetOutputStyle sets the output style. Only the public styles can be
// selected through the boundary; any other value leaves the options
// unchanged and returns an input error.
func (b *Boundary) OptionSetOutputStyle(h OptionsHandle, style sass.OutputStyle) error {
	o := b.opts(h)
	if !style.Public() {
		err := &sass.Error{
			Status:  sass.StatusInput,
			Op:      "option_set_output_style",
			Message: fmt.Sprintf("output style %s is not selectable", style),
		}
		b.logger.Warn().Err(err).Str("handle", h.ID().String()).Msg("rejected output style")
		return err
	}
	o.SetOutputStyle(style)
	b.mutated(h)
	return nil
}

// OptionGetSourceComments reports whether line comments are emitted.
func (b *Boundary) OptionGetSourceComments(h OptionsHandle) bool {
	return b.opts(h).SourceComments()
}

// OptionSetSourceComments sets whether line comments are emitted.
func (b *Boundary) OptionSetSourceComments(h OptionsHandle, v bool) {
	b.opts(h).SetSourceComments(v)
	b.mutated(h)
}

// OptionGetOmitSourceMapURL reports whether the sourceMappingURL comment is
// left out.
func (b *Boundary) OptionGetOmitSourceMapURL(h OptionsHandle) bool {
	return b.opts(h).OmitSourceMapURL()
}

// OptionSetOmitSourceMapURL sets whether the sourceMappingURL comment is left
// out.
func (b *Boundary) OptionSetOmitSourceMapURL(h OptionsHandle, v bool) {
	b.opts(h).SetOmitSourceMapURL(v)
	b.mutated(h)
}

// OptionGetIsIndentedSyntaxSrc reports whether data input is read as indented
// syntax.
func (b *Boundary) OptionGetIsIndentedSyntaxSrc(h OptionsHandle) bool {
	return b.opts(h).IsIndentedSyntaxSrc()
}

// OptionSetIsIndentedSyntaxSrc sets whether data input is read as indented
// syntax.
func (b *Boundary) OptionSetIsIndentedSyntaxSrc(h OptionsHandle, v bool) {
	b.opts(h).SetIsIndentedSyntaxSrc(v)
	b.mutated(h)
}

// OptionGetSourceMapEmbed reports whether the source map is embedded in the
// CSS.
func (b *Boundary) OptionGetSourceMapEmbed(h OptionsHandle) bool {
	return b.opts(h).SourceMapEmbed()
}

// OptionSetSourceMapEmbed sets whether the source map is embedded in the CSS.
func (b *Boundary) OptionSetSourceMapEmbed(h OptionsHandle, v bool) {
	b.opts(h).SetSourceMapEmbed(v)
	b.mutated(h)
}

// OptionGetSourceMapContents reports whether sources are included in the source
// map.
func (b *Boundary) OptionGetSourceMapContents(h OptionsHandle) bool {
	return b.opts(h).SourceMapContents()
}

// OptionSetSourceMapContents sets whether sources are included in the source
// map.
func (b *Boundary) OptionSetSourceMapContents(h OptionsHandle, v bool) {
	b.opts(h).SetSourceMapContents(v)
	b.mutated(h)
}

// OptionGetSourceMapFileURLs reports whether the source map refers to files by
// file:// URL.
func (b *Boundary) OptionGetSourceMapFileURLs(h OptionsHandle) bool {
	return b.opts(h).SourceMapFileURLs()
}

// OptionSetSourceMapFileURLs sets whether the source map refers to files by
// file:// URL.
func (b *Boundary) OptionSetSourceMapFileURLs(h OptionsHandle, v bool) {
	b.opts(h).SetSourceMapFileURLs(v)
	b.mutated(h)
}

// String options. Getters return the NUL-terminated value aliasing the
// options' storage; it stays valid until the options are mutated or
// deleted. Setters take NUL-terminated bytes and panic with
// cstr.ErrMissingTerminator when the terminator is absent.

// OptionGetIndent returns the indentation string.
func (b *Boundary) OptionGetIndent(h OptionsHandle) []byte {
	return b.opts(h).Indent().CString()
}

// OptionSetIndent sets the indentation string.
func (b *Boundary) OptionSetIndent(h OptionsHandle, s []byte) {
	b.opts(h).SetIndent(mustText(s))
	b.mutated(h)
}

// OptionGetLinefeed returns the line break string.
func (b *Boundary) OptionGetLinefeed(h OptionsHandle) []byte {
	return b.opts(h).Linefeed().CString()
}

// OptionSetLinefeed sets the line break string.
func (b *Boundary) OptionSetLinefeed(h OptionsHandle, s []byte) {
	b.opts(h).SetLinefeed(mustText(s))
	b.mutated(h)
}

// OptionGetInputPath returns the input path.
func (b *Boundary) OptionGetInputPath(h OptionsHandle) []byte {
	return b.opts(h).InputPath().CString()
}

// OptionSetInputPath sets the input path.
func (b *Boundary) OptionSetInputPath(h OptionsHandle, s []byte) {
	b.opts(h).SetInputPath(mustPath(s))
	b.mutated(h)
}

// OptionGetOutputPath returns the output path.
func (b *Boundary) OptionGetOutputPath(h OptionsHandle) []byte {
	return b.opts(h).OutputPath().CString()
}

// OptionSetOutputPath sets the output path.
func (b *Boundary) OptionSetOutputPath(h OptionsHandle, s []byte) {
	b.opts(h).SetOutputPath(mustPath(s))
	b.mutated(h)
}

// OptionGetSourceMapFile returns the source map path.
func (b *Boundary) OptionGetSourceMapFile(h OptionsHandle) []byte {
	return b.opts(h).SourceMapFile().CString()
}

// OptionSetSourceMapFile sets the source map path.
func (b *Boundary) OptionSetSourceMapFile(h OptionsHandle, s []byte) {
	b.opts(h).SetSourceMapFile(mustPath(s))
	b.mutated(h)
}

// OptionGetSourceMapRoot returns the source map root.
func (b *Boundary) OptionGetSourceMapRoot(h OptionsHandle) []byte {
	return b.opts(h).SourceMapRoot().CString()
}

// OptionSetSourceMapRoot sets the source map root.
func (b *Boundary) OptionSetSourceMapRoot(h OptionsHandle, s []byte) {
	b.opts(h).SetSourceMapRoot(mustText(s))
	b.mutated(h)
}

// Ordered path sets.

// OptionPushImportExtension appends ext unless it is already present.
func (b *Boundary) OptionPushImportExtension(h OptionsHandle, ext []byte) {
	b.opts(h).PushImportExtension(mustPath(ext))
	b.mutated(h)
}

// OptionPushIncludePath appends path unless it is already present.
func (b *Boundary) OptionPushIncludePath(h OptionsHandle, path []byte) {
	b.opts(h).PushIncludePath(mustPath(path))
	b.mutated(h)
}

// OptionPushPluginPath appends path unless it is already present. Plugin
// paths are stored only.
func (b *Boundary) OptionPushPluginPath(h OptionsHandle, path []byte) {
	b.opts(h).PushPluginPath(mustPath(path))
	b.mutated(h)
}

// OptionSetIncludePath pushes every element of a path list separated by the
// platform list separator.
func (b *Boundary) OptionSetIncludePath(h OptionsHandle, list []byte) {
	b.opts(h).SetIncludePath(mustText(list).String())
	b.mutated(h)
}

// OptionSetPluginPath pushes every element of a plugin path list.
func (b *Boundary) OptionSetPluginPath(h OptionsHandle, list []byte) {
	b.opts(h).SetPluginPath(mustText(list).String())
	b.mutated(h)
}

// OptionGetIncludePathSize returns the number of include paths.
func (b *Boundary) OptionGetIncludePathSize(h OptionsHandle) int {
	return b.opts(h).IncludePaths().Len()
}

// OptionGetExtensionSize returns the number of import extensions.
func (b *Boundary) OptionGetExtensionSize(h OptionsHandle) int {
	return b.opts(h).Extensions().Len()
}

// OptionGetPluginPathSize returns the number of plugin paths.
func (b *Boundary) OptionGetPluginPathSize(h OptionsHandle) int {
	return b.opts(h).PluginPaths().Len()
}

// OptionGetIncludePath returns the i-th include path. An index out of range
// is a contract violation and panics.
func (b *Boundary) OptionGetIncludePath(h OptionsHandle, i int) []byte {
	return b.opts(h).IncludePaths().At(i).CString()
}

// OptionGetExtension returns the i-th import extension.
func (b *Boundary) OptionGetExtension(h OptionsHandle, i int) []byte {
	return b.opts(h).Extensions().At(i).CString()
}

// OptionGetPluginPath returns the i-th plugin path.
func (b *Boundary) OptionGetPluginPath(h OptionsHandle, i int) []byte {
	return b.opts(h).PluginPaths().At(i).CString()
}

// FindFile resolves path against the working directory and include paths
// of h. The result is a detached copy; empty means not found.
func (b *Boundary) FindFile(path []byte, h OptionsHandle) []byte {
	return detach(sass.FindFile(mustPath(path), b.opts(h)).CString())
}

// FindInclude resolves path the way an import is resolved.
func (b *Boundary) FindInclude(path []byte, h OptionsHandle) []byte {
	return detach(sass.FindInclude(mustPath(path), b.opts(h)).CString())
}

func mustText(b []byte) cstr.Text {
	t, err := cstr.DecodeText(b)
	if err != nil {
		panic(err)
	}
	return t
}

func mustPath(b []byte) cstr.Path {
	p, err := cstr.DecodePath(b)
	if err != nil {
		panic(err)
	}
	return p
}

// inputPathOf decodes the input path of a new context. A path that cannot be
// converted to the platform form is an input error; a missing terminator is
// still a contract violation.
func inputPathOf(op string, b []byte) (cstr.Path, error) {
	p, err := cstr.DecodePath(b)
	if errors.Is(err, cstr.ErrMissingTerminator) {
		panic(err)
	}
	if err != nil {
		return cstr.Path{}, &sass.Error{Status: sass.StatusInput, Op: op, Message: err.Error(), Err: err}
	}
	return p, nil
}

func detach(b []byte) []byte {
	return append([]byte(nil), b...)
}
