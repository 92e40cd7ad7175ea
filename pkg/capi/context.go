package capi

import (
	"github.com/sassafras/sassafras/pkg/handle"
	"github.com/sassafras/sassafras/pkg/sass"
)

// MakeFileContext creates a file context for the NUL-terminated inputPath.
// An empty path, or one with no platform form, returns the null handle and
// sets LastError; nothing is allocated.
func (b *Boundary) MakeFileContext(inputPath []byte) FileContextHandle {
	var fc *sass.FileContext
	p, err := inputPathOf("make_file_context", inputPath)
	if err == nil {
		fc, err = sass.NewFileContext(p)
	}
	if err != nil {
		b.setLastError(err)
		b.logger.Debug().Err(err).Msg("make file context failed")
		return FileContextHandle{}
	}
	h := b.fileCtxs.Make(fc)
	b.setLastError(nil)
	b.made("file_context", h.ID())
	return h
}

// MakeDataContext creates a data context for the NUL-terminated source. An
// empty source returns the null handle and sets LastError.
func (b *Boundary) MakeDataContext(source []byte) DataContextHandle {
	dc, err := sass.NewDataContext(mustText(source))
	if err != nil {
		b.setLastError(err)
		b.logger.Debug().Err(err).Msg("make data context failed")
		return DataContextHandle{}
	}
	h := b.dataCtxs.Make(dc)
	b.setLastError(nil)
	b.made("data_context", h.ID())
	return h
}

// FileContextGetContext borrows the Context embedded in h.
func (b *Boundary) FileContextGetContext(h FileContextHandle) ContextRef {
	fc := b.fileCtxs.Get(h)
	return b.contexts.Lend(h.ID(), fc.Context())
}

// DataContextGetContext borrows the Context embedded in h.
func (b *Boundary) DataContextGetContext(h DataContextHandle) ContextRef {
	dc := b.dataCtxs.Get(h)
	return b.contexts.Lend(h.ID(), dc.Context())
}

// FileContextGetOptions borrows the Options embedded in h. The handle is
// revoked when the options are replaced or the context is deleted.
func (b *Boundary) FileContextGetOptions(h FileContextHandle) BorrowedOptions {
	fc := b.fileCtxs.Get(h)
	return b.optionLoans.Lend(h.ID(), fc.Options())
}

// DataContextGetOptions borrows the Options embedded in h.
func (b *Boundary) DataContextGetOptions(h DataContextHandle) BorrowedOptions {
	dc := b.dataCtxs.Get(h)
	return b.optionLoans.Lend(h.ID(), dc.Options())
}

// FileContextSetOptions copies opts into h. Borrowed handles to the previous
// options of h are revoked.
func (b *Boundary) FileContextSetOptions(h FileContextHandle, opts OptionsHandle) {
	fc := b.fileCtxs.Get(h)
	fc.SetOptions(b.opts(opts))
	b.revokeOptions(h.ID())
}

// DataContextSetOptions copies opts into h.
func (b *Boundary) DataContextSetOptions(h DataContextHandle, opts OptionsHandle) {
	dc := b.dataCtxs.Get(h)
	dc.SetOptions(b.opts(opts))
	b.revokeOptions(h.ID())
}

// DataContextGetSrcmapString returns the input source map of h.
func (b *Boundary) DataContextGetSrcmapString(h DataContextHandle) []byte {
	return b.dataCtxs.Get(h).SrcmapString().CString()
}

// DataContextSetSrcmapString supplies an input source map for h.
func (b *Boundary) DataContextSetSrcmapString(h DataContextHandle, s []byte) {
	b.dataCtxs.Get(h).SetSrcmapString(mustText(s))
	b.fire(h.ID())
}

// DeleteFileContext releases h together with its embedded context and
// options. Deleting the null handle does nothing.
func (b *Boundary) DeleteFileContext(h FileContextHandle) {
	if h.IsNull() {
		return
	}
	b.fileCtxs.Delete(h)
	b.releaseContext(h.ID())
	b.deleted("file_context", h.ID())
}

// DeleteDataContext releases h together with its embedded context and
// options.
func (b *Boundary) DeleteDataContext(h DataContextHandle) {
	if h.IsNull() {
		return
	}
	b.dataCtxs.Delete(h)
	b.releaseContext(h.ID())
	b.deleted("data_context", h.ID())
}

// releaseContext revokes every loan made for the context owned by owner.
// Compilers still referring to the context fail on their next use.
func (b *Boundary) releaseContext(owner handle.ID) {
	b.revokeOptions(owner)
	if id, ok := b.contexts.Revoke(owner); ok {
		b.fire(id)
	}
}

func (b *Boundary) ctx(c ContextRef) *sass.Context {
	return b.contexts.Get(c)
}

// ContextGetOptions borrows the Options of the context behind c.
func (b *Boundary) ContextGetOptions(c ContextRef) BorrowedOptions {
	cx := b.ctx(c)
	return b.optionLoans.Lend(b.contexts.Owner(c), cx.Options())
}

// Context getters. String results alias the context's storage and stay valid
// until the context is compiled again or deleted.

// ContextGetOutputString returns the compiled CSS.
func (b *Boundary) ContextGetOutputString(c ContextRef) []byte {
	return b.ctx(c).OutputString().CString()
}

// ContextGetSourceMapString returns the generated source map.
func (b *Boundary) ContextGetSourceMapString(c ContextRef) []byte {
	return b.ctx(c).SourceMapString().CString()
}

// ContextGetErrorStatus returns the status of the last failure, zero when none.
func (b *Boundary) ContextGetErrorStatus(c ContextRef) int {
	return int(b.ctx(c).ErrorStatus())
}

// ContextGetErrorJSON returns the last failure as a JSON document.
func (b *Boundary) ContextGetErrorJSON(c ContextRef) []byte {
	return b.ctx(c).ErrorJSON().CString()
}

// ContextGetErrorText returns the bare message of the last failure.
func (b *Boundary) ContextGetErrorText(c ContextRef) []byte {
	return b.ctx(c).ErrorText().CString()
}

// ContextGetErrorMessage returns the formatted message of the last failure.
func (b *Boundary) ContextGetErrorMessage(c ContextRef) []byte {
	return b.ctx(c).ErrorMessage().CString()
}

// ContextGetErrorFile returns the file the last failure occurred in.
func (b *Boundary) ContextGetErrorFile(c ContextRef) []byte {
	return b.ctx(c).ErrorFile().CString()
}

// ContextGetErrorSrc returns the source excerpt of the last failure.
func (b *Boundary) ContextGetErrorSrc(c ContextRef) []byte {
	return b.ctx(c).ErrorSrc().CString()
}

// ContextGetErrorLine returns the 1-based line of the last failure, zero
// when unknown.
func (b *Boundary) ContextGetErrorLine(c ContextRef) uint {
	return b.ctx(c).ErrorLine()
}

// ContextGetErrorColumn returns the 1-based column of the last failure,
// zero when unknown.
func (b *Boundary) ContextGetErrorColumn(c ContextRef) uint {
	return b.ctx(c).ErrorColumn()
}

// ContextGetIncludedFilesSize returns the number of included files.
func (b *Boundary) ContextGetIncludedFilesSize(c ContextRef) int {
	return b.ctx(c).IncludedFilesSize()
}

// ContextGetIncludedFile returns the i-th included file. An index out of
// range panics.
func (b *Boundary) ContextGetIncludedFile(c ContextRef, i int) []byte {
	return b.ctx(c).IncludedFile(i).CString()
}

// Take operations move a value out of the context. The result is a detached
// copy owned by the caller and the field is left empty.

// ContextTakeOutputString moves the compiled CSS out of the context.
func (b *Boundary) ContextTakeOutputString(c ContextRef) []byte {
	v := detach(b.ctx(c).TakeOutputString().CString())
	b.fire(c.ID())
	return v
}

// ContextTakeSourceMapString moves the source map out of the context.
func (b *Boundary) ContextTakeSourceMapString(c ContextRef) []byte {
	v := detach(b.ctx(c).TakeSourceMapString().CString())
	b.fire(c.ID())
	return v
}

// ContextTakeErrorJSON moves the JSON error document out of the context.
func (b *Boundary) ContextTakeErrorJSON(c ContextRef) []byte {
	v := detach(b.ctx(c).TakeErrorJSON().CString())
	b.fire(c.ID())
	return v
}

// ContextTakeErrorText moves the bare error message out of the context.
func (b *Boundary) ContextTakeErrorText(c ContextRef) []byte {
	v := detach(b.ctx(c).TakeErrorText().CString())
	b.fire(c.ID())
	return v
}

// ContextTakeErrorMessage moves the formatted error message out of the context.
func (b *Boundary) ContextTakeErrorMessage(c ContextRef) []byte {
	v := detach(b.ctx(c).TakeErrorMessage().CString())
	b.fire(c.ID())
	return v
}

// ContextTakeErrorFile moves the error file out of the context.
func (b *Boundary) ContextTakeErrorFile(c ContextRef) []byte {
	v := detach(b.ctx(c).TakeErrorFile().CString())
	b.fire(c.ID())
	return v
}

// ContextTakeIncludedFiles moves the included file list out of the context.
func (b *Boundary) ContextTakeIncludedFiles(c ContextRef) [][]byte {
	files := b.ctx(c).TakeIncludedFiles()
	out := make([][]byte, len(files))
	for i, f := range files {
		out[i] = detach(f.CString())
	}
	b.fire(c.ID())
	return out
}
