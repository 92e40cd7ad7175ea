package sass

import "github.com/sassafras/sassafras/pkg/cstr"

// FileContext compiles the stylesheet found at options.input_path.
type FileContext struct {
	ctx Context
}

// NewFileContext creates a file context for inputPath. It fails with a
// StatusInput error, and allocates nothing, when the path is empty.
func NewFileContext(inputPath cstr.Path) (*FileContext, error) {
	if inputPath.IsEmpty() {
		return nil, newInputError("make_file_context", "File context created with empty input path")
	}
	fc := &FileContext{ctx: newContext(InputFile)}
	fc.ctx.options.SetInputPath(inputPath)
	return fc, nil
}

// Context returns the embedded context.
func (f *FileContext) Context() *Context { return &f.ctx }

// Options returns the embedded options.
func (f *FileContext) Options() *Options { return &f.ctx.options }

// SetOptions replaces the embedded options with a copy of o. Note that o's
// input path replaces the one given at construction.
func (f *FileContext) SetOptions(o *Options) { f.ctx.setOptions(o) }

func (f *FileContext) context() *Context { return &f.ctx }

func (f *FileContext) input() (*Input, error) {
	path := f.ctx.options.InputPath()
	if path.IsEmpty() {
		return nil, newInputError("parse", "File context has no input path")
	}
	return &Input{
		Kind:    InputFile,
		Path:    path,
		Options: &f.ctx.options,
	}, nil
}
