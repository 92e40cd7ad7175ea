package sass

import "github.com/sassafras/sassafras/pkg/cstr"

// StdinName names data sources that have no input path.
const StdinName = "stdin"

// DataContext compiles an in-memory stylesheet.
type DataContext struct {
	ctx Context

	// provided source string
	sourceString cstr.Text
	// provided input source map
	srcmapString cstr.Text
}

// NewDataContext creates a data context for source. It fails with a
// StatusInput error, and allocates nothing, when the source is empty.
func NewDataContext(source cstr.Text) (*DataContext, error) {
	if source.IsEmpty() {
		return nil, newInputError("make_data_context", "Data context created with empty source string")
	}
	return &DataContext{
		ctx:          newContext(InputData),
		sourceString: source,
	}, nil
}

// Context returns the embedded context.
func (d *DataContext) Context() *Context { return &d.ctx }

// Options returns the embedded options.
func (d *DataContext) Options() *Options { return &d.ctx.options }

// SetOptions replaces the embedded options with a copy of o.
func (d *DataContext) SetOptions(o *Options) { d.ctx.setOptions(o) }

// Source returns the stylesheet text.
func (d *DataContext) Source() cstr.Text { return d.sourceString }

// SrcmapString returns the input source map, if one was supplied.
func (d *DataContext) SrcmapString() cstr.Text { return d.srcmapString }

// SetSrcmapString supplies an input source map to chain onto.
func (d *DataContext) SetSrcmapString(t cstr.Text) { d.srcmapString = t }

// InputName returns the name used for the source in diagnostics: the input
// path if one is set, otherwise StdinName.
func (d *DataContext) InputName() cstr.Path {
	if p := d.ctx.options.InputPath(); !p.IsEmpty() {
		return p
	}
	return cstr.NewPath(StdinName)
}

func (d *DataContext) context() *Context { return &d.ctx }

func (d *DataContext) input() (*Input, error) {
	return &Input{
		Kind:      InputData,
		Path:      d.InputName(),
		Source:    d.sourceString,
		SourceMap: d.srcmapString,
		Options:   &d.ctx.options,
	}, nil
}
