package sass

import (
	"context"

	"github.com/sassafras/sassafras/pkg/cstr"
)

// Input is the view of a context handed to an Engine.
type Input struct {
	// Kind is InputFile or InputData.
	Kind InputStyle

	// Path is the file to compile for InputFile. For InputData it only names
	// the source in diagnostics and source maps.
	Path cstr.Path

	// Source is the stylesheet text for InputData.
	Source cstr.Text

	// SourceMap is an input source map supplied with InputData, if any.
	SourceMap cstr.Text

	// Options is the configuration of the compiling context. Engines must
	// not modify it.
	Options *Options
}

// Result is the output of a successful render.
type Result struct {
	// Output is the generated CSS.
	Output string

	// SourceMap is the source map JSON, empty when none was requested.
	SourceMap string

	// IncludedFiles lists every file read, entry point first.
	IncludedFiles []string
}

// Engine is the external compilation engine: render(context) -> (output,
// source map) | error. Stylesheet problems should be returned as
// *EngineError so that positions reach the context.
type Engine interface {
	Render(ctx context.Context, in *Input) (*Result, error)
}

// Parser is implemented by engines that split compilation into a parse step
// and a render step. Compiler.Parse calls it when present.
type Parser interface {
	Parse(ctx context.Context, in *Input) error
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, in *Input) (*Result, error)

// Render calls f.
func (f EngineFunc) Render(ctx context.Context, in *Input) (*Result, error) {
	return f(ctx, in)
}
