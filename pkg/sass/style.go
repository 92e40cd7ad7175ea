package sass

import (
	"fmt"
	"strings"
)

// OutputStyle selects how the engine lays out generated CSS. The numeric
// values are part of the boundary ABI.
type OutputStyle int

const (
	// StyleNested indents rules to reflect the source nesting.
	StyleNested OutputStyle = iota
	// StyleExpanded writes one declaration per line.
	StyleExpanded
	// StyleCompact writes one rule per line.
	StyleCompact
	// StyleCompressed removes all optional whitespace.
	StyleCompressed
	// StyleInspect is used internally when values are inspected.
	StyleInspect
	// StyleToSass is used internally when converting to indented syntax.
	StyleToSass
)

var outputStyleNames = [...]string{
	StyleNested:     "nested",
	StyleExpanded:   "expanded",
	StyleCompact:    "compact",
	StyleCompressed: "compressed",
	StyleInspect:    "inspect",
	StyleToSass:     "to_sass",
}

// String returns the lower-case style name.
func (s OutputStyle) String() string {
	if s < 0 || int(s) >= len(outputStyleNames) {
		return fmt.Sprintf("OutputStyle(%d)", int(s))
	}
	return outputStyleNames[s]
}

// Public reports whether callers may select the style. Inspect and ToSass are
// render modes the engine uses on its own.
func (s OutputStyle) Public() bool {
	return s >= StyleNested && s <= StyleCompressed
}

// Validate checks that s is a known style.
func (s OutputStyle) Validate() error {
	if s < StyleNested || s > StyleToSass {
		return fmt.Errorf("invalid output style: %d", int(s))
	}
	return nil
}

// PublicOutputStyles lists the caller-selectable styles in ABI order.
func PublicOutputStyles() []OutputStyle {
	return []OutputStyle{StyleNested, StyleExpanded, StyleCompact, StyleCompressed}
}

// ParseOutputStyle parses a caller-selectable style name, ignoring case.
func ParseOutputStyle(name string) (OutputStyle, error) {
	for _, s := range PublicOutputStyles() {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return StyleNested, fmt.Errorf("invalid output style %q (must be one of nested, expanded, compact, compressed)", name)
}

// InputStyle records which kind of context produced the compilation input.
type InputStyle int

const (
	// InputNull marks a bare context with no input attached.
	InputNull InputStyle = iota
	// InputFile reads the stylesheet from options.input_path.
	InputFile
	// InputData compiles an in-memory source string.
	InputData
	// InputFolder is reserved for directory compilation.
	InputFolder
)

// String returns the input style name.
func (s InputStyle) String() string {
	switch s {
	case InputNull:
		return "null"
	case InputFile:
		return "file"
	case InputData:
		return "data"
	case InputFolder:
		return "folder"
	default:
		return fmt.Sprintf("InputStyle(%d)", int(s))
	}
}

// CompilerState is the progress of a Compiler through its pipeline.
type CompilerState int

const (
	// StateCreated is the initial state.
	StateCreated CompilerState = iota
	// StateParsed means the input has been prepared for rendering.
	StateParsed
	// StateExecuted is terminal; output and source map are on the context.
	StateExecuted
)

// String returns the state name.
func (s CompilerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateParsed:
		return "parsed"
	case StateExecuted:
		return "executed"
	default:
		return fmt.Sprintf("CompilerState(%d)", int(s))
	}
}

// IsTerminal reports whether no further transition is possible.
func (s CompilerState) IsTerminal() bool {
	return s == StateExecuted
}
