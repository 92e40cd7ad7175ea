package config

import (
	"fmt"
	"strings"
)

// File holds compile defaults read from a configuration file. A field left
// unset keeps the option's built-in default, and flags given on the command
// line override whatever the file says.
type File struct {
	// Style is the output style.
	Style string `json:"style,omitempty" yaml:"style" validate:"omitempty,oneof=nested expanded compact compressed"`

	// Precision is the number of fractional digits kept in numbers.
	Precision *int `json:"precision,omitempty" yaml:"precision" validate:"omitempty,min=0,max=255"`

	// LineComments emits source line comments.
	LineComments *bool `json:"line_comments,omitempty" yaml:"line_comments"`

	// Indented treats input as the indented syntax.
	Indented *bool `json:"indented,omitempty" yaml:"indented"`

	// Indent and Linefeed override the output whitespace.
	Indent   *string `json:"indent,omitempty" yaml:"indent"`
	Linefeed *string `json:"linefeed,omitempty" yaml:"linefeed"`

	// LoadPaths are searched for imports, in order. Relative entries are
	// relative to the configuration file.
	LoadPaths []string `json:"load_paths,omitempty" yaml:"load_paths" validate:"dive,required"`

	// PluginPaths are searched for plugins, in order.
	PluginPaths []string `json:"plugin_paths,omitempty" yaml:"plugin_paths" validate:"dive,required"`

	// ImportExtensions are extra file extensions tried on import.
	ImportExtensions []string `json:"import_extensions,omitempty" yaml:"import_extensions" validate:"dive,required,excludesall=/\\"`

	// SourceMap is the source map mode: no, auto or inline.
	SourceMap string `json:"source_map,omitempty" yaml:"source_map" validate:"omitempty,oneof=no auto inline"`

	// OmitMapComment suppresses the sourceMappingURL comment.
	OmitMapComment *bool `json:"omit_map_comment,omitempty" yaml:"omit_map_comment"`

	// SourceMapContents embeds sources in the map.
	SourceMapContents *bool `json:"source_map_contents,omitempty" yaml:"source_map_contents"`

	// SourceMapRoot is written as the map's sourceRoot.
	SourceMapRoot string `json:"source_map_root,omitempty" yaml:"source_map_root"`

	// Engine is a WASI engine module to compile with.
	Engine string `json:"engine,omitempty" yaml:"engine"`

	// Cache is the compile cache database.
	Cache string `json:"cache,omitempty" yaml:"cache"`

	// Log configures logging.
	Log LogConfig `json:"log,omitempty" yaml:"log"`

	// Trace configures tracing.
	Trace TraceConfig `json:"trace,omitempty" yaml:"trace"`

	// dir is the directory of the file the values were read from.
	dir string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `json:"format,omitempty" yaml:"format" validate:"omitempty,oneof=console json"`
}

// TraceConfig holds trace export settings.
type TraceConfig struct {
	Exporter string `json:"exporter,omitempty" yaml:"exporter" validate:"omitempty,oneof=none stdout otlp"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint" validate:"required_if=Exporter otlp"`
}

// ValidationError represents a validation error with location information.
type ValidationError struct {
	// File is the source file path.
	File string `json:"file,omitempty"`

	// Line is the line number (1-indexed).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-indexed).
	Column int `json:"column,omitempty"`

	// Path is the path to the offending field (e.g., "log.level").
	Path string `json:"path,omitempty"`

	// Message is the error message.
	Message string `json:"message"`
}

func (v ValidationError) String() string {
	var b strings.Builder
	if v.File != "" {
		b.WriteString(v.File)
		if v.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", v.Line, v.Column)
		}
		b.WriteString(": ")
	}
	if v.Path != "" {
		b.WriteString(v.Path)
		b.WriteString(": ")
	}
	b.WriteString(v.Message)
	return b.String()
}

// Error is returned when a configuration file fails to parse or validate.
type Error struct {
	Source string
	Errors []ValidationError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("invalid configuration %s: %s", e.Source, strings.Join(msgs, "; "))
}
