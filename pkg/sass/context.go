package sass

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sassafras/sassafras/pkg/cstr"
)

// Context pairs an Options value with the output buffers and diagnostics of
// one compilation. It owns its Options by value.
type Context struct {
	options     Options
	contextType InputStyle

	// generated output data
	outputString    cstr.Text
	sourceMapString cstr.Text

	err contextError

	// files read while compiling, in the order the engine reported them
	includedFiles []cstr.Path
}

type contextError struct {
	status  Status
	json    cstr.Text
	text    cstr.Text
	message cstr.Text
	file    cstr.Path
	line    uint
	column  uint
	src     cstr.Text
}

func newContext(kind InputStyle) Context {
	c := Context{contextType: kind}
	c.options.init()
	return c
}

// Options returns the embedded Options. The pointer is valid for the
// lifetime of the context.
func (c *Context) Options() *Options { return &c.options }

// setOptions copies o into the context.
func (c *Context) setOptions(o *Options) {
	c.options = *o.Clone()
}

// Type returns the kind of input the context was created for.
func (c *Context) Type() InputStyle { return c.contextType }

// OutputString returns the compiled CSS.
func (c *Context) OutputString() cstr.Text { return c.outputString }

// SourceMapString returns the generated source map.
func (c *Context) SourceMapString() cstr.Text { return c.sourceMapString }

// ErrorStatus returns the status of the last failure, StatusOK when none.
func (c *Context) ErrorStatus() Status { return c.err.status }

// ErrorJSON returns the last failure as a JSON document.
func (c *Context) ErrorJSON() cstr.Text { return c.err.json }

// ErrorText returns the bare message of the last failure.
func (c *Context) ErrorText() cstr.Text { return c.err.text }

// ErrorMessage returns the formatted message of the last failure.
func (c *Context) ErrorMessage() cstr.Text { return c.err.message }

// ErrorFile returns the file the last failure occurred in.
func (c *Context) ErrorFile() cstr.Path { return c.err.file }

// ErrorSrc returns the source excerpt of the last failure.
func (c *Context) ErrorSrc() cstr.Text { return c.err.src }

// ErrorLine returns the 1-based line of the last failure, zero when unknown.
func (c *Context) ErrorLine() uint { return c.err.line }

// ErrorColumn returns the 1-based column of the last failure, zero when
// unknown.
func (c *Context) ErrorColumn() uint { return c.err.column }

// IncludedFilesSize returns the number of files the engine reported reading.
func (c *Context) IncludedFilesSize() int { return len(c.includedFiles) }

// IncludedFile returns the i-th included file.
func (c *Context) IncludedFile(i int) cstr.Path { return c.includedFiles[i] }

// TakeOutputString moves the output out of the context.
func (c *Context) TakeOutputString() cstr.Text {
	t := c.outputString
	c.outputString = cstr.Text{}
	return t
}

// TakeSourceMapString moves the source map out of the context.
func (c *Context) TakeSourceMapString() cstr.Text {
	t := c.sourceMapString
	c.sourceMapString = cstr.Text{}
	return t
}

// TakeErrorJSON moves the error JSON out of the context. The status is kept.
func (c *Context) TakeErrorJSON() cstr.Text {
	t := c.err.json
	c.err.json = cstr.Text{}
	return t
}

// TakeErrorText moves the raw error text out of the context.
func (c *Context) TakeErrorText() cstr.Text {
	t := c.err.text
	c.err.text = cstr.Text{}
	return t
}

// TakeErrorMessage moves the formatted error message out of the context.
func (c *Context) TakeErrorMessage() cstr.Text {
	t := c.err.message
	c.err.message = cstr.Text{}
	return t
}

// TakeErrorFile moves the error file out of the context.
func (c *Context) TakeErrorFile() cstr.Path {
	p := c.err.file
	c.err.file = cstr.Path{}
	return p
}

// TakeIncludedFiles moves the included file list out of the context.
func (c *Context) TakeIncludedFiles() []cstr.Path {
	files := c.includedFiles
	c.includedFiles = nil
	return files
}

// setResult stores a successful render.
func (c *Context) setResult(r *Result) {
	c.outputString = cstr.NewText(r.Output)
	c.sourceMapString = cstr.NewText(r.SourceMap)
	c.includedFiles = c.includedFiles[:0]
	for _, f := range r.IncludedFiles {
		c.includedFiles = append(c.includedFiles, cstr.NewPath(f))
	}
}

type errorJSON struct {
	Status    int    `json:"status"`
	File      string `json:"file,omitempty"`
	Line      uint   `json:"line,omitempty"`
	Column    uint   `json:"column,omitempty"`
	Message   string `json:"message"`
	Formatted string `json:"formatted"`
}

// setError records err on the context and returns the status stored.
// Errors without a status are recorded as StatusUnknown.
func (c *Context) setError(err error) Status {
	status := StatusOf(err)
	if status == StatusOK {
		status = StatusUnknown
	}

	text := err.Error()
	var (
		file         string
		line, column uint
		src          string
	)
	var ee *EngineError
	if errors.As(err, &ee) {
		text = ee.Message
		file = ee.File
		if ee.Line > 0 {
			line = uint(ee.Line)
		}
		if ee.Column > 0 {
			column = uint(ee.Column)
		}
		src = ee.Source
	} else {
		var se *Error
		if errors.As(err, &se) && se.Message != "" {
			text = se.Message
		}
	}

	formatted := formatError(text, file, line, column, src)
	payload, jerr := json.Marshal(errorJSON{
		Status:    int(status),
		File:      file,
		Line:      line,
		Column:    column,
		Message:   text,
		Formatted: formatted,
	})
	if jerr != nil {
		payload = []byte(fmt.Sprintf(`{"status":%d}`, int(status)))
	}

	c.err = contextError{
		status:  status,
		json:    cstr.NewText(string(payload)),
		text:    cstr.NewText(text),
		message: cstr.NewText(formatted),
		file:    cstr.NewPath(file),
		line:    line,
		column:  column,
		src:     cstr.NewText(src),
	}
	return status
}

// formatError renders the multi-line message shown to users, in the layout
// sassc prints on standard error.
func formatError(text, file string, line, column uint, src string) string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(text)
	b.WriteString("\n")
	if file != "" && line > 0 {
		fmt.Fprintf(&b, "        on line %d:%d of %s\n", line, column, file)
	}
	if src != "" {
		first, _, _ := strings.Cut(src, "\n")
		b.WriteString(">> ")
		b.WriteString(first)
		b.WriteString("\n")
	}
	return b.String()
}
