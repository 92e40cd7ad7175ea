package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// CUEParser parses CUE configuration files.
type CUEParser struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewCUEParser creates a new CUE parser.
func NewCUEParser() *CUEParser {
	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema, cue.Filename("config.schema.cue"))
	return &CUEParser{
		ctx:    ctx,
		schema: schema.LookupPath(cue.ParsePath("#Config")),
	}
}

// Parse compiles content, checks it against the configuration schema and
// decodes it. name is used in error positions.
func (cp *CUEParser) Parse(name string, content []byte) (*File, error) {
	if err := cp.schema.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile configuration schema: %w", err)
	}

	val := cp.ctx.CompileBytes(content, cue.Filename(name))
	if err := val.Err(); err != nil {
		return nil, &Error{Source: name, Errors: convertCUEErrors(name, err)}
	}

	unified := cp.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &Error{Source: name, Errors: convertCUEErrors(name, err)}
	}

	var f File
	if err := unified.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return &f, nil
}

// convertCUEErrors converts CUE errors to ValidationError slice. Only
// positions inside file are reported.
func convertCUEErrors(file string, err error) []ValidationError {
	var validationErrors []ValidationError

	for _, e := range errors.Errors(err) {
		var line, column int

		for _, p := range errors.Positions(e) {
			if p.Filename() == file {
				line = p.Line()
				column = p.Column()
				break
			}
		}

		validationErrors = append(validationErrors, ValidationError{
			File:    file,
			Line:    line,
			Column:  column,
			Path:    strings.Join(e.Path(), "."),
			Message: errors.Details(e, nil),
		})
	}

	return validationErrors
}
