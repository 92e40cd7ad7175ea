// Package passthrough provides the built-in engine: it copies the input
// stylesheet to the output unchanged and, when asked, emits an identity
// source map. It is the engine used by the command-line tool and the C
// library unless a WASI engine module is configured.
package passthrough

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sassafras/sassafras/pkg/sass"
)

// Engine is the passthrough engine. The zero value is ready to use.
type Engine struct {
	logger zerolog.Logger
}

// New creates a passthrough engine that logs through logger.
func New(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger.With().Str("engine", "passthrough").Logger()}
}

var _ sass.Engine = (*Engine)(nil)
var _ sass.Parser = (*Engine)(nil)

// Parse checks that a file input exists and is readable.
func (e *Engine) Parse(ctx context.Context, in *sass.Input) error {
	if in.Kind != sass.InputFile {
		return nil
	}
	f, err := os.Open(in.Path.String())
	if err != nil {
		return readError(in, err)
	}
	return f.Close()
}

// Render returns the source text as output.
func (e *Engine) Render(ctx context.Context, in *sass.Input) (*sass.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := source(in)
	if err != nil {
		return nil, err
	}

	res := &sass.Result{
		Output:        src,
		IncludedFiles: []string{in.Path.String()},
	}

	opts := in.Options
	if opts == nil || !opts.SourceMapRequested() {
		return res, nil
	}

	smap, err := buildSourceMap(in, src)
	if err != nil {
		return nil, &sass.EngineError{Message: fmt.Sprintf("failed to render source map: %v", err)}
	}
	res.SourceMap = smap
	if !opts.OmitSourceMapURL() {
		res.Output = appendMappingURL(res.Output, mappingURL(opts, smap))
	}

	e.logger.Debug().
		Str("input", in.Path.Display()).
		Int("output_bytes", len(res.Output)).
		Bool("source_map", true).
		Msg("rendered")
	return res, nil
}

func source(in *sass.Input) (string, error) {
	if in.Kind != sass.InputFile {
		return in.Source.String(), nil
	}
	data, err := os.ReadFile(in.Path.String())
	if err != nil {
		return "", readError(in, err)
	}
	return string(data), nil
}

func readError(in *sass.Input, err error) error {
	return &sass.EngineError{
		Message: fmt.Sprintf("File to read not found or unreadable: %s (%v)", in.Path.Display(), err),
		File:    in.Path.String(),
	}
}

// sourceMap is a revision 3 source map.
type sourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

func buildSourceMap(in *sass.Input, src string) (string, error) {
	opts := in.Options
	m := sourceMap{
		Version:    3,
		SourceRoot: opts.SourceMapRoot().String(),
		Sources:    []string{sourceName(in)},
		Names:      []string{},
		Mappings:   identityMappings(src),
	}
	if out := opts.OutputPath(); !out.IsEmpty() {
		m.File = filepath.ToSlash(filepath.Base(out.String()))
	}
	if opts.SourceMapContents() {
		m.SourcesContent = []string{src}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// sourceName is the input path as it should appear in "sources": a file URL,
// or a path relative to the map file's directory.
func sourceName(in *sass.Input) string {
	name := in.Path.String()
	opts := in.Options
	if in.Kind == sass.InputData && opts.InputPath().IsEmpty() {
		return name
	}
	if opts.SourceMapFileURLs() {
		if abs, err := filepath.Abs(name); err == nil {
			return "file://" + filepath.ToSlash(abs)
		}
	}
	if mapFile := opts.SourceMapFile(); !mapFile.IsEmpty() {
		if rel, err := filepath.Rel(filepath.Dir(mapFile.String()), name); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(name)
}

// identityMappings maps the start of every generated line to the start of
// the same source line.
func identityMappings(src string) string {
	lines := strings.Count(src, "\n") + 1
	var b strings.Builder
	b.WriteString("AAAA")
	for i := 1; i < lines; i++ {
		b.WriteString(";AACA")
	}
	return b.String()
}

func mappingURL(opts *sass.Options, smap string) string {
	if opts.SourceMapEmbed() {
		return "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(smap))
	}
	mapFile := opts.SourceMapFile().String()
	if out := opts.OutputPath(); !out.IsEmpty() {
		if rel, err := filepath.Rel(filepath.Dir(out.String()), mapFile); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Base(mapFile))
}

func appendMappingURL(output, url string) string {
	if output != "" && !strings.HasSuffix(output, "\n") {
		output += "\n"
	}
	return output + "/*# sourceMappingURL=" + url + " */"
}
