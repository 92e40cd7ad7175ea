package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sassafras/sassafras/pkg/cstr"
	"github.com/sassafras/sassafras/pkg/sass"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads a configuration file. The format is chosen by extension:
// .yaml and .yml files are YAML, .cue files are CUE.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err = ParseYAML(path, content)
	case ".cue":
		f, err = NewCUEParser().Parse(path, content)
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .cue)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		f.dir = abs
	}
	if err := f.Validate(path); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseYAML decodes a YAML configuration. Unknown keys are an error.
func ParseYAML(name string, content []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			verrs := make([]ValidationError, len(te.Errors))
			for i, msg := range te.Errors {
				verrs[i] = ValidationError{File: name, Message: msg}
			}
			return nil, &Error{Source: name, Errors: verrs}
		}
		return nil, &Error{Source: name, Errors: []ValidationError{{File: name, Message: err.Error()}}}
	}
	return &f, nil
}

// Validate checks field constraints. source names the file in errors.
func (f *File) Validate(source string) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		msg := fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		}
		out = append(out, ValidationError{File: source, Path: path, Message: msg})
	}
	return &Error{Source: source, Errors: out}
}

// Apply copies the settings present in f onto o.
func (f *File) Apply(o *sass.Options) error {
	if f.Style != "" {
		style, err := sass.ParseOutputStyle(f.Style)
		if err != nil {
			return err
		}
		o.SetOutputStyle(style)
	}
	if f.Precision != nil {
		if *f.Precision < 0 || *f.Precision > 255 {
			return fmt.Errorf("precision %d out of range", *f.Precision)
		}
		o.SetPrecision(uint8(*f.Precision))
	}
	if f.LineComments != nil {
		o.SetSourceComments(*f.LineComments)
	}
	if f.Indented != nil {
		o.SetIsIndentedSyntaxSrc(*f.Indented)
	}
	if f.Indent != nil {
		o.SetIndent(cstr.NewText(*f.Indent))
	}
	if f.Linefeed != nil {
		o.SetLinefeed(cstr.NewText(*f.Linefeed))
	}
	for _, p := range f.LoadPaths {
		o.PushIncludePath(cstr.NewPath(f.resolve(p)))
	}
	for _, p := range f.PluginPaths {
		o.PushPluginPath(cstr.NewPath(f.resolve(p)))
	}
	for _, ext := range f.ImportExtensions {
		o.PushImportExtension(cstr.NewPath(ext))
	}
	if f.OmitMapComment != nil {
		o.SetOmitSourceMapURL(*f.OmitMapComment)
	}
	if f.SourceMapContents != nil {
		o.SetSourceMapContents(*f.SourceMapContents)
	}
	if f.SourceMapRoot != "" {
		o.SetSourceMapRoot(cstr.NewText(f.SourceMapRoot))
	}
	return nil
}

// Path resolves p against the configuration file's directory.
func (f *File) Path(p string) string { return f.resolve(p) }

func (f *File) resolve(p string) string {
	if p == "" || f.dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.dir, p)
}
