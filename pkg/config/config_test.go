package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sassafras/sassafras/pkg/sass"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func TestLoadFormats(t *testing.T) {
	want := &File{
		Style:            "compressed",
		Precision:        intPtr(8),
		LineComments:     boolPtr(true),
		LoadPaths:        []string{"vendor", "/abs/styles"},
		ImportExtensions: []string{".css"},
		SourceMap:        "auto",
		Log:              LogConfig{Level: "debug", Format: "json"},
		Trace:            TraceConfig{Exporter: "otlp", Endpoint: "localhost:4317"},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "sassafras.yaml",
			content: `
style: compressed
precision: 8
line_comments: true
load_paths: [vendor, /abs/styles]
import_extensions: [".css"]
source_map: auto
log:
  level: debug
  format: json
trace:
  exporter: otlp
  endpoint: localhost:4317
`,
		},
		{
			name: "cue",
			file: "sassafras.cue",
			content: `
style:             "compressed"
precision:         8
line_comments:     true
load_paths: ["vendor", "/abs/styles"]
import_extensions: [".css"]
source_map:        "auto"
log: {
	level:  "debug"
	format: "json"
}
trace: exporter: "otlp"
trace: endpoint: "localhost:4317"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(File{})); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	f, err := Load(writeConfig(t, "empty.yml", ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(&File{}, f, cmpopts.IgnoreUnexported(File{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantPath string
		wantLine int
	}{
		{name: "yaml unknown key", file: "c.yaml", content: "colour: red\n"},
		{name: "yaml bad type", file: "c.yaml", content: "precision: lots\n"},
		{name: "yaml style rule", file: "c.yaml", content: "style: fancy\n", wantPath: "style"},
		{name: "yaml precision range", file: "c.yaml", content: "precision: 300\n", wantPath: "precision"},
		{name: "yaml otlp endpoint", file: "c.yaml", content: "trace:\n  exporter: otlp\n", wantPath: "trace.endpoint"},
		{name: "yaml empty load path", file: "c.yaml", content: "load_paths: [\"\"]\n", wantPath: "load_paths[0]"},
		{name: "cue syntax", file: "c.cue", content: "style: \"nested\"\nprecision: ]\n", wantLine: 2},
		{name: "cue style enum", file: "c.cue", content: "precision: 5\nstyle: \"fancy\"\n", wantLine: 2},
		{name: "cue unknown field", file: "c.cue", content: "colour: \"red\"\n", wantLine: 1},
		{name: "cue otlp endpoint", file: "c.cue", content: "trace: exporter: \"otlp\"\n", wantPath: "trace.endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := Load(path)
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("Load() error = %v, want *Error", err)
			}
			if len(cerr.Errors) == 0 {
				t.Fatal("expected at least one validation error")
			}
			if cerr.Source != path {
				t.Errorf("Source = %q, want %q", cerr.Source, path)
			}
			first := cerr.Errors[0]
			if tt.wantPath != "" && first.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", first.Path, tt.wantPath)
			}
			if tt.wantLine != 0 && first.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d (%s)", first.Line, tt.wantLine, first)
			}
			if !strings.Contains(err.Error(), "invalid configuration") {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestLoadUnsupported(t *testing.T) {
	if _, err := Load(writeConfig(t, "c.toml", "style = 'nested'")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApply(t *testing.T) {
	path := writeConfig(t, "sassafras.yaml", `
style: compact
precision: 3
line_comments: true
indented: true
indent: "\t"
linefeed: "\r\n"
load_paths: [vendor, /abs]
plugin_paths: [plugins]
import_extensions: [".css"]
omit_map_comment: true
source_map_contents: true
source_map_root: /root
engine: engine.wasm
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	o := sass.NewOptions()
	if err := f.Apply(o); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	dir := filepath.Dir(path)
	got := map[string]any{
		"style":     o.OutputStyle().String(),
		"precision": o.Precision(),
		"comments":  o.SourceComments(),
		"indented":  o.IsIndentedSyntaxSrc(),
		"indent":    o.Indent().String(),
		"linefeed":  o.Linefeed().String(),
		"include":   o.IncludePaths().Strings(),
		"plugin":    o.PluginPaths().Strings(),
		"ext":       o.Extensions().Strings(),
		"omit":      o.OmitSourceMapURL(),
		"contents":  o.SourceMapContents(),
		"root":      o.SourceMapRoot().String(),
		"engine":    f.Path(f.Engine),
	}
	want := map[string]any{
		"style":     "compact",
		"precision": uint8(3),
		"comments":  true,
		"indented":  true,
		"indent":    "\t",
		"linefeed":  "\r\n",
		"include":   []string{filepath.Join(dir, "vendor"), "/abs"},
		"plugin":    []string{filepath.Join(dir, "plugins")},
		"ext":       []string{".css"},
		"omit":      true,
		"contents":  true,
		"root":      "/root",
		"engine":    filepath.Join(dir, "engine.wasm"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyLeavesUnsetFields(t *testing.T) {
	o := sass.NewOptions()
	o.SetPrecision(9)
	o.SetOutputStyle(sass.StyleExpanded)

	f := &File{Indent: strPtr("    ")}
	if err := f.Apply(o); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if o.Precision() != 9 || o.OutputStyle() != sass.StyleExpanded {
		t.Errorf("unset fields changed: precision=%d style=%s", o.Precision(), o.OutputStyle())
	}
	if o.Indent().String() != "    " {
		t.Errorf("Indent() = %q", o.Indent().String())
	}
}
