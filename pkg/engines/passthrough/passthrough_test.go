package passthrough

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/sassafras/sassafras/pkg/cstr"
	"github.com/sassafras/sassafras/pkg/sass"
)

func TestRenderDataEcho(t *testing.T) {
	dc, err := sass.NewDataContext(cstr.NewText("a {\n  b: c;\n}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if status := sass.CompileData(context.Background(), dc, New(zerolog.Nop())); status != sass.StatusOK {
		t.Fatalf("CompileData() = %v: %s", status, dc.Context().ErrorMessage())
	}
	cx := dc.Context()
	if got := cx.OutputString().String(); got != "a {\n  b: c;\n}\n" {
		t.Errorf("OutputString() = %q", got)
	}
	if !cx.SourceMapString().IsEmpty() {
		t.Errorf("SourceMapString() = %q, want empty", cx.SourceMapString())
	}
	if cx.IncludedFilesSize() != 1 || cx.IncludedFile(0).String() != sass.StdinName {
		t.Errorf("included files = %d", cx.IncludedFilesSize())
	}
}

func TestRenderFileWithMapFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.scss")
	if err := os.WriteFile(in, []byte("a{}\nb{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	fc, err := sass.NewFileContext(cstr.NewPath(in))
	if err != nil {
		t.Fatal(err)
	}
	opts := fc.Options()
	opts.SetOutputPath(cstr.NewPath(filepath.Join(dir, "out.css")))
	opts.SetSourceMapFile(cstr.NewPath(filepath.Join(dir, "out.css.map")))
	opts.SetSourceMapContents(true)

	if status := sass.CompileFile(context.Background(), fc, &Engine{}); status != sass.StatusOK {
		t.Fatalf("CompileFile() = %v: %s", status, fc.Context().ErrorMessage())
	}

	cx := fc.Context()
	wantOut := "a{}\nb{}\n/*# sourceMappingURL=out.css.map */"
	if got := cx.OutputString().String(); got != wantOut {
		t.Errorf("OutputString() = %q, want %q", got, wantOut)
	}

	var m sourceMap
	if err := json.Unmarshal(cx.SourceMapString().Bytes(), &m); err != nil {
		t.Fatalf("source map is not JSON: %v", err)
	}
	want := sourceMap{
		Version:        3,
		File:           "out.css",
		Sources:        []string{"in.scss"},
		SourcesContent: []string{"a{}\nb{}"},
		Names:          []string{},
		Mappings:       "AAAA;AACA",
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("source map mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderEmbedded(t *testing.T) {
	dc, err := sass.NewDataContext(cstr.NewText("a{}"))
	if err != nil {
		t.Fatal(err)
	}
	dc.Options().SetSourceMapEmbed(true)

	if status := sass.CompileData(context.Background(), dc, &Engine{}); status != sass.StatusOK {
		t.Fatalf("CompileData() = %v", status)
	}
	out := dc.Context().OutputString().String()
	const prefix = "a{}\n/*# sourceMappingURL=data:application/json;base64,"
	if !strings.HasPrefix(out, prefix) || !strings.HasSuffix(out, " */") {
		t.Fatalf("OutputString() = %q", out)
	}
	encoded := strings.TrimSuffix(strings.TrimPrefix(out, prefix), " */")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("data URI is not base64: %v", err)
	}
	if string(decoded) != dc.Context().SourceMapString().String() {
		t.Error("embedded map differs from SourceMapString()")
	}
}

func TestRenderOmitMapURL(t *testing.T) {
	dc, err := sass.NewDataContext(cstr.NewText("a{}"))
	if err != nil {
		t.Fatal(err)
	}
	dc.Options().SetSourceMapFile(cstr.NewPath("out.css.map"))
	dc.Options().SetOmitSourceMapURL(true)

	if status := sass.CompileData(context.Background(), dc, &Engine{}); status != sass.StatusOK {
		t.Fatalf("CompileData() = %v", status)
	}
	if got := dc.Context().OutputString().String(); got != "a{}" {
		t.Errorf("OutputString() = %q, want a{}", got)
	}
	if dc.Context().SourceMapString().IsEmpty() {
		t.Error("map should still be rendered")
	}
}

func TestMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.scss")
	fc, err := sass.NewFileContext(cstr.NewPath(missing))
	if err != nil {
		t.Fatal(err)
	}
	status := sass.CompileFile(context.Background(), fc, &Engine{})
	if status != sass.StatusEngine {
		t.Fatalf("CompileFile() = %v, want engine", status)
	}
	if got := fc.Context().ErrorFile().String(); got != missing {
		t.Errorf("ErrorFile() = %q, want %q", got, missing)
	}
	if !strings.Contains(fc.Context().ErrorMessage().String(), "File to read not found or unreadable") {
		t.Errorf("ErrorMessage() = %q", fc.Context().ErrorMessage())
	}
}

func TestIdentityMappings(t *testing.T) {
	tests := map[string]string{
		"":        "AAAA",
		"a":       "AAAA",
		"a\nb":    "AAAA;AACA",
		"a\nb\nc": "AAAA;AACA;AACA",
	}
	for src, want := range tests {
		if got := identityMappings(src); got != want {
			t.Errorf("identityMappings(%q) = %q, want %q", src, got, want)
		}
	}
}
