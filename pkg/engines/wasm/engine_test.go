package wasm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/sassafras/sassafras/pkg/cstr"
	"github.com/sassafras/sassafras/pkg/sass"
)

// wasiCommand assembles a WASI command module whose _start writes msg to fd
// and then calls proc_exit(code) when code is nonzero.
func wasiCommand(fd int32, msg string, code int32) []byte {
	var body []byte
	body = append(body, 0x00) // no locals
	// iovec{buf: 8, len: len(msg)} at address 0
	body = append(body, i32Const(0)...)
	body = append(body, i32Const(8)...)
	body = append(body, 0x36, 0x02, 0x00) // i32.store
	body = append(body, i32Const(4)...)
	body = append(body, i32Const(int32(len(msg)))...)
	body = append(body, 0x36, 0x02, 0x00)
	// fd_write(fd, iovs=0, iovs_len=1, nwritten=100)
	body = append(body, i32Const(fd)...)
	body = append(body, i32Const(0)...)
	body = append(body, i32Const(1)...)
	body = append(body, i32Const(100)...)
	body = append(body, 0x10, 0x00, 0x1a) // call 0; drop
	if code != 0 {
		body = append(body, i32Const(code)...)
		body = append(body, 0x10, 0x01) // call proc_exit
	}
	body = append(body, 0x0b)

	const wasi = "wasi_snapshot_preview1"
	mod := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	mod = append(mod, section(1, vec(
		[]byte{0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f},
		[]byte{0x60, 0x01, 0x7f, 0x00},
		[]byte{0x60, 0x00, 0x00},
	))...)
	mod = append(mod, section(2, vec(
		concat(name(wasi), name("fd_write"), []byte{0x00, 0x00}),
		concat(name(wasi), name("proc_exit"), []byte{0x00, 0x01}),
	))...)
	mod = append(mod, section(3, vec([]byte{0x02}))...)
	mod = append(mod, section(5, vec([]byte{0x00, 0x01}))...)
	mod = append(mod, section(7, vec(
		concat(name("memory"), []byte{0x02, 0x00}),
		concat(name("_start"), []byte{0x00, 0x02}),
	))...)
	mod = append(mod, section(10, vec(concat(uleb(uint32(len(body))), body)))...)
	mod = append(mod, section(11, vec(
		concat([]byte{0x00}, i32Const(8), []byte{0x0b}, name(msg)),
	))...)
	return mod
}

func i32Const(v int32) []byte { return append([]byte{0x41}, sleb(v)...) }
func name(s string) []byte    { return append(uleb(uint32(len(s))), s...) }

func section(id byte, payload []byte) []byte {
	return concat([]byte{id}, uleb(uint32(len(payload))), payload)
}

func vec(items ...[]byte) []byte {
	return concat(append([][]byte{uleb(uint32(len(items)))}, items...)...)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func newEngine(t *testing.T, module []byte) *Engine {
	t.Helper()
	ctx := context.Background()
	e, err := New(ctx, module, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close(ctx) })
	return e
}

func dataInput(src string) *sass.Input {
	return &sass.Input{
		Kind:    sass.InputData,
		Path:    cstr.NewPath(sass.StdinName),
		Source:  cstr.NewText(src),
		Options: sass.NewOptions(),
	}
}

func TestRenderStdout(t *testing.T) {
	e := newEngine(t, wasiCommand(1, "a {\n  b: c; }\n", 0))

	res, err := e.Render(context.Background(), dataInput("a { b: c }"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := &sass.Result{Output: "a {\n  b: c; }\n", IncludedFiles: []string{sass.StdinName}}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}

	// The compiled module is reused across renders.
	if _, err := e.Render(context.Background(), dataInput("x")); err != nil {
		t.Fatalf("second Render() error = %v", err)
	}
}

func TestRenderExitError(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		code   int32
		want   *sass.EngineError
	}{
		{
			name:   "positioned",
			stderr: "stdin:2:5: Invalid CSS after \"a\"\n  a {\n    ^\n",
			code:   65,
			want: &sass.EngineError{
				Message: "Invalid CSS after \"a\"",
				File:    "stdin",
				Line:    2,
				Column:  5,
				Source:  "  a {\n    ^",
			},
		},
		{
			name:   "plain message",
			stderr: "Undefined variable\n",
			code:   1,
			want:   &sass.EngineError{Message: "Undefined variable"},
		},
		{
			name: "silent",
			code: 3,
			want: &sass.EngineError{Message: "engine module exited with code 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, wasiCommand(2, tt.stderr, tt.code))
			_, err := e.Render(context.Background(), dataInput("a {"))
			var ee *sass.EngineError
			if !errors.As(err, &ee) {
				t.Fatalf("Render() error = %v, want *sass.EngineError", err)
			}
			if diff := cmp.Diff(tt.want, ee); diff != "" {
				t.Errorf("error mismatch (-want +got):\n%s", diff)
			}
			if sass.StatusOf(err) != sass.StatusEngine {
				t.Errorf("StatusOf() = %v, want %v", sass.StatusOf(err), sass.StatusEngine)
			}
		})
	}
}

func TestRenderThroughCompiler(t *testing.T) {
	e := newEngine(t, wasiCommand(1, "b{}", 0))
	dc, err := sass.NewDataContext(cstr.NewText("b {}"))
	if err != nil {
		t.Fatal(err)
	}
	if status := sass.CompileData(context.Background(), dc, e); status != sass.StatusOK {
		t.Fatalf("CompileData() = %v: %s", status, dc.Context().ErrorMessage())
	}
	if got := dc.Context().OutputString().String(); got != "b{}" {
		t.Errorf("OutputString() = %q, want %q", got, "b{}")
	}
}

func TestRenderMissingFile(t *testing.T) {
	e := newEngine(t, wasiCommand(1, "", 0))
	in := &sass.Input{Kind: sass.InputFile, Path: cstr.NewPath("/does/not/exist.scss"), Options: sass.NewOptions()}
	if _, err := e.Render(context.Background(), in); sass.StatusOf(err) != sass.StatusEngine {
		t.Errorf("Render() error = %v, want engine status", err)
	}
}

func TestNewRejectsInvalidModule(t *testing.T) {
	if _, err := New(context.Background(), []byte("not wasm"), nil, zerolog.Nop()); err == nil {
		t.Error("New() error = nil, want error for invalid module")
	}
}

func TestArgs(t *testing.T) {
	opts := sass.NewOptions()
	opts.SetOutputStyle(sass.StyleCompact)
	opts.SetPrecision(6)
	opts.SetSourceComments(true)
	opts.PushImportExtension(cstr.NewPath(".css"))
	opts.SetSourceMapFile(cstr.NewPath("out.css.map"))
	opts.SetSourceMapEmbed(true)
	opts.SetOmitSourceMapURL(true)

	in := &sass.Input{Kind: sass.InputData, Path: cstr.NewPath(sass.StdinName), Options: opts}
	want := []string{
		"sass",
		"--style=compact",
		"--precision=6",
		"--stdin-name=stdin",
		"--indent=  ",
		"--linefeed=\n",
		"--import-extension=.css",
		"--line-comments",
		"--source-map=/.sassafras/map.json",
		"--source-map-url=out.css.map",
		"--embed-source-map",
		"--omit-map-comment",
	}
	if diff := cmp.Diff(want, Args("sass", in)); diff != "" {
		t.Errorf("Args() mismatch (-want +got):\n%s", diff)
	}
}
