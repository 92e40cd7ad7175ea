package wasm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/sassafras/sassafras/pkg/sass"
)

// outDir is where the scratch directory for source maps is mounted.
const outDir = "/.sassafras"

// Config contains configuration for the WASM engine.
type Config struct {
	// Timeout bounds a single render. Default is 30 seconds.
	Timeout time.Duration

	// MemoryLimitPages is the maximum memory limit in pages (64KB each).
	// Default is 512 pages (32MB).
	MemoryLimitPages uint32

	// Program is argv[0] as seen by the module.
	Program string
}

// Engine renders through a compiled WASI module.
type Engine struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	cfg      Config
	logger   zerolog.Logger
}

var _ sass.Engine = (*Engine)(nil)

// Load reads a module from disk and compiles it.
func Load(ctx context.Context, file string, cfg *Config, logger zerolog.Logger) (*Engine, error) {
	code, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine module: %w", err)
	}
	return New(ctx, code, cfg, logger)
}

// New compiles module and returns an engine running it.
func New(ctx context.Context, module []byte, cfg *Config, logger zerolog.Logger) (*Engine, error) {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MemoryLimitPages == 0 {
		c.MemoryLimitPages = 512
	}
	if c.Program == "" {
		c.Program = "sass"
	}

	runtimeConfig := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(c.MemoryLimitPages).
		WithCloseOnContextDone(true)

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeConfig)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	compiled, err := runtime.CompileModule(ctx, module)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to compile engine module: %w", err)
	}

	return &Engine{
		runtime:  runtime,
		compiled: compiled,
		cfg:      c,
		logger:   logger.With().Str("engine", "wasm").Logger(),
	}, nil
}

// Render runs the module once for in.
func (e *Engine) Render(ctx context.Context, in *sass.Input) (*sass.Result, error) {
	src, err := source(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	fsConfig := wazero.NewFSConfig()
	for _, dir := range mounts(in) {
		fsConfig = fsConfig.WithReadOnlyDirMount(dir, guestPath(dir))
	}

	var mapFile string
	if in.Options != nil && in.Options.SourceMapRequested() {
		scratch, err := os.MkdirTemp("", "sassafras-wasm-")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		defer os.RemoveAll(scratch)
		fsConfig = fsConfig.WithDirMount(scratch, outDir)
		mapFile = filepath.Join(scratch, "map.json")
	}

	var stdout, stderr bytes.Buffer
	modConfig := wazero.NewModuleConfig().
		WithName("").
		WithArgs(Args(e.cfg.Program, in)...).
		WithStdin(bytes.NewReader(src)).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithFSConfig(fsConfig)

	start := time.Now()
	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, modConfig)
	if mod != nil {
		defer mod.Close(context.Background())
	}

	e.logger.Debug().
		Str("input", in.Path.Display()).
		Dur("elapsed", time.Since(start)).
		Int("stdout_bytes", stdout.Len()).
		Int("stderr_bytes", stderr.Len()).
		Msg("module exited")

	if err := e.exitError(ctx, in, err, stderr.String()); err != nil {
		return nil, err
	}

	res := &sass.Result{
		Output:        stdout.String(),
		IncludedFiles: []string{in.Path.String()},
	}
	if mapFile != "" {
		smap, err := os.ReadFile(mapFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read source map: %w", err)
		}
		res.SourceMap = string(smap)
	}
	return res, nil
}

func (e *Engine) exitError(ctx context.Context, in *sass.Input, err error, stderr string) error {
	if err == nil {
		return nil
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		switch code := exitErr.ExitCode(); code {
		case 0:
			return nil
		case sys.ExitCodeDeadlineExceeded:
			return &sass.EngineError{
				Message:  fmt.Sprintf("Compilation timed out after %s", e.cfg.Timeout),
				File:     in.Path.String(),
				Resource: true,
			}
		case sys.ExitCodeContextCanceled:
			return ctx.Err()
		default:
			return diagnostic(stderr, code)
		}
	}
	return &sass.EngineError{
		Message: fmt.Sprintf("engine module failed: %v", err),
		File:    in.Path.String(),
	}
}

// Close releases the runtime and the compiled module.
func (e *Engine) Close(ctx context.Context) error {
	if err := e.runtime.Close(ctx); err != nil {
		return fmt.Errorf("failed to close WASM runtime: %w", err)
	}
	return nil
}

// Args builds the module's command line for in.
func Args(program string, in *sass.Input) []string {
	args := []string{program}
	opts := in.Options
	if opts == nil {
		opts = sass.NewOptions()
	}

	args = append(args,
		"--style="+opts.OutputStyle().String(),
		"--precision="+strconv.Itoa(int(opts.Precision())),
		"--stdin-name="+guestPath(in.Path.String()),
		"--indent="+opts.Indent().String(),
		"--linefeed="+opts.Linefeed().String(),
	)
	for _, p := range opts.IncludePaths().Strings() {
		args = append(args, "--load-path="+guestPath(p))
	}
	for _, ext := range opts.Extensions().Strings() {
		args = append(args, "--import-extension="+ext)
	}
	if opts.SourceComments() {
		args = append(args, "--line-comments")
	}
	if opts.IsIndentedSyntaxSrc() {
		args = append(args, "--indented")
	}

	if !opts.SourceMapRequested() {
		return args
	}
	args = append(args, "--source-map="+path.Join(outDir, "map.json"))
	if f := opts.SourceMapFile(); !f.IsEmpty() {
		args = append(args, "--source-map-url="+f.String())
	}
	if r := opts.SourceMapRoot(); !r.IsEmpty() {
		args = append(args, "--source-map-root="+r.String())
	}
	flags := []struct {
		on   bool
		name string
	}{
		{opts.SourceMapEmbed(), "--embed-source-map"},
		{opts.SourceMapContents(), "--source-map-contents"},
		{opts.SourceMapFileURLs(), "--source-map-file-urls"},
		{opts.OmitSourceMapURL(), "--omit-map-comment"},
	}
	for _, f := range flags {
		if f.on {
			args = append(args, f.name)
		}
	}
	return args
}

func source(in *sass.Input) ([]byte, error) {
	if in.Kind != sass.InputFile {
		return in.Source.Bytes(), nil
	}
	data, err := os.ReadFile(in.Path.String())
	if err != nil {
		return nil, &sass.EngineError{
			Message: fmt.Sprintf("File to read not found or unreadable: %s", in.Path.Display()),
			File:    in.Path.String(),
		}
	}
	return data, nil
}

// mounts lists existing host directories the guest may read: the input
// file's directory followed by the load paths.
func mounts(in *sass.Input) []string {
	var dirs []string
	seen := map[string]bool{}
	add := func(dir string) {
		abs, err := filepath.Abs(dir)
		if err != nil || seen[abs] {
			return
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return
		}
		seen[abs] = true
		dirs = append(dirs, abs)
	}
	if in.Kind == sass.InputFile {
		add(filepath.Dir(in.Path.String()))
	}
	if in.Options != nil {
		for _, p := range in.Options.IncludePaths().Strings() {
			add(p)
		}
	}
	return dirs
}

// guestPath maps a host path to where it is mounted in the guest.
func guestPath(p string) string {
	if p == sass.StdinName {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	abs = filepath.ToSlash(abs)
	if vol := filepath.VolumeName(abs); vol != "" {
		abs = strings.TrimPrefix(abs, vol)
	}
	return abs
}

var positionLine = regexp.MustCompile(`^(.+):(\d+):(\d+): (.*)$`)

// diagnostic converts the module's standard error into an engine error.
func diagnostic(stderr string, code uint32) error {
	text := strings.TrimSpace(stderr)
	if text == "" {
		return &sass.EngineError{Message: fmt.Sprintf("engine module exited with code %d", code)}
	}

	ee := &sass.EngineError{Message: text}
	sc := bufio.NewScanner(strings.NewReader(text))
	if !sc.Scan() {
		return ee
	}
	m := positionLine.FindStringSubmatch(sc.Text())
	if m == nil {
		return ee
	}
	ee.File = m[1]
	ee.Line, _ = strconv.Atoi(m[2])
	ee.Column, _ = strconv.Atoi(m[3])
	ee.Message = m[4]
	var rest []string
	for sc.Scan() {
		rest = append(rest, sc.Text())
	}
	ee.Source = strings.Join(rest, "\n")
	return ee
}
