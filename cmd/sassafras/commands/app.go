package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/sassafras/sassafras/pkg/config"
	"github.com/sassafras/sassafras/pkg/cstr"
	"github.com/sassafras/sassafras/pkg/engines/cache"
	"github.com/sassafras/sassafras/pkg/engines/passthrough"
	"github.com/sassafras/sassafras/pkg/engines/wasm"
	"github.com/sassafras/sassafras/pkg/sass"
	"github.com/sassafras/sassafras/pkg/stores"
	"github.com/sassafras/sassafras/pkg/telemetry"
	"github.com/sassafras/sassafras/pkg/watch"
)

// Messages printed when a failed compilation carries no message of its own.
const (
	msgNoErrorMessage = "An error occured; no error message available.\n"
	msgUnknownError   = "Unknown internal error.\n"
)

// app is one invocation of the command.
type app struct {
	streams Streams
	build   BuildInfo
	flags   cliFlags

	tel     *telemetry.Telemetry
	logger  *telemetry.Logger
	engine  sass.Engine
	closers []func(context.Context) error
}

// run executes the command and returns the exit code.
func (a *app) run(ctx context.Context, flags *pflag.FlagSet, args []string) int {
	cfg, err := loadConfig(a.flags.configPath)
	if err != nil {
		fmt.Fprintf(a.streams.Err, "Error: %v\n", err)
		return ExitError
	}

	j, err := newJob(flags, &a.flags, cfg, args)
	if err != nil {
		fmt.Fprintf(a.streams.Err, "Error: %v\n", err)
		return ExitError
	}

	if err := a.setup(ctx, cfg); err != nil {
		fmt.Fprintf(a.streams.Err, "Error: %v\n", err)
		return ExitError
	}
	defer a.shutdown()

	ctx = a.logger.WithContext(ctx)
	if a.flags.watch {
		return a.watch(ctx, j)
	}

	var src []byte
	if j.stdin {
		if src, err = io.ReadAll(a.streams.In); err != nil {
			fmt.Fprintf(a.streams.Err, "Error reading standard input: %v\n", err)
			return ExitError
		}
	}
	return a.compile(ctx, j, src)
}

// loadConfig loads the configuration file, if one was named.
func loadConfig(path string) (*config.File, error) {
	if path == "" {
		return nil, nil
	}
	return config.Load(path)
}

// setup creates telemetry and the engine stack.
func (a *app) setup(ctx context.Context, cfg *config.File) error {
	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceVersion = a.build.Version
	tcfg.Logging.Level = strings.ToLower(pick(a.flags.logLevel, cfgValue(cfg, func(c *config.File) string { return c.Log.Level }), telemetry.EnvLevel("warn", "LOG_LEVEL")))
	tcfg.Logging.Format = pick(a.flags.logFormat, cfgValue(cfg, func(c *config.File) string { return c.Log.Format }), "console")
	tcfg.Tracing.Exporter = pick(a.flags.trace, cfgValue(cfg, func(c *config.File) string { return c.Trace.Exporter }), "none")
	tcfg.Tracing.Endpoint = pick(a.flags.traceEndpoint, cfgValue(cfg, func(c *config.File) string { return c.Trace.Endpoint }))
	tcfg.Metrics.ListenAddress = a.flags.metricsAddr
	if tcfg.Logging.Level == "disabled" || tcfg.Logging.Level == "panic" {
		tcfg.Logging.Level = "fatal"
	}

	tel, err := telemetry.NewTelemetry(tcfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.tel = tel
	a.closers = append(a.closers, tel.Shutdown)
	tel.Logger.SetGlobal()
	a.logger = tel.Logger.NewComponentLogger("cli")

	enginePath := a.flags.enginePath
	cachePath := a.flags.cachePath
	if cfg != nil {
		if enginePath == "" {
			enginePath = cfg.Path(cfg.Engine)
		}
		if cachePath == "" {
			cachePath = cfg.Path(cfg.Cache)
		}
	}

	engineLogger := tel.Logger.NewComponentLogger("engine").Zerolog()
	var engine sass.Engine = passthrough.New(engineLogger)
	if enginePath != "" {
		we, err := wasm.Load(ctx, enginePath, nil, engineLogger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, we.Close)
		engine = we
	}

	if cachePath != "" {
		store, err := stores.NewSQLiteStore(stores.Config{Path: cachePath})
		if err != nil {
			return err
		}
		if err := store.Init(ctx); err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		engine = cache.New(engine, store,
			cache.WithLogger(engineLogger),
			cache.WithLookupHook(tel.Metrics.CacheLookup),
		)
	}

	a.engine = engine
	return nil
}

func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.WithError(err).Warn("shutdown failed")
		}
	}
}

// compile runs one compilation and writes its results. src is the source
// for standard input jobs.
func (a *app) compile(ctx context.Context, j *job, src []byte) int {
	ctx, span := a.tel.Tracer.StartCompileSpan(ctx, j.name(), j.kind().String())
	defer span.End()
	if j.output != "" {
		span.SetAttributes(telemetry.AttrOutput.String(j.output))
	}
	log := telemetry.FromContext(ctx).WithInput(j.name())
	if id := telemetry.TraceID(ctx); id != "" {
		log = log.WithField("trace_id", id)
	}

	copts := []sass.CompilerOption{
		sass.WithLogger(log.Zerolog()),
		sass.WithObserver(a.observe),
	}

	var cx *sass.Context
	var status sass.Status
	if j.stdin {
		dc, err := sass.NewDataContext(cstr.NewText(string(src)))
		if err != nil {
			telemetry.RecordError(span, err)
			a.printMessage(inputMessage(err), msgNoErrorMessage)
			return ExitError
		}
		dc.SetOptions(j.opts)
		status = sass.CompileData(ctx, dc, a.engine, copts...)
		cx = dc.Context()
	} else {
		fc, err := sass.NewFileContext(cstr.NewPath(j.input))
		if err != nil {
			telemetry.RecordError(span, err)
			a.printMessage(inputMessage(err), msgNoErrorMessage)
			return ExitError
		}
		fc.SetOptions(j.opts)
		status = sass.CompileFile(ctx, fc, a.engine, copts...)
		cx = fc.Context()
	}
	span.SetAttributes(telemetry.AttrStatus.String(status.String()))

	if status != sass.StatusOK {
		log.WithField("status", status.String()).Debug("compile failed")
		msg := cx.ErrorMessage().String()
		telemetry.RecordError(span, fmt.Errorf("%s: %s", status, strings.TrimSpace(msg)))
		if status == sass.StatusUnknown {
			a.printMessage(msg, msgUnknownError)
			return ExitInternal
		}
		a.printMessage(msg, msgNoErrorMessage)
		return ExitError
	}

	if err := a.writeOutput(j.output, cx.OutputString().String()); err != nil {
		telemetry.RecordError(span, err)
		fmt.Fprintf(a.streams.Err, "Error opening output file: %v\n", err)
		return ExitError
	}
	if smap := cx.SourceMapString(); j.mapFile != "" && !smap.IsEmpty() {
		if err := os.WriteFile(j.mapFile, smap.Bytes(), 0o644); err != nil {
			telemetry.RecordError(span, err)
			fmt.Fprintf(a.streams.Err, "Error opening output file: %v\n", err)
			return ExitError
		}
	}

	telemetry.RecordSuccess(span)
	log.WithField("included_files", cx.IncludedFilesSize()).Debug("compiled")
	return ExitOK
}

func (a *app) observe(phase string, kind sass.InputStyle, status sass.Status, elapsed time.Duration) {
	a.tel.Metrics.Compiled(phase, kind.String(), status.String(), elapsed.Seconds())
}

func (a *app) printMessage(msg, fallback string) {
	if msg == "" {
		msg = fallback
	}
	io.WriteString(a.streams.Err, msg)
	if !strings.HasSuffix(msg, "\n") {
		io.WriteString(a.streams.Err, "\n")
	}
}

func (a *app) writeOutput(path, text string) error {
	if path == "" {
		_, err := io.WriteString(a.streams.Out, text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

// watch compiles once and then again whenever the input or anything under
// the load paths changes, until ctx is done.
func (a *app) watch(ctx context.Context, j *job) int {
	if j.stdin || j.output == "" {
		fmt.Fprintf(a.streams.Err, "Error: --watch requires INPUT and OUTPUT\n")
		return ExitError
	}

	wlog := a.tel.Logger.NewComponentLogger("watch")
	ctx = wlog.WithContext(ctx)

	if err := a.tel.Metrics.StartMetricsServer(ctx); err != nil {
		fmt.Fprintf(a.streams.Err, "Error: %v\n", err)
		return ExitError
	}
	if addr := a.tel.Config.Metrics.ListenAddress; addr != "" {
		wlog.WithField("addr", addr).Info("serving metrics")
	}

	a.compile(ctx, j, nil)

	paths := append([]string{j.input}, j.opts.IncludePaths().Strings()...)
	w := watch.New(
		watch.WithLogger(wlog.Zerolog()),
		watch.WithExtensions(watchExtensions(j.opts)...),
		watch.WithIgnore(j.output, j.mapFile),
	)
	err := w.Run(ctx, paths, func(changed []string) {
		log := telemetry.FromContext(ctx).WithField("changed", changed)
		log.Infof("recompiling after %d change(s)", len(changed))
		if code := a.compile(ctx, j, nil); code == ExitOK {
			log.WithField("output", j.output).Info("compiled")
		}
	})
	if err != nil {
		wlog.WithError(err).Error("watch stopped")
		fmt.Fprintf(a.streams.Err, "Error: %v\n", err)
		return ExitError
	}
	return ExitOK
}

func watchExtensions(opts *sass.Options) []string {
	exts := append([]string(nil), sass.DefaultImportExtensions...)
	for _, e := range opts.Extensions().Strings() {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

// inputMessage is the text of a context construction error.
func inputMessage(err error) string {
	var se *sass.Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func cfgValue(cfg *config.File, get func(*config.File) string) string {
	if cfg == nil {
		return ""
	}
	return get(cfg)
}
