package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"os"
	"sync"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/sassafras/sassafras/pkg/capi"
	"github.com/sassafras/sassafras/pkg/engines/cache"
	"github.com/sassafras/sassafras/pkg/engines/passthrough"
	"github.com/sassafras/sassafras/pkg/engines/wasm"
	"github.com/sassafras/sassafras/pkg/sass"
	"github.com/sassafras/sassafras/pkg/stores"
	"github.com/sassafras/sassafras/pkg/telemetry"
)

// library is the process-wide state behind the exported functions.
type library struct {
	boundary *capi.Boundary
	strings  *stringCache
	logger   zerolog.Logger

	version         *C.char
	languageVersion *C.char

	mu      sync.Mutex
	lastErr *C.char
}

var (
	libOnce sync.Once
	lib     *library
)

// lb returns the library state, creating it on first use.
func lb() *library {
	libOnce.Do(func() {
		lib = newLibrary()
	})
	return lib
}

func newLibrary() *library {
	l := &library{
		strings:         newStringCache(),
		version:         C.CString(capi.Version),
		languageVersion: C.CString(capi.LanguageVersion),
		logger:          zerolog.Nop(),
	}

	opts := []capi.Option{capi.WithInvalidate(l.strings.invalidate)}

	cfg := telemetry.DefaultConfig()
	cfg.ServiceName = "libsassafras"
	cfg.ServiceVersion = capi.Version
	cfg.Logging.Level = telemetry.EnvLevel("warn", "SASSAFRAS_LOG_LEVEL", "LOG_LEVEL")
	tel, err := telemetry.NewTelemetry(cfg)
	if err == nil {
		l.logger = tel.Logger.NewComponentLogger("capi").Zerolog()
		opts = append(opts, capi.WithLogger(l.logger), capi.WithRecorder(tel.Metrics))
	}

	opts = append(opts, capi.WithEngine(l.engine()))
	l.boundary = capi.New(opts...)
	return l
}

// engine builds the engine stack named by the environment. Failures fall
// back to the built-in engine.
func (l *library) engine() sass.Engine {
	ctx := context.Background()
	var engine sass.Engine = passthrough.New(l.logger)

	if path := os.Getenv("SASSAFRAS_ENGINE"); path != "" {
		we, err := wasm.Load(ctx, path, nil, l.logger)
		if err != nil {
			l.logger.Error().Err(err).Str("engine", path).Msg("failed to load engine module, using built-in engine")
		} else {
			engine = we
		}
	}

	if path := os.Getenv("SASSAFRAS_CACHE"); path != "" {
		store, err := openStore(ctx, path)
		if err != nil {
			l.logger.Error().Err(err).Str("cache", path).Msg("failed to open compile cache")
		} else {
			engine = cache.New(engine, store, cache.WithLogger(l.logger))
		}
	}
	return engine
}

func openStore(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// setLastError publishes the message of the boundary's last error.
func (l *library) setLastError() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastErr != nil {
		C.free(unsafe.Pointer(l.lastErr))
		l.lastErr = nil
	}
	if err := l.boundary.LastError(); err != nil {
		l.lastErr = C.CString(err.Error())
	}
}
