// Package cache provides an engine decorator that memoizes renders in a
// persistent store and records every compilation in the store's history.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/sassafras/sassafras/pkg/sass"
	"github.com/sassafras/sassafras/pkg/stores"
	"github.com/sassafras/sassafras/pkg/telemetry"
)

// Store is the part of stores.Store the cache uses.
type Store interface {
	GetCacheEntry(ctx context.Context, key string) (*stores.CacheEntry, error)
	PutCacheEntry(ctx context.Context, entry *stores.CacheEntry) error
	RecordCompile(ctx context.Context, rec *stores.CompileRecord) error
}

var _ Store = (*stores.SQLiteStore)(nil)

// Engine wraps another engine with a result cache.
type Engine struct {
	inner  sass.Engine
	store  Store
	logger zerolog.Logger
	lookup func(hit bool)
	now    func() time.Time
}

var _ sass.Engine = (*Engine)(nil)
var _ sass.Parser = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLookupHook registers fn to be told the outcome of each cache lookup.
func WithLookupHook(fn func(hit bool)) Option {
	return func(e *Engine) { e.lookup = fn }
}

// New wraps inner with a cache kept in store.
func New(inner sass.Engine, store Store, opts ...Option) *Engine {
	e := &Engine{
		inner:  inner,
		store:  store,
		logger: zerolog.Nop(),
		lookup: func(bool) {},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("engine", "cache").Logger()
	return e
}

// Parse delegates to the inner engine when it has a parse step.
func (e *Engine) Parse(ctx context.Context, in *sass.Input) error {
	if p, ok := e.inner.(sass.Parser); ok {
		return p.Parse(ctx, in)
	}
	return nil
}

// Render returns a cached result when one is fresh, and otherwise renders
// through the inner engine and stores a successful result. Store failures
// are logged and never fail the render. A successful render with no result
// is treated as empty output.
func (e *Engine) Render(ctx context.Context, in *sass.Input) (*sass.Result, error) {
	start := e.now()
	rec := &stores.CompileRecord{
		ID:        uuid.NewString(),
		Input:     in.Path.String(),
		Context:   contextKind(in),
		CreatedAt: start,
	}

	src, err := sourceOf(in)
	if err != nil {
		// Unreadable input: let the engine report it.
		res, rerr := e.inner.Render(ctx, in)
		e.record(ctx, rec, res, rerr, start)
		return res, rerr
	}

	key := Key(in, src)
	rec.CacheKey = key

	res, ok := e.get(ctx, key)
	trace.SpanFromContext(ctx).SetAttributes(telemetry.AttrCache.Bool(ok))
	if ok {
		rec.CacheHit = true
		e.record(ctx, rec, res, nil, start)
		return res, nil
	}

	res, err = e.inner.Render(ctx, in)
	if err == nil {
		if res == nil {
			res = &sass.Result{}
		}
		entry := &stores.CacheEntry{
			Key:           key,
			Output:        res.Output,
			SourceMap:     res.SourceMap,
			IncludedFiles: res.IncludedFiles,
			CreatedAt:     start,
		}
		if perr := e.store.PutCacheEntry(ctx, entry); perr != nil {
			e.logger.Warn().Err(perr).Str("key", key).Msg("failed to store cache entry")
		}
	}
	e.record(ctx, rec, res, err, start)
	return res, err
}

func (e *Engine) get(ctx context.Context, key string) (*sass.Result, bool) {
	entry, err := e.store.GetCacheEntry(ctx, key)
	if err != nil {
		if !errors.Is(err, stores.ErrNotFound) {
			e.logger.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		}
		e.lookup(false)
		return nil, false
	}
	if stale(entry) {
		e.logger.Debug().Str("key", key).Msg("cache entry stale")
		e.lookup(false)
		return nil, false
	}
	e.lookup(true)
	return &sass.Result{
		Output:        entry.Output,
		SourceMap:     entry.SourceMap,
		IncludedFiles: entry.IncludedFiles,
	}, true
}

func (e *Engine) record(ctx context.Context, rec *stores.CompileRecord, res *sass.Result, err error, start time.Time) {
	rec.Status = int(sass.StatusOf(err))
	if err != nil {
		rec.Message = err.Error()
	}
	if res != nil {
		rec.OutputBytes = len(res.Output)
	}
	rec.Duration = e.now().Sub(start)
	if rerr := e.store.RecordCompile(ctx, rec); rerr != nil {
		e.logger.Warn().Err(rerr).Str("id", rec.ID).Msg("failed to record compile")
		return
	}
	e.logger.Debug().
		Str("input", rec.Input).
		Bool("cache_hit", rec.CacheHit).
		Dur("duration", rec.Duration).
		Msg("compile recorded")
}

// Key is the cache key of a render: the hex SHA-256 of the options
// fingerprint, the input kind and path, the source bytes and any input
// source map.
func Key(in *sass.Input, src []byte) string {
	h := sha256.New()
	if in.Options != nil {
		h.Write([]byte(in.Options.Fingerprint()))
	}
	h.Write([]byte{0, byte(in.Kind), 0})
	h.Write(in.Path.Bytes())
	h.Write([]byte{0})
	h.Write(src)
	h.Write([]byte{0})
	h.Write(in.SourceMap.Bytes())
	return hex.EncodeToString(h.Sum(nil))
}

func sourceOf(in *sass.Input) ([]byte, error) {
	if in.Kind == sass.InputData {
		return in.Source.Bytes(), nil
	}
	return os.ReadFile(in.Path.String())
}

func contextKind(in *sass.Input) stores.ContextKind {
	if in.Kind == sass.InputData {
		return stores.ContextData
	}
	return stores.ContextFile
}

// stale reports whether a file the entry was built from, other than the
// entry point whose bytes are in the key, changed after the entry was made.
// Timestamps are stored at second resolution, so a change within the same
// second counts as newer.
func stale(entry *stores.CacheEntry) bool {
	if len(entry.IncludedFiles) < 2 {
		return false
	}
	for _, name := range entry.IncludedFiles[1:] {
		info, err := os.Stat(name)
		if err != nil {
			return true
		}
		if !info.ModTime().Truncate(time.Second).Before(entry.CreatedAt) {
			return true
		}
	}
	return false
}
