// Package capi is the handle-based boundary surface of sassafras. Every
// object crosses the boundary as an opaque handle from package handle; the
// methods of Boundary mirror the libsass C API one to one and are exported to
// C by cmd/libsassafras.
//
// Handle misuse (null, stale, wrong kind, revoked, double delete) panics with
// a *handle.Violation after it has been logged and counted. Failed "make"
// operations return the null handle and leave the error in LastError.
package capi

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/sassafras/sassafras/pkg/engines/passthrough"
	"github.com/sassafras/sassafras/pkg/handle"
	"github.com/sassafras/sassafras/pkg/sass"
)

// Kind tags of boundary handles.
const (
	KindOptions     handle.Kind = 1
	KindFileContext handle.Kind = 2
	KindDataContext handle.Kind = 3
	KindContext     handle.Kind = 4
	KindCompiler    handle.Kind = 5
)

// Version is the library version reported by libsass_version.
const Version = "0.1.0"

// LanguageVersion is the implemented stylesheet language version.
const LanguageVersion = "3.5"

// Handle types of the boundary surface.
type (
	// OptionsHandle is an owned or borrowed Options handle.
	OptionsHandle = handle.Handle[sass.Options]
	// OwnedOptions is an Options handle from MakeOptions.
	OwnedOptions = handle.Owned[sass.Options]
	// BorrowedOptions is the Options embedded in a context.
	BorrowedOptions = handle.Borrowed[sass.Options]
	// FileContextHandle is an owned file context.
	FileContextHandle = handle.Owned[sass.FileContext]
	// DataContextHandle is an owned data context.
	DataContextHandle = handle.Owned[sass.DataContext]
	// ContextRef is the Context embedded in a file or data context.
	ContextRef = handle.Borrowed[sass.Context]
	// CompilerHandle is an owned compiler.
	CompilerHandle = handle.Owned[compilerSlot]
)

type compilerSlot struct {
	compiler *sass.Compiler
	ctx      ContextRef
	owner    handle.ID
}

// Recorder receives boundary events for metrics.
type Recorder interface {
	HandleMade(kind string)
	HandleDeleted(kind string)
	Violation(kind string)
	Compiled(phase, kind, status string, seconds float64)
}

type nopRecorder struct{}

func (nopRecorder) HandleMade(string)                       {}
func (nopRecorder) HandleDeleted(string)                    {}
func (nopRecorder) Violation(string)                        {}
func (nopRecorder) Compiled(string, string, string, float64) {}

// Option configures a Boundary.
type Option func(*Boundary)

// WithLogger sets the logger for handle lifecycle and violations.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Boundary) {
		b.logger = logger
	}
}

// WithEngine sets the engine used by compilers.
func WithEngine(engine sass.Engine) Option {
	return func(b *Boundary) {
		b.engine = engine
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(b *Boundary) {
		b.recorder = r
	}
}

// WithInvalidate installs a hook called with every handle whose strings may
// no longer be referenced: deleted owned handles and revoked borrowed ones.
func WithInvalidate(fn func(handle.ID)) Option {
	return func(b *Boundary) {
		b.invalidate = fn
	}
}

// Boundary owns the handle tables of one process.
type Boundary struct {
	logger     zerolog.Logger
	engine     sass.Engine
	recorder   Recorder
	invalidate func(handle.ID)

	options     *handle.Table[sass.Options]
	optionLoans *handle.Lender[sass.Options]
	fileCtxs    *handle.Table[sass.FileContext]
	dataCtxs    *handle.Table[sass.DataContext]
	contexts    *handle.Lender[sass.Context]
	compilers   *handle.Table[compilerSlot]

	mu      sync.Mutex
	lastErr error
}

// New creates a Boundary. Without WithEngine compilers use the passthrough
// engine.
func New(opts ...Option) *Boundary {
	b := &Boundary{
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.engine == nil {
		b.engine = passthrough.New(b.logger)
	}

	hook := handle.WithHook(b.violation)
	b.options = handle.NewTable[sass.Options](KindOptions, "options", hook)
	b.optionLoans = handle.NewLender[sass.Options](KindOptions, "options", hook)
	b.fileCtxs = handle.NewTable[sass.FileContext](KindFileContext, "file_context", hook)
	b.dataCtxs = handle.NewTable[sass.DataContext](KindDataContext, "data_context", hook)
	b.contexts = handle.NewLender[sass.Context](KindContext, "context", hook)
	b.compilers = handle.NewTable[compilerSlot](KindCompiler, "compiler", hook)
	return b
}

func (b *Boundary) violation(v *handle.Violation) {
	b.recorder.Violation(v.Kind.String())
	b.logger.Error().
		Str("violation", v.Kind.String()).
		Str("table", v.Table).
		Str("handle", v.ID.String()).
		Msg("handle contract violation")
}

// LastError returns the error of the most recent failed make operation, or
// nil when the most recent make succeeded.
func (b *Boundary) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

func (b *Boundary) setLastError(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()
}

// Live returns the number of live owned handles per kind name.
func (b *Boundary) Live() map[string]int {
	return map[string]int{
		"options":      b.options.Live(),
		"file_context": b.fileCtxs.Live(),
		"data_context": b.dataCtxs.Live(),
		"compiler":     b.compilers.Live(),
	}
}

func (b *Boundary) made(kind string, id handle.ID) {
	b.recorder.HandleMade(kind)
	b.logger.Debug().Str("kind", kind).Str("handle", id.String()).Msg("handle made")
}

func (b *Boundary) deleted(kind string, id handle.ID) {
	b.recorder.HandleDeleted(kind)
	b.logger.Debug().Str("kind", kind).Str("handle", id.String()).Msg("handle deleted")
	b.fire(id)
}

func (b *Boundary) fire(id handle.ID) {
	if b.invalidate != nil && !id.IsNull() {
		b.invalidate(id)
	}
}

// revokeOptions revokes the options loan of owner, if any.
func (b *Boundary) revokeOptions(owner handle.ID) {
	if id, ok := b.optionLoans.Revoke(owner); ok {
		b.fire(id)
	}
}

// Raw value adoption. These turn a handle value received from a foreign
// caller into the typed handle the operation expects.

// RawOptions adopts an owned or borrowed Options handle.
func (b *Boundary) RawOptions(id uint64) OptionsHandle {
	return handle.Adopt(b.options, b.optionLoans, handle.ID(id))
}

// RawOwnedOptions adopts an owned Options handle, as required by delete.
func (b *Boundary) RawOwnedOptions(id uint64) OwnedOptions {
	return b.options.Owned(handle.ID(id))
}

// RawFileContext adopts a file context handle.
func (b *Boundary) RawFileContext(id uint64) FileContextHandle {
	return b.fileCtxs.Owned(handle.ID(id))
}

// RawDataContext adopts a data context handle.
func (b *Boundary) RawDataContext(id uint64) DataContextHandle {
	return b.dataCtxs.Owned(handle.ID(id))
}

// RawContext adopts a borrowed Context handle.
func (b *Boundary) RawContext(id uint64) ContextRef {
	return b.contexts.Borrowed(handle.ID(id))
}

// RawCompiler adopts a compiler handle.
func (b *Boundary) RawCompiler(id uint64) CompilerHandle {
	return b.compilers.Owned(handle.ID(id))
}
