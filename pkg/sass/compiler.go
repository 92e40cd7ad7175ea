package sass

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/sassafras/sassafras/pkg/sass"

// compilable is implemented by FileContext and DataContext.
type compilable interface {
	context() *Context
	input() (*Input, error)
}

// Observer is notified after every parse or execute that did work. Phase is
// "parse" or "execute".
type Observer func(phase string, kind InputStyle, status Status, elapsed time.Duration)

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithLogger sets the logger used for compiler diagnostics.
func WithLogger(logger zerolog.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithObserver registers an observer for parse and execute outcomes.
func WithObserver(obs Observer) CompilerOption {
	return func(c *Compiler) {
		c.observer = obs
	}
}

// Compiler sequences parse and execute over a file or data context. It does
// not own the context: deleting the compiler leaves the context and its
// options intact, and the context must outlive the compiler.
type Compiler struct {
	id       uuid.UUID
	state    CompilerState
	src      compilable
	engine   Engine
	logger   zerolog.Logger
	observer Observer
	tracer   trace.Tracer
}

// NewFileCompiler creates a compiler in StateCreated working on fc.
func NewFileCompiler(fc *FileContext, engine Engine, opts ...CompilerOption) *Compiler {
	return newCompiler(fc, engine, opts)
}

// NewDataCompiler creates a compiler in StateCreated working on dc.
func NewDataCompiler(dc *DataContext, engine Engine, opts ...CompilerOption) *Compiler {
	return newCompiler(dc, engine, opts)
}

func newCompiler(src compilable, engine Engine, opts []CompilerOption) *Compiler {
	c := &Compiler{
		id:     uuid.New(),
		state:  StateCreated,
		src:    src,
		engine: engine,
		logger: zerolog.Nop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().
		Str("compiler_id", c.id.String()).
		Str("context", src.context().Type().String()).
		Logger()
	return c
}

// ID returns the compiler's unique identifier.
func (c *Compiler) ID() uuid.UUID { return c.id }

// State returns the current state.
func (c *Compiler) State() CompilerState { return c.state }

// Context returns the context the compiler works on.
func (c *Compiler) Context() *Context { return c.src.context() }

// Options returns the options of the context the compiler works on.
func (c *Compiler) Options() *Options { return &c.src.context().options }

// Parse moves the compiler from StateCreated to StateParsed. It is a no-op
// when already parsed and an error once executed. A context that already
// carries an error status fails immediately with that status.
func (c *Compiler) Parse(ctx context.Context) error {
	cx := c.src.context()
	if err := c.precondition("parse", cx); err != nil {
		return err
	}
	switch c.state {
	case StateParsed:
		return nil
	case StateExecuted:
		return c.sequenceError("parse", cx, "Compiler has already executed")
	}

	ctx, span := c.tracer.Start(ctx, "sass.compiler.parse", trace.WithAttributes(
		attribute.String("sass.compiler_id", c.id.String()),
		attribute.String("sass.context", cx.Type().String()),
	))
	defer span.End()
	start := time.Now()

	err := c.parse(ctx)
	c.finish(span, "parse", cx, start, err)
	if err != nil {
		return err
	}

	c.state = StateParsed
	return nil
}

func (c *Compiler) parse(ctx context.Context) error {
	in, err := c.src.input()
	if err != nil {
		return err
	}
	if c.engine == nil {
		return &Error{Status: StatusUnknown, Op: "parse", Message: "No compilation engine configured"}
	}
	p, ok := c.engine.(Parser)
	if !ok {
		return nil
	}
	return guard("parse", func() error {
		return p.Parse(ctx, in)
	})
}

// Execute moves the compiler from StateParsed to StateExecuted by rendering
// the context through the engine. It is a no-op when already executed and an
// error when the compiler has not been parsed. On failure the state is left
// unchanged and the error is recorded on the context.
func (c *Compiler) Execute(ctx context.Context) error {
	cx := c.src.context()
	if err := c.precondition("execute", cx); err != nil {
		return err
	}
	switch c.state {
	case StateExecuted:
		return nil
	case StateCreated:
		return c.sequenceError("execute", cx, "Compiler has not been parsed")
	}

	ctx, span := c.tracer.Start(ctx, "sass.compiler.execute", trace.WithAttributes(
		attribute.String("sass.compiler_id", c.id.String()),
		attribute.String("sass.context", cx.Type().String()),
	))
	defer span.End()
	start := time.Now()

	res, err := c.execute(ctx)
	c.finish(span, "execute", cx, start, err)
	if err != nil {
		return err
	}

	cx.setResult(res)
	span.SetAttributes(
		attribute.Int("sass.output_bytes", len(res.Output)),
		attribute.Int("sass.included_files", len(res.IncludedFiles)),
	)
	c.state = StateExecuted
	return nil
}

func (c *Compiler) execute(ctx context.Context) (*Result, error) {
	in, err := c.src.input()
	if err != nil {
		return nil, err
	}
	if c.engine == nil {
		return nil, &Error{Status: StatusUnknown, Op: "execute", Message: "No compilation engine configured"}
	}
	var res *Result
	err = guard("execute", func() error {
		var rerr error
		res, rerr = c.engine.Render(ctx, in)
		return rerr
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &Result{}
	}
	return res, nil
}

func (c *Compiler) precondition(op string, cx *Context) error {
	status := cx.ErrorStatus()
	if status == StatusOK {
		return nil
	}
	return &Error{Status: status, Op: op, Message: cx.ErrorText().String()}
}

func (c *Compiler) sequenceError(op string, cx *Context, message string) error {
	err := &Error{Status: StatusSequence, Op: op, Message: message, Err: ErrInvalidState}
	cx.setError(err)
	c.logger.Warn().
		Str("op", op).
		Str("state", c.state.String()).
		Msg(message)
	return err
}

// finish records err on the context and closes out the span, log and
// observer for one phase.
func (c *Compiler) finish(span trace.Span, phase string, cx *Context, start time.Time, err error) {
	elapsed := time.Since(start)
	status := StatusOK
	if err != nil {
		status = cx.setError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug().
			Err(err).
			Str("phase", phase).
			Str("status", status.String()).
			Dur("elapsed", elapsed).
			Msg("compiler phase failed")
	} else {
		span.SetStatus(codes.Ok, "")
		c.logger.Debug().
			Str("phase", phase).
			Dur("elapsed", elapsed).
			Msg("compiler phase completed")
	}
	span.SetAttributes(attribute.Int("sass.status", int(status)))
	if c.observer != nil {
		c.observer(phase, cx.Type(), status, elapsed)
	}
}

// guard runs fn, converting a panic into a StatusUnknown error.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{
				Status:  StatusUnknown,
				Op:      op,
				Message: fmt.Sprintf("engine panic: %v", r),
			}
		}
	}()
	return fn()
}

// CompileFile runs parse then execute on a fresh compiler for fc and returns
// the resulting context status.
func CompileFile(ctx context.Context, fc *FileContext, engine Engine, opts ...CompilerOption) Status {
	return compile(ctx, NewFileCompiler(fc, engine, opts...))
}

// CompileData runs parse then execute on a fresh compiler for dc and returns
// the resulting context status.
func CompileData(ctx context.Context, dc *DataContext, engine Engine, opts ...CompilerOption) Status {
	return compile(ctx, NewDataCompiler(dc, engine, opts...))
}

func compile(ctx context.Context, c *Compiler) Status {
	if err := c.Parse(ctx); err != nil {
		return StatusOf(err)
	}
	if err := c.Execute(ctx); err != nil {
		return StatusOf(err)
	}
	return c.Context().ErrorStatus()
}
