package capi

import (
	"context"
	"time"

	"github.com/sassafras/sassafras/pkg/handle"
	"github.com/sassafras/sassafras/pkg/sass"
)

// MakeFileCompiler creates a compiler working on the context of h. The
// compiler does not own the context; h must outlive it.
func (b *Boundary) MakeFileCompiler(h FileContextHandle) CompilerHandle {
	fc := b.fileCtxs.Get(h)
	ref := b.contexts.Lend(h.ID(), fc.Context())
	c := sass.NewFileCompiler(fc, b.engine, b.compilerOptions()...)
	return b.makeCompiler(c, ref, h.ID())
}

// MakeDataCompiler creates a compiler working on the context of h.
func (b *Boundary) MakeDataCompiler(h DataContextHandle) CompilerHandle {
	dc := b.dataCtxs.Get(h)
	ref := b.contexts.Lend(h.ID(), dc.Context())
	c := sass.NewDataCompiler(dc, b.engine, b.compilerOptions()...)
	return b.makeCompiler(c, ref, h.ID())
}

func (b *Boundary) makeCompiler(c *sass.Compiler, ref ContextRef, owner handle.ID) CompilerHandle {
	h := b.compilers.Make(&compilerSlot{compiler: c, ctx: ref, owner: owner})
	b.setLastError(nil)
	b.made("compiler", h.ID())
	return h
}

func (b *Boundary) compilerOptions() []sass.CompilerOption {
	return []sass.CompilerOption{
		sass.WithLogger(b.logger),
		sass.WithObserver(func(phase string, kind sass.InputStyle, status sass.Status, elapsed time.Duration) {
			b.recorder.Compiled(phase, kind.String(), status.String(), elapsed.Seconds())
		}),
	}
}

// compiler resolves h and checks that its context is still alive.
func (b *Boundary) compiler(h CompilerHandle) *compilerSlot {
	slot := b.compilers.Get(h)
	b.contexts.Get(slot.ctx)
	return slot
}

// CompilerParse runs the parse step and returns the resulting status.
func (b *Boundary) CompilerParse(ctx context.Context, h CompilerHandle) int {
	slot := b.compiler(h)
	err := slot.compiler.Parse(ctx)
	b.fire(slot.ctx.ID())
	return int(sass.StatusOf(err))
}

// CompilerExecute runs the execute step and returns the resulting status.
func (b *Boundary) CompilerExecute(ctx context.Context, h CompilerHandle) int {
	slot := b.compiler(h)
	err := slot.compiler.Execute(ctx)
	b.fire(slot.ctx.ID())
	return int(sass.StatusOf(err))
}

// CompilerGetState returns the compiler state.
func (b *Boundary) CompilerGetState(h CompilerHandle) sass.CompilerState {
	return b.compiler(h).compiler.State()
}

// CompilerGetContext borrows the context the compiler works on.
func (b *Boundary) CompilerGetContext(h CompilerHandle) ContextRef {
	return b.compiler(h).ctx
}

// CompilerGetOptions borrows the options of the compiler's context.
func (b *Boundary) CompilerGetOptions(h CompilerHandle) BorrowedOptions {
	slot := b.compiler(h)
	return b.optionLoans.Lend(slot.owner, slot.compiler.Options())
}

// DeleteCompiler releases h. The context it worked on is left intact.
// Deleting the null handle does nothing.
func (b *Boundary) DeleteCompiler(h CompilerHandle) {
	if h.IsNull() {
		return
	}
	b.compilers.Delete(h)
	b.deleted("compiler", h.ID())
}

// CompileFileContext parses and executes h in one call and returns the
// context status.
func (b *Boundary) CompileFileContext(ctx context.Context, h FileContextHandle) int {
	fc := b.fileCtxs.Get(h)
	status := sass.CompileFile(ctx, fc, b.engine, b.compilerOptions()...)
	b.fire(b.contextLoan(h.ID()))
	return int(status)
}

// CompileDataContext parses and executes h in one call and returns the
// context status.
func (b *Boundary) CompileDataContext(ctx context.Context, h DataContextHandle) int {
	dc := b.dataCtxs.Get(h)
	status := sass.CompileData(ctx, dc, b.engine, b.compilerOptions()...)
	b.fire(b.contextLoan(h.ID()))
	return int(status)
}

// contextLoan returns the outstanding context handle lent for owner, or the
// null handle.
func (b *Boundary) contextLoan(owner handle.ID) handle.ID {
	return b.contexts.Loan(owner).ID()
}
