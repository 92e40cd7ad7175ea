// Package sass is the configuration, context and compiler model behind the
// sassafras boundary.
//
// # Overview
//
// A caller builds an Options value, creates a FileContext or DataContext
// (each owning its own Options), optionally copies its Options over the
// context's, and drives a Compiler through its state machine:
//
//	Created --Parse--> Parsed --Execute--> Executed
//
// Parse on a parsed compiler and Execute on an executed compiler are no-ops.
// Any other out-of-order call records StatusSequence on the context. Once a
// context carries a nonzero status every compiler operation fails with that
// status.
//
// # Engines
//
// Stylesheet parsing and CSS generation happen in an Engine:
//
//	type Engine interface {
//	    Render(ctx context.Context, in *Input) (*Result, error)
//	}
//
// Engines report stylesheet problems as *EngineError. Returned errors and
// panics are both caught and recorded on the context.
//
// # Usage
//
//	fc, err := sass.NewFileContext(cstr.NewPath("main.scss"))
//	if err != nil {
//	    return err
//	}
//	fc.Options().SetOutputStyle(sass.StyleCompressed)
//	if status := sass.CompileFile(ctx, fc, engine); status != sass.StatusOK {
//	    return errors.New(fc.Context().ErrorMessage().String())
//	}
//	fmt.Print(fc.Context().OutputString())
//
// Objects in this package perform no locking. A tree of options, context and
// compiler must be used from one goroutine at a time.
package sass
