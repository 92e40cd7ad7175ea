package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sassafras/sassafras/pkg/cstr"
	"github.com/sassafras/sassafras/pkg/sass"
	"github.com/sassafras/sassafras/pkg/stores"
	"github.com/sassafras/sassafras/pkg/telemetry"
)

// countingEngine echoes data sources and the files listed in includes.
type countingEngine struct {
	calls    int
	includes []string
	err      error
}

func (e *countingEngine) Render(ctx context.Context, in *sass.Input) (*sass.Result, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := in.Source.String()
	if in.Kind == sass.InputFile {
		b, err := os.ReadFile(in.Path.String())
		if err != nil {
			return nil, &sass.EngineError{Message: "File to read not found or unreadable: " + in.Path.String()}
		}
		out = string(b)
	}
	files := append([]string{in.Path.String()}, e.includes...)
	return &sass.Result{Output: out, IncludedFiles: files}, nil
}

func setupStore(t *testing.T) *stores.SQLiteStore {
	t.Helper()

	store, err := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func dataInput(src string, opts *sass.Options) *sass.Input {
	return &sass.Input{
		Kind:    sass.InputData,
		Path:    cstr.NewPath(sass.StdinName),
		Source:  cstr.NewText(src),
		Options: opts,
	}
}

func TestRenderHitAndMiss(t *testing.T) {
	store := setupStore(t)
	inner := &countingEngine{}
	var lookups []bool
	e := New(inner, store, WithLookupHook(func(hit bool) { lookups = append(lookups, hit) }))
	ctx := context.Background()

	first, err := e.Render(ctx, dataInput("a{b:c}", sass.NewOptions()))
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := e.Render(ctx, dataInput("a{b:c}", sass.NewOptions()))
	if err != nil {
		t.Fatalf("second render: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner engine called %d times, want 1", inner.calls)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached result mismatch (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{false, true}, lookups); diff != "" {
		t.Errorf("lookups mismatch (-want +got):\n%s", diff)
	}

	history, err := store.ListCompiles(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("failed to list compiles: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(history))
	}
	hits := 0
	for _, rec := range history {
		if rec.Context != stores.ContextData || rec.Input != sass.StdinName {
			t.Errorf("unexpected record %+v", rec)
		}
		if rec.CacheHit {
			hits++
		}
		if rec.OutputBytes != len("a{b:c}") {
			t.Errorf("expected %d output bytes, got %d", len("a{b:c}"), rec.OutputBytes)
		}
	}
	if hits != 1 {
		t.Errorf("expected one cache hit in history, got %d", hits)
	}
}

func TestRenderKeyedByOptionsAndSource(t *testing.T) {
	store := setupStore(t)
	inner := &countingEngine{}
	e := New(inner, store)
	ctx := context.Background()

	compressed := sass.NewOptions()
	compressed.SetOutputStyle(sass.StyleCompressed)

	inputs := []*sass.Input{
		dataInput("a{}", sass.NewOptions()),
		dataInput("b{}", sass.NewOptions()),
		dataInput("a{}", compressed),
	}
	for _, in := range inputs {
		if _, err := e.Render(ctx, in); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if inner.calls != len(inputs) {
		t.Errorf("inner engine called %d times, want %d", inner.calls, len(inputs))
	}

	if Key(inputs[0], []byte("a{}")) == Key(inputs[2], []byte("a{}")) {
		t.Error("keys for different options must differ")
	}
	if Key(inputs[0], []byte("a{}")) != Key(dataInput("a{}", sass.NewOptions()), []byte("a{}")) {
		t.Error("keys for equal inputs must match")
	}
}

func TestRenderErrorsAreNotCached(t *testing.T) {
	store := setupStore(t)
	inner := &countingEngine{err: &sass.EngineError{Message: "Invalid CSS", Line: 1, Column: 2, File: "stdin"}}
	e := New(inner, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := e.Render(ctx, dataInput("a{", sass.NewOptions()))
		var ee *sass.EngineError
		if !errors.As(err, &ee) {
			t.Fatalf("expected engine error, got %v", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner engine called %d times, want 2", inner.calls)
	}

	history, err := store.ListCompiles(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("failed to list compiles: %v", err)
	}
	for _, rec := range history {
		if rec.Status != int(sass.StatusEngine) {
			t.Errorf("expected status %d, got %d", sass.StatusEngine, rec.Status)
		}
		if rec.Message != "stdin:1:2: Invalid CSS" {
			t.Errorf("unexpected message %q", rec.Message)
		}
	}
}

func TestRenderFileInputs(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.scss")
	partial := filepath.Join(dir, "_vars.scss")
	for name, body := range map[string]string{main: "a{}", partial: "$x: 1;"} {
		if err := os.WriteFile(name, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store := setupStore(t)
	inner := &countingEngine{includes: []string{partial}}
	e := New(inner, store)
	// Entries are stamped an hour ahead so files written above are older.
	base := time.Now().Add(time.Hour)
	e.now = func() time.Time { return base }
	ctx := context.Background()

	in := &sass.Input{Kind: sass.InputFile, Path: cstr.NewPath(main), Options: sass.NewOptions()}
	render := func() *sass.Result {
		t.Helper()
		res, err := e.Render(ctx, in)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		return res
	}

	render()
	render()
	if inner.calls != 1 {
		t.Fatalf("inner engine called %d times, want 1", inner.calls)
	}

	// Editing the entry point changes the key.
	if err := os.WriteFile(main, []byte("b{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := render().Output; got != "b{}" {
		t.Errorf("expected fresh output b{}, got %q", got)
	}
	if inner.calls != 2 {
		t.Fatalf("inner engine called %d times, want 2", inner.calls)
	}

	// Touching an included file makes the entry stale.
	later := base.Add(time.Hour)
	if err := os.Chtimes(partial, later, later); err != nil {
		t.Fatal(err)
	}
	render()
	if inner.calls != 3 {
		t.Errorf("inner engine called %d times, want 3", inner.calls)
	}

	// A missing entry point bypasses the cache and reports the engine error.
	missing := &sass.Input{Kind: sass.InputFile, Path: cstr.NewPath(filepath.Join(dir, "gone.scss")), Options: sass.NewOptions()}
	if _, err := e.Render(ctx, missing); sass.StatusOf(err) != sass.StatusEngine {
		t.Errorf("expected engine status for missing file, got %v", err)
	}
}

func TestParseDelegates(t *testing.T) {
	store := setupStore(t)
	e := New(&countingEngine{}, store)
	if err := e.Parse(context.Background(), dataInput("a{}", nil)); err != nil {
		t.Errorf("Parse() = %v, want nil for engine without parse step", err)
	}
}

// emptyEngine succeeds without a result.
type emptyEngine struct{}

func (emptyEngine) Render(context.Context, *sass.Input) (*sass.Result, error) {
	return nil, nil
}

func TestRenderNilResult(t *testing.T) {
	store := setupStore(t)
	e := New(emptyEngine{}, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := e.Render(ctx, dataInput("", sass.NewOptions()))
		if err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
		if res == nil || res.Output != "" {
			t.Fatalf("render %d = %+v, want empty result", i, res)
		}
	}

	dc, err := sass.NewDataContext(cstr.NewText(""))
	if err != nil {
		t.Fatal(err)
	}
	if status := sass.CompileData(ctx, dc, e); status != sass.StatusOK {
		t.Errorf("CompileData() = %v, want %v", status, sass.StatusOK)
	}

	history, err := store.ListCompiles(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("failed to list compiles: %v", err)
	}
	for _, rec := range history {
		if rec.Status != int(sass.StatusOK) {
			t.Errorf("expected status %d, got %d", sass.StatusOK, rec.Status)
		}
	}
}

func TestRenderTagsSpanWithCacheOutcome(t *testing.T) {
	store := setupStore(t)
	e := New(&countingEngine{}, store)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("cache-test")

	for i := 0; i < 2; i++ {
		ctx, span := tracer.Start(context.Background(), "render")
		if _, err := e.Render(ctx, dataInput("a{b:c}", sass.NewOptions())); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
		span.End()
	}

	var got []bool
	for _, span := range recorder.Ended() {
		for _, kv := range span.Attributes() {
			if kv.Key == telemetry.AttrCache {
				got = append(got, kv.Value.AsBool())
			}
		}
	}
	if diff := cmp.Diff([]bool{false, true}, got); diff != "" {
		t.Errorf("cache attributes mismatch (-want +got):\n%s", diff)
	}
}
