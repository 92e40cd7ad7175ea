package stores

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
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

	return store
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestHealthCheckBeforeInit(t *testing.T) {
	store, err := NewSQLiteStore(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.HealthCheck(context.Background()); err == nil {
		t.Error("expected health check to fail before Init")
	}
	if err := store.Migrate(context.Background()); err == nil {
		t.Error("expected migrate to fail before Init")
	}
}

// TestStoreMigrations tests database migrations
func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	tables := []string{"cache_entries", "compile_history"}
	for _, table := range tables {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		err := store.db.QueryRowContext(ctx, query).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}

	// Running again is a no-op.
	if err := store.Migrate(ctx); err != nil {
		t.Errorf("second migrate failed: %v", err)
	}
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	open := func() *SQLiteStore {
		t.Helper()
		store, err := NewSQLiteStore(Config{Path: path})
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		if err := store.Init(ctx); err != nil {
			t.Fatalf("failed to initialize store: %v", err)
		}
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to migrate store: %v", err)
		}
		return store
	}

	store := open()
	if err := store.PutCacheEntry(ctx, &CacheEntry{Key: "k", Output: "a{}"}); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	store = open()
	defer store.Close()
	entry, err := store.GetCacheEntry(ctx, "k")
	if err != nil {
		t.Fatalf("failed to get entry after reopen: %v", err)
	}
	if entry.Output != "a{}" {
		t.Errorf("expected output a{}, got %q", entry.Output)
	}
}

// TestCacheEntryOperations tests cache put, get, replace and delete
func TestCacheEntryOperations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	entry := &CacheEntry{
		Key:           "3f7a",
		Output:        "a { color: red; }\n",
		SourceMap:     `{"version":3}`,
		IncludedFiles: []string{"/src/main.scss", "/src/_vars.scss"},
		CreatedAt:     now,
	}
	if err := store.PutCacheEntry(ctx, entry); err != nil {
		t.Fatalf("failed to put cache entry: %v", err)
	}

	got, err := store.GetCacheEntry(ctx, entry.Key)
	if err != nil {
		t.Fatalf("failed to get cache entry: %v", err)
	}

	want := &CacheEntry{
		Key:           entry.Key,
		Output:        entry.Output,
		SourceMap:     entry.SourceMap,
		IncludedFiles: entry.IncludedFiles,
		Hits:          1,
		CreatedAt:     now,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(CacheEntry{}, "LastUsedAt"), cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Errorf("cache entry mismatch (-want +got):\n%s", diff)
	}

	// Each lookup counts as a hit.
	got, err = store.GetCacheEntry(ctx, entry.Key)
	if err != nil {
		t.Fatalf("failed to get cache entry: %v", err)
	}
	if got.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", got.Hits)
	}

	// Replace keeps the hit count and swaps the payload.
	entry.Output = "a{color:red}"
	entry.IncludedFiles = nil
	if err := store.PutCacheEntry(ctx, entry); err != nil {
		t.Fatalf("failed to replace cache entry: %v", err)
	}
	got, err = store.GetCacheEntry(ctx, entry.Key)
	if err != nil {
		t.Fatalf("failed to get cache entry: %v", err)
	}
	if got.Output != "a{color:red}" {
		t.Errorf("expected replaced output, got %q", got.Output)
	}
	if len(got.IncludedFiles) != 0 {
		t.Errorf("expected no included files, got %v", got.IncludedFiles)
	}
	if got.Hits != 3 {
		t.Errorf("expected 3 hits, got %d", got.Hits)
	}

	if err := store.DeleteCacheEntry(ctx, entry.Key); err != nil {
		t.Fatalf("failed to delete cache entry: %v", err)
	}
	if _, err := store.GetCacheEntry(ctx, entry.Key); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteCacheEntry(ctx, entry.Key); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPruneCache(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)

	if err := store.PutCacheEntry(ctx, &CacheEntry{Key: "old", Output: "x", CreatedAt: old}); err != nil {
		t.Fatalf("failed to put old entry: %v", err)
	}
	if err := store.PutCacheEntry(ctx, &CacheEntry{Key: "new", Output: "y"}); err != nil {
		t.Fatalf("failed to put new entry: %v", err)
	}

	n, err := store.PruneCache(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("failed to prune cache: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned entry, got %d", n)
	}

	if _, err := store.GetCacheEntry(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected old entry pruned, got %v", err)
	}
	if _, err := store.GetCacheEntry(ctx, "new"); err != nil {
		t.Errorf("expected new entry kept, got %v", err)
	}
}

// TestCompileHistory tests recording and listing compile records
func TestCompileHistory(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	records := []*CompileRecord{
		{ID: "c-1", Input: "main.scss", Context: ContextFile, Status: 0, CacheKey: "k1", OutputBytes: 18, Duration: 3 * time.Millisecond, CreatedAt: base.Add(-2 * time.Minute)},
		{ID: "c-2", Input: "stdin", Context: ContextData, Status: 1, Message: "Error: invalid", Duration: time.Millisecond, CreatedAt: base.Add(-time.Minute)},
		{ID: "c-3", Input: "main.scss", Context: ContextFile, Status: 0, CacheKey: "k1", CacheHit: true, OutputBytes: 18, CreatedAt: base},
	}
	for _, rec := range records {
		if err := store.RecordCompile(ctx, rec); err != nil {
			t.Fatalf("failed to record compile %s: %v", rec.ID, err)
		}
	}

	all, err := store.ListCompiles(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("failed to list compiles: %v", err)
	}
	want := []*CompileRecord{records[2], records[1], records[0]}
	if diff := cmp.Diff(want, all, cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	input := "main.scss"
	filtered, err := store.ListCompiles(ctx, &input, 10, 0)
	if err != nil {
		t.Fatalf("failed to list compiles: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 records for %s, got %d", input, len(filtered))
	}
	if !filtered[0].CacheHit || filtered[1].CacheHit {
		t.Errorf("unexpected cache hit flags: %v, %v", filtered[0].CacheHit, filtered[1].CacheHit)
	}

	page, err := store.ListCompiles(ctx, nil, 1, 1)
	if err != nil {
		t.Fatalf("failed to list compiles: %v", err)
	}
	if len(page) != 1 || page[0].ID != "c-2" {
		t.Errorf("expected second page to hold c-2, got %+v", page)
	}

	if err := store.RecordCompile(ctx, records[0]); err == nil {
		t.Error("expected duplicate id to fail")
	}
}
