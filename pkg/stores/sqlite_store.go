package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is the datetime format written to TIMESTAMP columns.
const timeLayout = "2006-01-02 15:04:05"

// memoryPath selects a private in-memory database.
const memoryPath = ":memory:"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string
	cfg  Config
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	// Every connection to :memory: opens its own empty database.
	if cfg.Path == memoryPath {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
	}

	return &SQLiteStore{
		path: cfg.Path,
		cfg:  cfg,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate", s.path)
	if s.path != memoryPath {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	// Create migration source from embedded FS
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	// Create database driver
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	// Create migration instance
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// GetCacheEntry retrieves a cached result by key and marks it used.
func (s *SQLiteStore) GetCacheEntry(ctx context.Context, key string) (*CacheEntry, error) {
	query := `
		UPDATE cache_entries
		SET hits = hits + 1, last_used_at = ?
		WHERE key = ?
		RETURNING key, output, source_map, included_files, hits, created_at, last_used_at
	`

	entry := &CacheEntry{}
	var included string
	err := s.db.QueryRowContext(ctx, query, formatTime(time.Now()), key).Scan(
		&entry.Key,
		&entry.Output,
		&entry.SourceMap,
		&included,
		&entry.Hits,
		&entry.CreatedAt,
		&entry.LastUsedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cache entry %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(included), &entry.IncludedFiles); err != nil {
		return nil, fmt.Errorf("failed to decode included files: %w", err)
	}

	return entry, nil
}

// PutCacheEntry stores a result, replacing any entry under the same key.
// A replaced entry keeps its hit count.
func (s *SQLiteStore) PutCacheEntry(ctx context.Context, entry *CacheEntry) error {
	query := `
		INSERT INTO cache_entries (
			key, output, source_map, included_files, hits, created_at, last_used_at
		) VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			output = excluded.output,
			source_map = excluded.source_map,
			included_files = excluded.included_files,
			created_at = excluded.created_at,
			last_used_at = excluded.last_used_at
	`

	files := entry.IncludedFiles
	if files == nil {
		files = []string{}
	}
	included, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("failed to encode included files: %w", err)
	}

	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = s.db.ExecContext(ctx, query,
		entry.Key,
		entry.Output,
		entry.SourceMap,
		string(included),
		formatTime(created),
		formatTime(created),
	)

	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}

	return nil
}

// DeleteCacheEntry deletes a cached result by key
func (s *SQLiteStore) DeleteCacheEntry(ctx context.Context, key string) error {
	query := `DELETE FROM cache_entries WHERE key = ?`

	result, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("cache entry %s: %w", key, ErrNotFound)
	}

	return nil
}

// PruneCache deletes entries not used since the given time.
func (s *SQLiteStore) PruneCache(ctx context.Context, unusedSince time.Time) (int64, error) {
	query := `DELETE FROM cache_entries WHERE datetime(last_used_at) < datetime(?)`

	result, err := s.db.ExecContext(ctx, query, formatTime(unusedSince))
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// RecordCompile appends a compile history record
func (s *SQLiteStore) RecordCompile(ctx context.Context, rec *CompileRecord) error {
	query := `
		INSERT INTO compile_history (
			id, input, context, status, message, cache_key, cache_hit, output_bytes, duration_ns, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Input,
		rec.Context,
		rec.Status,
		rec.Message,
		rec.CacheKey,
		rec.CacheHit,
		rec.OutputBytes,
		int64(rec.Duration),
		formatTime(created),
	)

	if err != nil {
		return fmt.Errorf("failed to record compile: %w", err)
	}

	return nil
}

// ListCompiles lists history records, newest first, optionally for one input.
func (s *SQLiteStore) ListCompiles(ctx context.Context, input *string, limit, offset int) ([]*CompileRecord, error) {
	query := `
		SELECT id, input, context, status, message, cache_key, cache_hit, output_bytes, duration_ns, created_at
		FROM compile_history
		WHERE (? IS NULL OR input = ?)
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, input, input, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list compiles: %w", err)
	}
	defer rows.Close()

	records := []*CompileRecord{}
	for rows.Next() {
		rec := &CompileRecord{}
		var duration int64
		err := rows.Scan(
			&rec.ID,
			&rec.Input,
			&rec.Context,
			&rec.Status,
			&rec.Message,
			&rec.CacheKey,
			&rec.CacheHit,
			&rec.OutputBytes,
			&duration,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compile record: %w", err)
		}
		rec.Duration = time.Duration(duration)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating compile records: %w", err)
	}

	return records, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
