package stores

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ContextKind names the kind of input a compilation ran on.
type ContextKind string

const (
	ContextFile ContextKind = "file"
	ContextData ContextKind = "data"
)

// CacheEntry is a stored compilation result.
type CacheEntry struct {
	Key           string    `json:"key"` // hex SHA-256 of options fingerprint and source
	Output        string    `json:"output"`
	SourceMap     string    `json:"source_map"`
	IncludedFiles []string  `json:"included_files"`
	Hits          int64     `json:"hits"`
	CreatedAt     time.Time `json:"created_at"`
	LastUsedAt    time.Time `json:"last_used_at"`
}

// CompileRecord is one row of compile history.
type CompileRecord struct {
	ID          string        `json:"id"`
	Input       string        `json:"input"` // input path, or the data context's input name
	Context     ContextKind   `json:"context"`
	Status      int           `json:"status"`
	Message     string        `json:"message,omitempty"`
	CacheKey    string        `json:"cache_key,omitempty"`
	CacheHit    bool          `json:"cache_hit"`
	OutputBytes int           `json:"output_bytes"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Store defines the interface for the persistence layer
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Cache operations
	GetCacheEntry(ctx context.Context, key string) (*CacheEntry, error)
	PutCacheEntry(ctx context.Context, entry *CacheEntry) error
	DeleteCacheEntry(ctx context.Context, key string) error
	PruneCache(ctx context.Context, unusedSince time.Time) (int64, error)

	// History operations
	RecordCompile(ctx context.Context, rec *CompileRecord) error
	ListCompiles(ctx context.Context, input *string, limit, offset int) ([]*CompileRecord, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
