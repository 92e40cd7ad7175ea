// Package stores provides the persistence layer for sassafras.
// It includes a SQLite-based store with WAL mode, connection pooling
// and embedded migrations, holding the compile cache and the compile
// history written by the caching engine.
package stores
