// Package memory implements the Memory Subsystem (spec 4.5): a
// persisted vector store with exact-duplicate detection, a topic-keyed
// result cache with TTL, a bounded conversation log, and a topic to
// keyword map, all backed by a single on-disk SQLite file (the
// retrieval pack's only embedded-database driver,
// github.com/mattn/go-sqlite3, standing in for the spec's "external
// vector database" / "single serialized file" — unspecified backend).
// Embeddings come from the same LLM adapter capability (spec 4.7) used
// for completions, cosine-normalized and compared with plain Go math,
// grounded on the teacher's internal/clustering cosine-similarity
// approach (trimmed here to the function itself; the teacher's
// connected-components topic clustering has no home once Documents
// flow through the spec's own four-stage pipeline instead of being
// clustered for a newsletter digest).
package memory

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"briefly/internal/logger"
)

// Source tags which pipeline stage produced a StoredItem.
type Source string

const (
	SourceResearch  Source = "research"
	SourceSummary   Source = "summary"
	SourceSynthesis Source = "synthesis"
)

const (
	// DefaultCacheTTL is the spec 4.5 default TTL for a cached FinalReport.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultConversationCap bounds the conversation FIFO (spec 3).
	DefaultConversationCap = 100
	// compressionThreshold triggers automatic cache compaction on insert (spec 4.5).
	compressionThreshold = DefaultConversationCap
	// staleCacheAge is dropped by compress(), per spec 4.5.
	staleCacheAge = 7 * 24 * time.Hour
)

// Embedder is the capability used to embed content and queries; satisfied
// by llm.Adapter.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// Store is the Memory Subsystem: vector store + hash set + result cache +
// conversation log + topic keyword map over one SQLite file.
type Store struct {
	db       *sql.DB
	embedder Embedder

	mu sync.Mutex // serializes writes per spec 5's "individually atomic" requirement
}

// Open creates or attaches to the on-disk store at path and ensures schema.
func Open(path string, embedder Embedder) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", path, err)
	}
	s := &Store{db: db, embedder: embedder}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			title TEXT,
			url TEXT,
			source TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			content_hash TEXT NOT NULL UNIQUE,
			word_count INTEGER,
			embedding BLOB
		)`,
		`CREATE TABLE IF NOT EXISTS report_cache (
			topic_key TEXT PRIMARY KEY,
			report_json TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversation (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			user TEXT,
			assistant TEXT,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS topic_keywords (
			topic TEXT PRIMARY KEY,
			keywords TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("memory: migrate: %w", err)
		}
	}
	return nil
}

// cacheKey normalizes a topic into the cache's lookup key so that
// case/whitespace variants of the same topic share one cache entry.
func cacheKey(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// logf routes internal diagnostics through the shared structured logger.
func logf(op string, err error) {
	if err != nil {
		logger.Warn("memory operation failed", "op", op, "error", err.Error())
	}
}
