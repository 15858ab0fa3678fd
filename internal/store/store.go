// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists completed research results in a SQLite cache
// keyed by the result's cache key. The pipeline never reads or writes
// this store itself; memoization is the host's concern, and the CLI is
// the host here.
//
// See docs/ARCHITECTURE.md § Result Cache.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/learning-engine/pkg/types"
)

const dbFile = "results.db"

// ErrNotFound reports a cache miss.
var ErrNotFound = errors.New("result not found")

// Store manages the result cache database.
type Store struct {
	db *sql.DB
}

// Entry summarizes one cached result for listings.
type Entry struct {
	CacheKey   string
	Topic      string
	Confidence float64
	CreatedAt  time.Time
}

// Open opens or creates the cache database at dir/results.db, creating
// the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS results (
		cache_key  TEXT PRIMARY KEY,
		topic      TEXT NOT NULL,
		confidence REAL NOT NULL,
		payload    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Put stores a result under its cache key, replacing any earlier run.
func (s *Store) Put(result *types.TopicResearchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO results (cache_key, topic, confidence, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		result.CacheKey, result.Topic, result.Metadata.ConfidenceScore,
		string(payload), result.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing result %s: %w", result.CacheKey, err)
	}
	return nil
}

// Get returns the cached result for a key, or ErrNotFound.
func (s *Store) Get(cacheKey string) (*types.TopicResearchResult, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM results WHERE cache_key = ?`, cacheKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cacheKey)
	}
	if err != nil {
		return nil, fmt.Errorf("loading result %s: %w", cacheKey, err)
	}

	var result types.TopicResearchResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("parsing cached result %s: %w", cacheKey, err)
	}
	return &result, nil
}

// List returns cache entries, newest first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT cache_key, topic, confidence, created_at FROM results ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.CacheKey, &e.Topic, &e.Confidence, &created); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, created); parseErr == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes one cached result. Deleting a missing key is not an
// error.
func (s *Store) Delete(cacheKey string) error {
	if _, err := s.db.Exec(`DELETE FROM results WHERE cache_key = ?`, cacheKey); err != nil {
		return fmt.Errorf("deleting result %s: %w", cacheKey, err)
	}
	return nil
}

// Clear removes all cached results and returns how many were deleted.
func (s *Store) Clear() (int, error) {
	res, err := s.db.Exec(`DELETE FROM results`)
	if err != nil {
		return 0, fmt.Errorf("clearing results: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
