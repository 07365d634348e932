package blobstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
)

const createBlobsTable = `
CREATE TABLE IF NOT EXISTS cache_blobs (
	key TEXT PRIMARY KEY,
	version TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	tenant_id TEXT NOT NULL,
	data BLOB NOT NULL
)`

// SQLiteStore keeps cache blobs in a local SQLite file. A corrupt or
// unavailable store degrades to cache misses rather than failing sync.
type SQLiteStore struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the blob database at path.
func NewSQLiteStore(path string, logger *logging.ChanneledLogger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}

	if _, err := db.Exec(createBlobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache store schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Get loads one blob. Any failure, including undecodable stored data, is
// reported as a miss.
func (s *SQLiteStore) Get(key string) (Blob, bool) {
	start := time.Now()

	var blob Blob
	var data []byte
	row := s.db.QueryRow(`SELECT version, timestamp, tenant_id, data FROM cache_blobs WHERE key = ?`, key)
	if err := row.Scan(&blob.Version, &blob.Timestamp, &blob.TenantID, &data); err != nil {
		if err != sql.ErrNoRows {
			s.logger.Cache().Debug("Blob read failed, treating as miss", "key", key, "error", err.Error())
		}
		return Blob{}, false
	}

	if !json.Valid(data) {
		s.logger.Cache().Debug("Blob data is not valid JSON, treating as miss", "key", key)
		return Blob{}, false
	}
	blob.Data = json.RawMessage(data)

	s.logger.LogCacheOperation("get", key, true, time.Since(start), blob.TenantID)
	return blob, true
}

// Set writes or replaces one blob.
func (s *SQLiteStore) Set(key string, blob Blob) error {
	start := time.Now()

	_, err := s.db.Exec(
		`INSERT INTO cache_blobs (key, version, timestamp, tenant_id, data)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			version = excluded.version,
			timestamp = excluded.timestamp,
			tenant_id = excluded.tenant_id,
			data = excluded.data`,
		key, blob.Version, blob.Timestamp, blob.TenantID, []byte(blob.Data),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache blob %s: %w", key, err)
	}

	s.logger.Cache().Debug("Blob written", "key", key, "bytes", len(blob.Data), "duration", time.Since(start))
	return nil
}

// Remove deletes one blob. Removing an absent key is not an error.
func (s *SQLiteStore) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM cache_blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove cache blob %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
