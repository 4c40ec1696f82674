package blobcache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteCache keeps blobs in table 'blobs' of a SQLite database.
type SQLiteCache struct {
	db  *sql.DB
	TTL time.Duration
	now func() time.Time
}

var _ Cache = (*SQLiteCache)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	path       TEXT    NOT NULL,
	commit_id  TEXT    NOT NULL,
	data       BLOB    NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (path, commit_id)
);
CREATE INDEX IF NOT EXISTS blobs_created ON blobs(created_at);
`

// OpenSQLite opens (or creates) a cache database at dbPath.
func OpenSQLite(dbPath string, ttl time.Duration) (*SQLiteCache, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("blob cache: create data dir: %w", err)
		}
	}
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("blob cache: open database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("blob cache: pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("blob cache: create schema: %w", err)
	}
	return &SQLiteCache{db: db, TTL: ttl, now: time.Now}, nil
}

// Close closes the underlying database.
func (sc *SQLiteCache) Close() error {
	return sc.db.Close()
}

func (sc *SQLiteCache) clock() time.Time {
	if sc.now == nil {
		return time.Now()
	}
	return sc.now()
}

// Get selects the blob for k. An expired row counts as a miss.
func (sc *SQLiteCache) Get(k Key) ([]byte, bool, error) {
	var data []byte
	var created int64
	err := sc.db.QueryRow(`SELECT data, created_at FROM blobs WHERE path = ? AND commit_id = ?`,
		k.Path, k.Commit).Scan(&data, &created)
	if err == sql.ErrNoRows {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errCache("get", k, err)
	}
	if expired(time.Unix(created, 0), sc.TTL, sc.clock()) {
		tracer().Debugf("cache entry %s expired", k)
		return nil, false, nil
	}
	tracer().Debugf("cache hit for %s", k)
	return data, true, nil
}

// Put inserts or replaces the blob for k.
func (sc *SQLiteCache) Put(k Key, data []byte) error {
	_, err := sc.db.Exec(`INSERT OR REPLACE INTO blobs (path, commit_id, data, created_at) VALUES (?, ?, ?, ?)`,
		k.Path, k.Commit, data, sc.clock().Unix())
	if err != nil {
		return errCache("put", k, err)
	}
	return nil
}

// Prune deletes expired rows.
func (sc *SQLiteCache) Prune() (int, error) {
	if sc.TTL <= 0 {
		return 0, nil
	}
	limit := sc.clock().Add(-sc.TTL).Unix()
	res, err := sc.db.Exec(`DELETE FROM blobs WHERE created_at < ?`, limit)
	if err != nil {
		return 0, fmt.Errorf("blob cache prune: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		tracer().Infof("pruned %d cache rows", n)
	}
	return int(n), nil
}
