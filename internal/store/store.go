// Package store persists the dedup hash set and accepted findings in a local
// SQLite database. Both operations are single atomic statements, so the store
// is safe for concurrent search sessions.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leakwatch/leakwatch/internal/types"
)

const privateDirPerm = 0o700

// Store wraps the findings database. A single connection is shared; SQLite
// serializes writers anyway and this keeps WAL checkpointing predictable.
type Store struct {
	db *sql.DB
}

// Open creates or opens the leakwatch database in dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store dir is required")
	}
	if err := os.MkdirAll(dir, privateDirPerm); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	dbPath := filepath.Join(dir, "leakwatch.db")
	dsn := dbPath + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open findings db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS hashlist (
		hash TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS repository (
		hash TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		rule TEXT NOT NULL,
		keyword TEXT NOT NULL,
		matches TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_repository_rule ON repository(rule);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init findings schema: %w", err)
	}
	return nil
}

// InsertIfAbsent records a content blob hash. It returns true when the hash
// was new; false means the blob was already processed, which is the dedup
// signal, not an error.
func (s *Store) InsertIfAbsent(blobHash string) (bool, error) {
	res, err := s.db.Exec(`INSERT OR IGNORE INTO hashlist(hash) VALUES(?)`, blobHash)
	if err != nil {
		return false, fmt.Errorf("insert blob hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Exists reports whether a blob hash has been recorded.
func (s *Store) Exists(blobHash string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM hashlist WHERE hash = ?`, blobHash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query blob hash: %w", err)
	}
	return true, nil
}

// UpsertFinding stores a finding keyed by its hash. Re-insertion of an
// existing hash is a no-op; the bool reports whether a new row was written.
func (s *Store) UpsertFinding(f types.Finding) (bool, error) {
	matches, err := json.Marshal(f.Matches)
	if err != nil {
		return false, fmt.Errorf("encode finding matches: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO repository(hash, url, rule, keyword, matches, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		f.Hash, f.URL, f.Rule, f.Keyword, string(matches), time.Now().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("upsert finding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RuleCount is one row of the per-rule finding tally used by reports.
type RuleCount struct {
	Rule  string
	Count int
}

// CountByRule returns stored finding counts grouped by rule scope.
func (s *Store) CountByRule() ([]RuleCount, error) {
	rows, err := s.db.Query(`SELECT rule, COUNT(*) FROM repository GROUP BY rule ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("count findings: %w", err)
	}
	defer rows.Close()

	var out []RuleCount
	for rows.Next() {
		var rc RuleCount
		if err := rows.Scan(&rc.Rule, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
