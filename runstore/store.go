// Package runstore persists run history in a SQLite database: which
// program ran, with what inputs, and what it produced.
package runstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	image_hash TEXT    NOT NULL,
	name       TEXT    NOT NULL DEFAULT '',
	inputs     BLOB,
	outputs    BLOB,
	status     TEXT    NOT NULL,
	started_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_image_hash ON runs(image_hash);
`

// Run is one recorded execution.
type Run struct {
	ID        int64
	ImageHash string
	Name      string
	Inputs    []int64
	Outputs   []int64
	Status    string
	StartedAt time.Time
}

// Store records and queries run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runstore: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("runstore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one run and returns its row id.
func (s *Store) Record(r *Run) (int64, error) {
	inputs, err := cbor.Marshal(r.Inputs)
	if err != nil {
		return 0, fmt.Errorf("runstore: encode inputs: %w", err)
	}
	outputs, err := cbor.Marshal(r.Outputs)
	if err != nil {
		return 0, fmt.Errorf("runstore: encode outputs: %w", err)
	}

	started := r.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	res, err := s.db.Exec(
		`INSERT INTO runs (image_hash, name, inputs, outputs, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ImageHash, r.Name, inputs, outputs, r.Status, started.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("runstore: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("runstore: last insert id: %w", err)
	}
	return id, nil
}

// RunsFor returns all recorded runs of the program with the given image
// hash, newest first.
func (s *Store) RunsFor(imageHash string) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, image_hash, name, inputs, outputs, status, started_at
		 FROM runs WHERE image_hash = ? ORDER BY id DESC`,
		imageHash,
	)
	if err != nil {
		return nil, fmt.Errorf("runstore: query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runstore: iterate runs: %w", err)
	}
	return runs, nil
}

// Recent returns the most recent runs across all programs, newest first.
func (s *Store) Recent(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, image_hash, name, inputs, outputs, status, started_at
		 FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("runstore: query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runstore: iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var (
		r       Run
		inputs  []byte
		outputs []byte
		started int64
	)
	if err := rows.Scan(&r.ID, &r.ImageHash, &r.Name, &inputs, &outputs, &r.Status, &started); err != nil {
		return nil, fmt.Errorf("runstore: scan run: %w", err)
	}
	if len(inputs) > 0 {
		if err := cbor.Unmarshal(inputs, &r.Inputs); err != nil {
			return nil, fmt.Errorf("runstore: decode inputs: %w", err)
		}
	}
	if len(outputs) > 0 {
		if err := cbor.Unmarshal(outputs, &r.Outputs); err != nil {
			return nil, fmt.Errorf("runstore: decode outputs: %w", err)
		}
	}
	r.StartedAt = time.Unix(started, 0)
	return &r, nil
}

// HashImage computes the SHA-256 of a program image, over its words in
// big-endian order, and returns it hex-encoded. Equal images always hash
// equal, so the hash identifies a program across runs.
func HashImage(image []int64) string {
	buf := make([]byte, 8*len(image))
	for i, word := range image {
		binary.BigEndian.PutUint64(buf[8*i:], uint64(word))
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}
