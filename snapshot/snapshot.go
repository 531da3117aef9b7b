// Package snapshot persists the current protocol dataset to a durable
// flat file. At most one snapshot exists at a time; absence is a valid
// state meaning the tracker has never run.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/c360studio/oracletrack/protocol"
)

// ErrNoSnapshot indicates that no snapshot has been written yet.
// Callers must treat this differently from a corrupt snapshot: absence
// seeds a first run, corruption aborts it.
var ErrNoSnapshot = errors.New("snapshot not found")

// Version is the snapshot document version this store reads and writes.
const Version = 1

// Document is the persisted snapshot shape. The protocol map is the
// dataset proper; the remaining fields record how it was produced.
type Document struct {
	Version     int              `json:"version"`
	GeneratedAt time.Time        `json:"generated_at"`
	RunID       string           `json:"run_id"`
	Revision    string           `json:"revision,omitempty"`
	Protocols   protocol.Dataset `json:"protocols"`
}

// Store reads and writes the snapshot file at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for the given snapshot file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted snapshot, or ErrNoSnapshot if the file
// does not exist. A file that exists but cannot be decoded into the
// expected shape is a hard error, never treated as absent.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	if doc.Version != Version || doc.Protocols == nil {
		return nil, fmt.Errorf("snapshot %s: unsupported document (version %d)", s.path, doc.Version)
	}

	return &doc, nil
}

// Save atomically replaces the snapshot with the given document. The
// document is written complete and well-formed to a temp file in the
// destination directory, fsynced, then renamed over the target, so a
// crash mid-write cannot corrupt the previous snapshot.
func (s *Store) Save(doc *Document) error {
	doc.Version = Version

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}
