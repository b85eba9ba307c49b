// Package audit keeps a local, append-only record of tool invocations so
// operators can answer "what ran, when, and how did it end" without scraping
// logs.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketInvocations = []byte("invocations")

// ErrStoreClosed is returned after Close.
var ErrStoreClosed = errors.New("audit store is closed")

// Record is one finished invocation.
type Record struct {
	ID        string        `json:"id"`
	ToolID    string        `json:"toolId"`
	Outcome   string        `json:"outcome"`
	ExitCode  int           `json:"exitCode,omitempty"`
	Duration  time.Duration `json:"durationNs"`
	StartedAt time.Time     `json:"startedAt"`
}

type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	closed bool
}

// Open opens or creates the audit database at path.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("audit path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure audit dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketInvocations)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure audit bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Append stores one record. Keys are timestamp-prefixed so iteration order is
// chronological.
func (s *Store) Append(rec Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	key := fmt.Sprintf("%020d/%s", rec.StartedAt.UnixNano(), rec.ID)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketInvocations).Put([]byte(key), value)
	})
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		return nil, nil
	}
	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketInvocations).Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < limit; k, v = cursor.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %q: %w", k, err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
