// Package contextstore maintains a persistent, per-working-directory
// log of LLM interactions. The on-disk state is a single JSON file
// swapped atomically on every update so readers never observe a
// partial write (spec.md §3, §5, §7).
package contextstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Daxiongmao87/termaite-go/internal/logging"
	"github.com/Daxiongmao87/termaite-go/internal/shared/filestore"
	"github.com/Daxiongmao87/termaite-go/internal/shared/jsonx"
)

// EntryType distinguishes a successfully parsed LLM reply from a raw
// error string.
type EntryType string

const (
	EntrySuccess EntryType = "success"
	EntryError   EntryType = "error"
)

// Entry is one recorded LLM round-trip.
type Entry struct {
	Type      EntryType `json:"type"`
	Prompt    string    `json:"prompt"`
	Response  any       `json:"response,omitempty"`
	RawText   string    `json:"raw_text,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// document is the on-disk shape: bucket key (sha256 hex of the cwd) to
// an ordered list of entries.
type document map[string][]Entry

// Store appends entries to a JSON file, one bucket per working
// directory.
type Store struct {
	path   string
	mu     sync.Mutex
	logger logging.Logger
	nowFn  func() time.Time
}

// Option customizes a Store at construction.
type Option func(*Store)

// WithClock overrides the time source (tests only).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.nowFn = fn }
}

// New returns a Store backed by the JSON file at path.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: logging.NewComponentLogger("contextstore"),
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BucketKey returns the SHA-256 hex digest of the absolute working
// directory, used as the bucket key.
func BucketKey(cwd string) string {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		abs = cwd
	}
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:])
}

// Append records one LLM interaction under the bucket for cwd.
// rawLLMText is parsed as JSON: success yields a "success" entry
// carrying the parsed object, failure yields an "error" entry carrying
// the raw text verbatim.
func (s *Store) Append(cwd, userPrompt, rawLLMText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	entry := Entry{
		Prompt:    userPrompt,
		Timestamp: s.nowFn().UTC().Format(time.RFC3339),
	}

	var parsed any
	if jsonx.Unmarshal([]byte(rawLLMText), &parsed) == nil {
		entry.Type = EntrySuccess
		entry.Response = parsed
	} else {
		entry.Type = EntryError
		entry.RawText = rawLLMText
	}

	key := BucketKey(cwd)
	doc[key] = append(doc[key], entry)

	return s.save(doc)
}

// load reads the existing document, backing up and reinitializing on
// corruption rather than failing the caller.
func (s *Store) load() (document, error) {
	data, err := filestore.ReadFileOrEmpty(s.path)
	if err != nil {
		return nil, fmt.Errorf("read context store: %w", err)
	}
	if len(data) == 0 {
		return document{}, nil
	}

	var doc document
	if err := jsonx.Unmarshal(data, &doc); err != nil {
		s.backupCorrupt(data)
		return document{}, nil
	}
	if doc == nil {
		doc = document{}
	}
	return doc, nil
}

func (s *Store) backupCorrupt(data []byte) {
	backupPath := fmt.Sprintf("%s.corrupt-%s", s.path, s.nowFn().UTC().Format("20060102T150405Z"))
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		s.logger.Warn("failed to back up corrupt context store: %v", err)
		return
	}
	s.logger.Warn("context store was corrupt; backed up to %s and reinitialized", backupPath)
}

func (s *Store) save(doc document) error {
	data, err := jsonx.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode context store: %w", err)
	}
	return filestore.AtomicWrite(s.path, data, 0o644)
}

// Bucket returns a copy of the entries recorded for cwd, for display
// or testing.
func (s *Store) Bucket(cwd string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc[BucketKey(cwd)], nil
}
