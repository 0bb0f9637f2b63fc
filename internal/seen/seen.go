/*
Package seen provides the durable idempotency ledger of already-notified
filing identifiers. Once an identifier is recorded it is never re-notified,
even if classification logic changes between runs; reprocessing requires
clearing the file externally.
*/
package seen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Store holds the set of filing identifiers already acted upon. Single-writer,
// single-process model; the mutex only guards against accidental concurrent
// use within the process.
type Store struct {
	path string
	ids  map[string]struct{}
	mu   sync.Mutex
	log  zerolog.Logger
}

// NewStore creates a store persisting to path. Call Load before use.
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{
		path: path,
		ids:  make(map[string]struct{}),
		log:  log.With().Str("component", "seen").Logger(),
	}
}

// Load populates the in-memory set from the durable file. A missing file is
// not an error: the run starts with an empty set.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = make(map[string]struct{})

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Info().Str("path", s.path).Msg("seen file not found, starting empty")
			return nil
		}
		return fmt.Errorf("failed to read seen file %s: %w", s.path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("failed to unmarshal seen file %s: %w", s.path, err)
	}

	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	s.log.Info().Int("count", len(s.ids)).Msg("loaded seen filings")
	return nil
}

// IsNew reports whether the identifier has not been acted upon before.
func (s *Store) IsNew(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return !ok
}

// MarkSeen records an identifier in memory. Insert-only.
func (s *Store) MarkSeen(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

// Persist rewrites the whole set to the durable file, sorted for stable
// diffs. The parent directory is created on demand.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal seen set: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create seen directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write seen file %s: %w", s.path, err)
	}

	s.log.Debug().Int("count", len(ids)).Str("path", s.path).Msg("persisted seen filings")
	return nil
}

// Len returns the current size of the set.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
