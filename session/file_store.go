package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/logging"
)

// DefaultCacheTTL is how long a loaded collection is served without
// touching storage.
const DefaultCacheTTL = 5 * time.Minute

const fileMode = 0o600

// Options configure the FileStore.
type Options struct {
	CacheTTL time.Duration
	Logger   logging.Logger
}

// FileStore is a file-backed core.SessionStore. One mutex serializes every
// load-or-use-cache, mutate, write-full-collection sequence, making each
// mutating operation atomic with respect to the others in this process.
type FileStore struct {
	path   string
	ttl    time.Duration
	logger logging.Logger

	mu        sync.Mutex
	cache     []*core.Session
	cacheTime time.Time
	now       func() time.Time
	// rename is swapped in tests to simulate a crash between the temp-file
	// write and the atomic replace.
	rename func(oldpath, newpath string) error
}

var _ core.SessionStore = (*FileStore)(nil)

// NewFileStore creates a store persisting to path.
func NewFileStore(path string, optFns ...func(o *Options)) *FileStore {
	opts := Options{CacheTTL: DefaultCacheTTL, Logger: logging.NewDefaultLogger()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FileStore{path: path, ttl: opts.CacheTTL, logger: opts.Logger, now: time.Now, rename: os.Rename}
}

// All returns a deep copy of every persisted session.
func (s *FileStore) All() ([]*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	out := make([]*core.Session, len(sessions))
	for i, sess := range sessions {
		out[i] = sess.Clone()
	}
	return out, nil
}

// Get returns a deep copy of the session with the given id, or nil when it
// does not exist. The collection is small and wholly cached, so a linear
// scan is fine.
func (s *FileStore) Get(id string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		if sess.ID == id {
			return sess.Clone(), nil
		}
	}
	return nil, nil
}

// Update replaces the stored session with a matching id, or appends it when
// absent. Calling it twice with the same session leaves exactly one entry.
func (s *FileStore) Update(sess *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadLocked()
	if err != nil {
		return err
	}

	// Mutate a copy, never the cached slice: the cache must only change
	// through writeLocked's post-success refresh, so a failed write leaves
	// reads consistent with the on-disk document.
	updated := make([]*core.Session, len(sessions), len(sessions)+1)
	copy(updated, sessions)

	replaced := false
	for i, existing := range updated {
		if existing.ID == sess.ID {
			updated[i] = sess.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		updated = append(updated, sess.Clone())
	}
	return s.writeLocked(updated)
}

// Delete removes the session with the given id, reporting whether anything
// was removed.
func (s *FileStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadLocked()
	if err != nil {
		return false, err
	}

	kept := make([]*core.Session, 0, len(sessions))
	for _, sess := range sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	if len(kept) == len(sessions) {
		return false, nil
	}
	if err := s.writeLocked(kept); err != nil {
		return false, err
	}
	s.logger.Info("session deleted", "session_id", id)
	return true, nil
}

// Cleanup drops sessions whose Updated timestamp is older than maxAge,
// returning the number removed.
func (s *FileStore) Cleanup(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadLocked()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-maxAge)
	kept := make([]*core.Session, 0, len(sessions))
	for _, sess := range sessions {
		if sess.Updated.After(cutoff) {
			kept = append(kept, sess)
		}
	}
	removed := len(sessions) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.writeLocked(kept); err != nil {
		return 0, err
	}
	s.logger.Info("old sessions cleaned up", "removed", removed)
	return removed, nil
}

// Invalidate clears the cache so the next read hits storage.
func (s *FileStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.cacheTime = time.Time{}
}

// loadLocked returns the current collection, consulting the cache first.
// Caller must hold s.mu.
func (s *FileStore) loadLocked() ([]*core.Session, error) {
	if s.cache != nil && s.now().Sub(s.cacheTime) < s.ttl {
		return s.cache, nil
	}

	sessions, err := s.readFile()
	if err != nil {
		return nil, err
	}
	s.cache = sessions
	s.cacheTime = s.now()
	return sessions, nil
}

// readFile parses the canonical document. A missing file is an empty
// collection; an unparseable one is quarantined under a timestamped backup
// name and likewise treated as empty, so corruption never blocks the
// service.
func (s *FileStore) readFile() ([]*core.Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*core.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions file: %w", err)
	}
	if len(data) == 0 {
		return []*core.Session{}, nil
	}

	var sessions []*core.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		backup := fmt.Sprintf("%s.backup_%s", s.path, s.now().Format("20060102_150405"))
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			s.logger.Error("failed to quarantine corrupt sessions file", "error", renameErr)
		} else {
			s.logger.Warn("corrupt sessions file quarantined", "backup", backup, "error", err)
		}
		return []*core.Session{}, nil
	}
	return sessions, nil
}

// writeLocked serializes the full collection to a temp file in the same
// directory and atomically renames it over the canonical path, then
// refreshes the cache. A crash between the steps leaves the previous
// document intact. Caller must hold s.mu.
func (s *FileStore) writeLocked(sessions []*core.Session) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp sessions file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp sessions file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp sessions file: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp sessions file: %w", err)
	}
	if err := s.rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace sessions file: %w", err)
	}

	s.cache = sessions
	s.cacheTime = s.now()
	s.logger.Debug("sessions written", "count", len(sessions))
	return nil
}
