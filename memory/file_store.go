package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/logging"
)

const fileMode = 0o600

// ErrNotFound is returned by Patch when no memory carries the given id.
var ErrNotFound = errors.New("memory not found")

// Options configure the FileStore.
type Options struct {
	Logger logging.Logger
}

// FileStore is a file-backed core.MemoryStore.
type FileStore struct {
	path   string
	logger logging.Logger

	mu  sync.Mutex
	now func() time.Time
}

var _ core.MemoryStore = (*FileStore)(nil)

// NewFileStore creates a store persisting to path.
func NewFileStore(path string, optFns ...func(o *Options)) *FileStore {
	opts := Options{Logger: logging.NewDefaultLogger()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FileStore{path: path, logger: opts.Logger, now: time.Now}
}

// All returns every memory, most recently updated first.
func (s *FileStore) All() ([]core.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memories, err := s.readFile()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].Updated.After(memories[j].Updated)
	})
	return memories, nil
}

// ByCategory returns the memories in a category, most recently updated
// first.
func (s *FileStore) ByCategory(category string) ([]core.Memory, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	out := make([]core.Memory, 0, len(all))
	for _, m := range all {
		if m.Category == category {
			out = append(out, m)
		}
	}
	return out, nil
}

// Get returns a memory by id, reporting whether it exists.
func (s *FileStore) Get(id string) (core.Memory, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memories, err := s.readFile()
	if err != nil {
		return core.Memory{}, false, err
	}
	for _, m := range memories {
		if m.ID == id {
			return m, true, nil
		}
	}
	return core.Memory{}, false, nil
}

// Create appends a new memory, assigning id and timestamps and clamping
// importance into the valid range.
func (s *FileStore) Create(m core.Memory) (core.Memory, error) {
	if m.Content == "" {
		return core.Memory{}, core.NewValidationError("content", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	memories, err := s.readFile()
	if err != nil {
		return core.Memory{}, err
	}

	now := s.now().UTC()
	m.ID = core.NewID()
	m.Importance = core.ClampImportance(m.Importance)
	m.Created = now
	m.Updated = now
	if m.Title == "" {
		m.Title = core.TitleFromText(m.Content)
	}

	memories = append(memories, m)
	if err := s.writeLocked(memories); err != nil {
		return core.Memory{}, err
	}
	s.logger.Info("memory created", "memory_id", m.ID, "importance", m.Importance)
	return m, nil
}

// Patch applies a partial update and refreshes Updated. Unset patch fields
// leave the stored values alone.
func (s *FileStore) Patch(id string, p core.MemoryPatch) (core.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memories, err := s.readFile()
	if err != nil {
		return core.Memory{}, err
	}

	for i := range memories {
		if memories[i].ID != id {
			continue
		}
		m := &memories[i]
		if p.Title != nil {
			m.Title = *p.Title
		}
		if p.Content != nil {
			m.Content = *p.Content
		}
		if p.Category != nil {
			m.Category = *p.Category
		}
		if p.Tags != nil {
			m.Tags = *p.Tags
		}
		if p.Importance != nil {
			m.Importance = core.ClampImportance(*p.Importance)
		}
		m.Updated = s.now().UTC()
		if err := s.writeLocked(memories); err != nil {
			return core.Memory{}, err
		}
		return *m, nil
	}
	return core.Memory{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes a memory by id, reporting whether anything was removed.
func (s *FileStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memories, err := s.readFile()
	if err != nil {
		return false, err
	}

	kept := memories[:0]
	for _, m := range memories {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(memories) {
		return false, nil
	}
	if err := s.writeLocked(kept); err != nil {
		return false, err
	}
	s.logger.Info("memory deleted", "memory_id", id)
	return true, nil
}

// readFile parses the canonical document, treating a missing or corrupt file
// as an empty collection. Corruption is quarantined under a timestamped
// backup name, mirroring the session store.
func (s *FileStore) readFile() ([]core.Memory, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []core.Memory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read memories file: %w", err)
	}
	if len(data) == 0 {
		return []core.Memory{}, nil
	}

	var memories []core.Memory
	if err := json.Unmarshal(data, &memories); err != nil {
		backup := fmt.Sprintf("%s.backup_%s", s.path, s.now().Format("20060102_150405"))
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			s.logger.Error("failed to quarantine corrupt memories file", "error", renameErr)
		} else {
			s.logger.Warn("corrupt memories file quarantined", "backup", backup, "error", err)
		}
		return []core.Memory{}, nil
	}
	return memories, nil
}

// writeLocked atomically replaces the canonical document. Caller must hold
// s.mu.
func (s *FileStore) writeLocked(memories []core.Memory) error {
	data, err := json.MarshalIndent(memories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal memories: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp memories file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp memories file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp memories file: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp memories file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace memories file: %w", err)
	}
	return nil
}
