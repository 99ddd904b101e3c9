package seen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// FileStore persists the set as a JSON array of strings.
type FileStore struct {
	mu   sync.RWMutex
	path string
	ids  map[string]struct{}
}

// LoadFile reads path into a new store. A missing or malformed file yields an
// empty store; the condition is logged, never returned.
func LoadFile(path string, logger *zap.Logger) *FileStore {
	s := &FileStore{path: path, ids: map[string]struct{}{}}
	ids, err := readIDs(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("seen-set file not found, starting empty", zap.String("path", path))
	case err != nil:
		logger.Warn("seen-set file unreadable, starting empty", zap.String("path", path), zap.Error(err))
	default:
		for _, id := range ids {
			s.ids[id] = struct{}{}
		}
		logger.Info("seen-set loaded", zap.String("path", path), zap.Int("ids", len(s.ids)))
	}
	return s
}

func readIDs(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ids, nil
}

func (s *FileStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *FileStore) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
	return s.writeLocked()
}

func (s *FileStore) Close() error { return nil }

// writeLocked rewrites the whole file through a temp file so a crash mid-write
// never truncates prior history.
func (s *FileStore) writeLocked() error {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	b, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal seen-set: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write seen-set: %w", err)
	}
	tmpName := tmp.Name()
	_ = tmp.Chmod(0o644)
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write seen-set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write seen-set: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write seen-set: %w", err)
	}
	return nil
}
