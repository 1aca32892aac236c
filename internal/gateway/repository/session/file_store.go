package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"medo/internal/safeio"
)

// FileStore keeps documents in memory and rewrites a JSON file after every
// mutation. Suitable for a single gateway process.
type FileStore struct {
	mem  *MemoryStore
	path string

	loadOnce sync.Once
	loadErr  error
	writeMu  sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		mem:  NewMemoryStore(),
		path: strings.TrimSpace(path),
	}
}

func (s *FileStore) ensureLoaded() error {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			s.loadErr = fmt.Errorf("read session file: %w", err)
			return
		}
		if len(strings.TrimSpace(string(b))) == 0 {
			return
		}
		var rows []Document
		if err := json.Unmarshal(b, &rows); err != nil {
			s.loadErr = fmt.Errorf("decode session file: %w", err)
			return
		}
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		for _, row := range rows {
			if checkID(row.UserID, row.Collection, row.ID) != nil {
				continue
			}
			s.mem.data[docKey(row.UserID, row.Collection, row.ID)] = row
		}
	})
	return s.loadErr
}

func (s *FileStore) flush() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mem.mu.RLock()
	rows := make([]Document, 0, len(s.mem.data))
	for _, doc := range s.mem.data {
		rows = append(rows, doc)
	}
	s.mem.mu.RUnlock()
	sortRecent(rows)

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return safeio.WriteFileAtomic(s.path, b, 0o644)
}

func (s *FileStore) Save(ctx context.Context, doc Document) (Document, error) {
	if s == nil {
		return Document{}, fmt.Errorf("store is nil")
	}
	if err := s.ensureLoaded(); err != nil {
		return Document{}, err
	}
	saved, err := s.mem.Save(ctx, doc)
	if err != nil {
		return Document{}, err
	}
	if err := s.flush(); err != nil {
		return Document{}, fmt.Errorf("write session file: %w", err)
	}
	return saved, nil
}

func (s *FileStore) Get(ctx context.Context, userID string, c Collection, id string) (Document, error) {
	if s == nil {
		return Document{}, fmt.Errorf("store is nil")
	}
	if err := s.ensureLoaded(); err != nil {
		return Document{}, err
	}
	return s.mem.Get(ctx, userID, c, id)
}

func (s *FileStore) List(ctx context.Context, userID string, c Collection) ([]Document, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return s.mem.List(ctx, userID, c)
}

func (s *FileStore) Delete(ctx context.Context, userID string, c Collection, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	if err := s.mem.Delete(ctx, userID, c, id); err != nil {
		return err
	}
	if err := s.flush(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
