package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Document),
	}
}

func docKey(userID string, c Collection, id string) string {
	return strings.TrimSpace(userID) + "/" + string(c) + "/" + strings.TrimSpace(id)
}

func (s *MemoryStore) Save(_ context.Context, doc Document) (Document, error) {
	if s == nil {
		return Document{}, fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var prev *Document
	if old, ok := s.data[docKey(doc.UserID, doc.Collection, doc.ID)]; ok {
		prev = &old
	}
	doc, err := prepare(doc, prev)
	if err != nil {
		return Document{}, err
	}
	s.data[docKey(doc.UserID, doc.Collection, doc.ID)] = doc
	return clone(doc), nil
}

func (s *MemoryStore) Get(_ context.Context, userID string, c Collection, id string) (Document, error) {
	if s == nil {
		return Document{}, fmt.Errorf("store is nil")
	}
	if err := checkID(userID, c, id); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.data[docKey(userID, c, id)]
	if !ok {
		return Document{}, ErrNotFound
	}
	return clone(doc), nil
}

func (s *MemoryStore) List(_ context.Context, userID string, c Collection) ([]Document, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := checkKey(userID, c); err != nil {
		return nil, err
	}
	prefix := docKey(userID, c, "")
	s.mu.RLock()
	out := make([]Document, 0, 16)
	for key, doc := range s.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, clone(doc))
		}
	}
	s.mu.RUnlock()
	sortRecent(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string, c Collection, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := checkID(userID, c, id); err != nil {
		return err
	}
	key := docKey(userID, c, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return ErrNotFound
	}
	delete(s.data, key)
	return nil
}
