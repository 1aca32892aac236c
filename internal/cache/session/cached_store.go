// Package session fronts a session store with bounded LRU caches for
// document reads and per-collection listings.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	sessionrepo "medo/internal/gateway/repository/session"
)

type Store = sessionrepo.Store

type CacheConfig struct {
	DocTTL        time.Duration
	DocMaxEntries int

	ListTTL        time.Duration
	ListMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DocTTL:         5 * time.Minute,
		DocMaxEntries:  1024,
		ListTTL:        30 * time.Second,
		ListMaxEntries: 256,
	}
}

type MetricsSnapshot struct {
	DocHits      uint64
	DocMisses    uint64
	ListHits     uint64
	ListMisses   uint64
	OriginReads  uint64
	OriginWrites uint64
}

type CachedStore struct {
	origin Store

	docs  *expirable.LRU[string, sessionrepo.Document]
	lists *expirable.LRU[string, []sessionrepo.Document]

	// gen counts writes; a read only fills the cache if no write landed
	// while it was at the origin.
	mu  sync.Mutex
	gen uint64

	docHits, docMisses     atomic.Uint64
	listHits, listMisses   atomic.Uint64
	originReads, originWrt atomic.Uint64
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.DocTTL <= 0 {
		cfg.DocTTL = def.DocTTL
	}
	if cfg.DocMaxEntries <= 0 {
		cfg.DocMaxEntries = def.DocMaxEntries
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}
	return &CachedStore{
		origin: origin,
		docs:   expirable.NewLRU[string, sessionrepo.Document](cfg.DocMaxEntries, nil, cfg.DocTTL),
		lists:  expirable.NewLRU[string, []sessionrepo.Document](cfg.ListMaxEntries, nil, cfg.ListTTL),
	}
}

func docKey(userID string, c sessionrepo.Collection, id string) string {
	return listKey(userID, c) + "/" + strings.TrimSpace(id)
}

func listKey(userID string, c sessionrepo.Collection) string {
	return strings.TrimSpace(userID) + "/" + string(c)
}

func (s *CachedStore) Save(ctx context.Context, doc sessionrepo.Document) (sessionrepo.Document, error) {
	s.originWrt.Add(1)
	saved, err := s.origin.Save(ctx, doc)
	if err != nil {
		return sessionrepo.Document{}, err
	}
	s.invalidate(func() {
		s.docs.Add(docKey(saved.UserID, saved.Collection, saved.ID), copyDoc(saved))
		s.lists.Remove(listKey(saved.UserID, saved.Collection))
	})
	return saved, nil
}

func (s *CachedStore) Get(ctx context.Context, userID string, c sessionrepo.Collection, id string) (sessionrepo.Document, error) {
	key := docKey(userID, c, id)
	if doc, ok := s.docs.Get(key); ok {
		s.docHits.Add(1)
		return copyDoc(doc), nil
	}
	s.docMisses.Add(1)
	s.originReads.Add(1)
	gen := s.generation()
	doc, err := s.origin.Get(ctx, userID, c, id)
	if err != nil {
		return sessionrepo.Document{}, err
	}
	s.fill(gen, func() { s.docs.Add(key, copyDoc(doc)) })
	return doc, nil
}

func (s *CachedStore) List(ctx context.Context, userID string, c sessionrepo.Collection) ([]sessionrepo.Document, error) {
	key := listKey(userID, c)
	if docs, ok := s.lists.Get(key); ok {
		s.listHits.Add(1)
		return copyDocs(docs), nil
	}
	s.listMisses.Add(1)
	s.originReads.Add(1)
	gen := s.generation()
	docs, err := s.origin.List(ctx, userID, c)
	if err != nil {
		return nil, err
	}
	s.fill(gen, func() { s.lists.Add(key, copyDocs(docs)) })
	return docs, nil
}

func (s *CachedStore) Delete(ctx context.Context, userID string, c sessionrepo.Collection, id string) error {
	s.originWrt.Add(1)
	evict := func() {
		s.docs.Remove(docKey(userID, c, id))
		s.lists.Remove(listKey(userID, c))
	}
	// evicted even when the origin delete fails
	s.invalidate(evict)
	err := s.origin.Delete(ctx, userID, c, id)
	s.invalidate(evict)
	return err
}

func (s *CachedStore) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *CachedStore) invalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	fn()
}

func (s *CachedStore) fill(gen uint64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		fn()
	}
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		DocHits:      s.docHits.Load(),
		DocMisses:    s.docMisses.Load(),
		ListHits:     s.listHits.Load(),
		ListMisses:   s.listMisses.Load(),
		OriginReads:  s.originReads.Load(),
		OriginWrites: s.originWrt.Load(),
	}
}

func copyDoc(doc sessionrepo.Document) sessionrepo.Document {
	doc.Data = append([]byte(nil), doc.Data...)
	return doc
}

func copyDocs(docs []sessionrepo.Document) []sessionrepo.Document {
	out := make([]sessionrepo.Document, len(docs))
	for i, d := range docs {
		out[i] = copyDoc(d)
	}
	return out
}
