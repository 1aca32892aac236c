package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "medo:session"

// RedisStore keeps each document as a JSON string and indexes ids per user
// and collection in a sorted set scored by update time.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// OpenRedis parses a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisStore(rdb), nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func indexKey(userID string, c Collection) string {
	return fmt.Sprintf("%s:%s:%s", redisPrefix, strings.TrimSpace(userID), c)
}

func documentKey(userID string, c Collection, id string) string {
	return indexKey(userID, c) + ":" + strings.TrimSpace(id)
}

func (s *RedisStore) load(ctx context.Context, key string) (*Document, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}
	return &doc, nil
}

func (s *RedisStore) Save(ctx context.Context, doc Document) (Document, error) {
	if s == nil || s.rdb == nil {
		return Document{}, fmt.Errorf("store is nil")
	}
	var prev *Document
	if strings.TrimSpace(doc.ID) != "" && checkKey(doc.UserID, doc.Collection) == nil {
		old, err := s.load(ctx, documentKey(doc.UserID, doc.Collection, doc.ID))
		if err != nil {
			return Document{}, fmt.Errorf("save session: %w", err)
		}
		prev = old
	}
	doc, err := prepare(doc, prev)
	if err != nil {
		return Document{}, err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return Document{}, err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, documentKey(doc.UserID, doc.Collection, doc.ID), b, 0)
		p.ZAdd(ctx, indexKey(doc.UserID, doc.Collection), redis.Z{
			Score:  float64(doc.UpdatedAt.UnixMilli()),
			Member: doc.ID,
		})
		return nil
	})
	if err != nil {
		return Document{}, fmt.Errorf("save session: %w", err)
	}
	return doc, nil
}

func (s *RedisStore) Get(ctx context.Context, userID string, c Collection, id string) (Document, error) {
	if s == nil || s.rdb == nil {
		return Document{}, fmt.Errorf("store is nil")
	}
	if err := checkID(userID, c, id); err != nil {
		return Document{}, err
	}
	doc, err := s.load(ctx, documentKey(userID, c, id))
	if err != nil {
		return Document{}, fmt.Errorf("get session: %w", err)
	}
	if doc == nil {
		return Document{}, ErrNotFound
	}
	return *doc, nil
}

func (s *RedisStore) List(ctx context.Context, userID string, c Collection) ([]Document, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := checkKey(userID, c); err != nil {
		return nil, err
	}
	ids, err := s.rdb.ZRevRange(ctx, indexKey(userID, c), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		return []Document{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = documentKey(userID, c, id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]Document, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// index entry without a document; skipped until the next delete
			continue
		}
		var doc Document
		if err := json.Unmarshal([]byte(str), &doc); err != nil {
			continue
		}
		out = append(out, doc)
	}
	sortRecent(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string, c Collection, id string) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("store is nil")
	}
	if err := checkID(userID, c, id); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, documentKey(userID, c, id))
		p.ZRem(ctx, indexKey(userID, c), strings.TrimSpace(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}
