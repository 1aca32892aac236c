// Package session persists per-user documents produced by the flows
// (mind maps, question sets, chat transcripts, speech references).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection groups documents of one kind for a user.
type Collection string

const (
	MindMaps  Collection = "mindMapSessions"
	Questions Collection = "questionSessions"
	Chats     Collection = "chatSessions"
	Speech    Collection = "speechSessions"
)

func Collections() []Collection {
	return []Collection{MindMaps, Questions, Chats, Speech}
}

func (c Collection) Valid() bool {
	switch c {
	case MindMaps, Questions, Chats, Speech:
		return true
	}
	return false
}

// Document is one saved session. Data is the flow output as JSON.
type Document struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Collection Collection      `json:"collection"`
	Name       string          `json:"name,omitempty"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Store defines operations for persisting session documents.
//
// Save creates the document when ID is empty or unknown and replaces it
// otherwise; CreatedAt is kept across replacements. List returns the most
// recently updated documents first.
type Store interface {
	Save(ctx context.Context, doc Document) (Document, error)
	Get(ctx context.Context, userID string, c Collection, id string) (Document, error)
	List(ctx context.Context, userID string, c Collection) ([]Document, error)
	Delete(ctx context.Context, userID string, c Collection, id string) error
}

var (
	ErrNotFound = errors.New("session not found")
	ErrInvalid  = errors.New("invalid session document")
)

// clock is swapped in tests.
var clock = func() time.Time { return time.Now().UTC() }

// prepare validates doc and fills the id and timestamps for a save.
// prev is the stored version, if any.
func prepare(doc Document, prev *Document) (Document, error) {
	doc.UserID = strings.TrimSpace(doc.UserID)
	doc.ID = strings.TrimSpace(doc.ID)
	doc.Name = strings.TrimSpace(doc.Name)
	if err := checkKey(doc.UserID, doc.Collection); err != nil {
		return Document{}, err
	}
	if len(doc.Data) == 0 || !json.Valid(doc.Data) {
		return Document{}, fmt.Errorf("%w: data must be a json value", ErrInvalid)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := clock()
	doc.CreatedAt = now
	if prev != nil && !prev.CreatedAt.IsZero() {
		doc.CreatedAt = prev.CreatedAt
	}
	doc.UpdatedAt = now
	doc.Data = append(json.RawMessage(nil), doc.Data...)
	return doc, nil
}

func checkKey(userID string, c Collection) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalid)
	}
	if !c.Valid() {
		return fmt.Errorf("%w: unknown collection %q", ErrInvalid, c)
	}
	return nil
}

func checkID(userID string, c Collection, id string) error {
	if err := checkKey(userID, c); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	return nil
}

func sortRecent(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].UpdatedAt.Equal(docs[j].UpdatedAt) {
			return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}

func clone(doc Document) Document {
	doc.Data = append(json.RawMessage(nil), doc.Data...)
	return doc
}
