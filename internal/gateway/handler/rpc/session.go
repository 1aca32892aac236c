package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"medo/internal/gateway/repository/session"
)

const SessionServiceName = "medo.v1.SessionService"

const (
	ProcSessionSave   = "/" + SessionServiceName + "/Save"
	ProcSessionGet    = "/" + SessionServiceName + "/Get"
	ProcSessionList   = "/" + SessionServiceName + "/List"
	ProcSessionDelete = "/" + SessionServiceName + "/Delete"
)

type SessionRef struct {
	UserID     string             `json:"userId"`
	Collection session.Collection `json:"collection"`
	ID         string             `json:"id,omitempty"`
}

type SaveSessionRequest struct {
	Document session.Document `json:"document"`
}

type SessionResponse struct {
	Document session.Document `json:"document"`
}

type ListSessionsResponse struct {
	Documents []session.Document `json:"documents"`
}

type DeleteSessionResponse struct {
	Deleted bool `json:"deleted"`
}

// SessionHandler exposes the session store over connect.
type SessionHandler struct {
	store session.Store
}

func NewSessionHandler(store session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

func (h *SessionHandler) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux.Handle(unary(ProcSessionSave, h.save, opts...))
	mux.Handle(unary(ProcSessionGet, h.get, opts...))
	mux.Handle(unary(ProcSessionList, h.list, opts...))
	mux.Handle(unary(ProcSessionDelete, h.delete, opts...))
}

func (h *SessionHandler) save(ctx context.Context, r SaveSessionRequest) (*SessionResponse, error) {
	doc, err := h.store.Save(ctx, r.Document)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{Document: doc}, nil
}

func (h *SessionHandler) get(ctx context.Context, r SessionRef) (*SessionResponse, error) {
	doc, err := h.store.Get(ctx, r.UserID, r.Collection, r.ID)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{Document: doc}, nil
}

func (h *SessionHandler) list(ctx context.Context, r SessionRef) (*ListSessionsResponse, error) {
	docs, err := h.store.List(ctx, r.UserID, r.Collection)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []session.Document{}
	}
	return &ListSessionsResponse{Documents: docs}, nil
}

func (h *SessionHandler) delete(ctx context.Context, r SessionRef) (*DeleteSessionResponse, error) {
	if err := h.store.Delete(ctx, r.UserID, r.Collection, r.ID); err != nil {
		return nil, err
	}
	return &DeleteSessionResponse{Deleted: true}, nil
}
