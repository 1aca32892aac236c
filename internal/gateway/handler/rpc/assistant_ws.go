package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"medo/internal/flow"
	"medo/internal/gateway/repository/session"
	"medo/internal/llm"
	"medo/internal/media"
	"medo/internal/prompt"
	"medo/internal/util/jsonutil"
)

const (
	assistantWSWriteWait = 10 * time.Second
	assistantWSPongWait  = 60 * time.Second
	assistantWSPingEvery = (assistantWSPongWait * 9) / 10
	// maxHistoryTurns matches the assistant request limit.
	maxHistoryTurns = 100
	maxPending      = 4
)

var assistantWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type assistantWSInbound struct {
	Type   string           `json:"type"`
	Prompt string           `json:"prompt,omitempty"`
	File   *media.Reference `json:"file,omitempty"`
}

type assistantWSOutbound struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Turns     int    `json:"turns,omitempty"`
	Code      string `json:"code,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message,omitempty"`
}

// chatTranscript is what gets stored in chatSessions.
type chatTranscript struct {
	Turns []prompt.Turn `json:"turns"`
}

// AssistantSocket runs the assistant flow over a websocket, keeping the
// conversation history for the lifetime of the connection.
type AssistantSocket struct {
	svc      *flow.Service
	sessions session.Store
	timeout  time.Duration
	log      *zap.Logger
}

func NewAssistantSocket(svc *flow.Service, sessions session.Store, timeout time.Duration, log *zap.Logger) *AssistantSocket {
	if log == nil {
		log = zap.NewNop()
	}
	return &AssistantSocket{svc: svc, sessions: sessions, timeout: timeout, log: log.Named("ws")}
}

func (h *AssistantSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))

	history, err := h.loadHistory(r.Context(), userID, sessionID)
	if err != nil {
		h.log.Error("load chat session failed", zap.String("user_id", userID), zap.String("session_id", sessionID), zap.Error(err))
		http.Error(w, "could not load chat session", http.StatusInternalServerError)
		return
	}

	conn, err := assistantWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(assistantWSPongWait)); err != nil {
		h.log.Warn("ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(assistantWSPongWait))
	})

	writeCh := make(chan assistantWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(assistantWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(assistantWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(assistantWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Messages are answered one at a time, in order, while the read loop
	// keeps servicing pongs.
	work := make(chan assistantWSInbound, maxPending)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case in := <-work:
				out := h.answer(ctx, userID, sessionID, &history, in)
				pushAssistantWS(ctx, writeCh, out)
			}
		}
	}()

	pushAssistantWS(ctx, writeCh, assistantWSOutbound{Type: "ready", SessionID: sessionID, Turns: len(history)})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			cancel()
			<-workerDone
			<-writerDone
			return
		}
		var in assistantWSInbound
		if err := json.Unmarshal(raw, &in); err != nil {
			pushAssistantWS(ctx, writeCh, assistantWSOutbound{Type: "error", Code: "invalid_argument", Message: "message must be a json object"})
			continue
		}
		h.logInbound(userID, raw)

		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushAssistantWS(ctx, writeCh, assistantWSOutbound{Type: "pong"})
		case "message":
			select {
			case work <- in:
			default:
				pushAssistantWS(ctx, writeCh, assistantWSOutbound{Type: "error", Code: "resource_exhausted", Message: "too many pending messages"})
			}
		case "":
			pushAssistantWS(ctx, writeCh, assistantWSOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		default:
			pushAssistantWS(ctx, writeCh, assistantWSOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + in.Type})
		}
	}
}

// answer runs one assistant turn. history is only touched by the worker
// goroutine.
func (h *AssistantSocket) answer(ctx context.Context, userID, sessionID string, history *[]prompt.Turn, in assistantWSInbound) assistantWSOutbound {
	req := flow.AssistantRequest{Prompt: in.Prompt, File: in.File, History: *history}
	if strings.TrimSpace(req.Prompt) == "" && req.File != nil {
		req.Prompt = flow.DefaultFilePrompt(req.File.Name)
	}

	callCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	res, err := h.svc.Assistant(callCtx, req)
	if err != nil {
		kind, _ := flow.KindOf(err)
		h.log.Warn("assistant turn failed", zap.String("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
		return assistantWSOutbound{Type: "error", Code: wireCode(err), Kind: string(kind), Message: err.Error()}
	}

	*history = appendTurns(*history,
		prompt.Turn{Role: prompt.RoleUser, Text: req.Prompt},
		prompt.Turn{Role: prompt.RoleModel, Text: res.Text},
	)
	if err := h.saveHistory(ctx, userID, sessionID, *history); err != nil {
		h.log.Error("save chat session failed", zap.String("user_id", userID), zap.String("session_id", sessionID), zap.Error(err))
	}
	return assistantWSOutbound{Type: "reply", Text: res.Text, SessionID: sessionID, Turns: len(*history)}
}

func appendTurns(history []prompt.Turn, turns ...prompt.Turn) []prompt.Turn {
	history = append(history, turns...)
	if over := len(history) - maxHistoryTurns; over > 0 {
		history = append([]prompt.Turn(nil), history[over:]...)
	}
	return history
}

func (h *AssistantSocket) loadHistory(ctx context.Context, userID, sessionID string) ([]prompt.Turn, error) {
	if sessionID == "" || h.sessions == nil {
		return nil, nil
	}
	doc, err := h.sessions.Get(ctx, userID, session.Chats, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var t chatTranscript
	if err := json.Unmarshal(doc.Data, &t); err != nil {
		return nil, err
	}
	return appendTurns(nil, t.Turns...), nil
}

func (h *AssistantSocket) saveHistory(ctx context.Context, userID, sessionID string, turns []prompt.Turn) error {
	if sessionID == "" || h.sessions == nil {
		return nil
	}
	data, err := jsonutil.MarshalNoEscape(chatTranscript{Turns: turns})
	if err != nil {
		return err
	}
	name := ""
	if len(turns) > 0 {
		name = preview(turns[0].Text, 40)
	}
	_, err = h.sessions.Save(ctx, session.Document{
		ID:         sessionID,
		UserID:     userID,
		Collection: session.Chats,
		Name:       name,
		Data:       data,
	})
	return err
}

func (h *AssistantSocket) logInbound(userID string, raw []byte) {
	if ce := h.log.Check(zap.DebugLevel, "ws message"); ce != nil {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return
		}
		ce.Write(zap.String("user_id", userID), zap.Any("message", llm.RedactMedia(v)))
	}
}

func pushAssistantWS(ctx context.Context, ch chan<- assistantWSOutbound, out assistantWSOutbound) {
	select {
	case ch <- out:
	case <-ctx.Done():
	}
}
