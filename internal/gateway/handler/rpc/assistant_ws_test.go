package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medo/internal/flow"
	"medo/internal/gateway/repository/session"
	llmclient "medo/internal/llmClient"
	"medo/internal/prompt"
)

func echoClient() *llmclient.FakeClient {
	var n atomic.Int32
	return llmclient.NewFakeClient(llmclient.Capabilities{Media: true}, func(_ context.Context, req *llmclient.Request) (*llmclient.Response, error) {
		i := n.Add(1)
		return &llmclient.Response{Model: "fake", Text: fmt.Sprintf("reply %d to %s", i, strings.Join(req.Prompt.Texts(), " "))}, nil
	})
}

func dialAssistant(t *testing.T, h http.Handler, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/assistant?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) assistantWSOutbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out assistantWSOutbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestAssistantSocket_RoundTripKeepsHistory(t *testing.T) {
	fake := echoClient()
	store := session.NewMemoryStore()
	sock := NewAssistantSocket(flow.NewService(fake), store, time.Second, nil)
	conn := dialAssistant(t, sock, "user_id=u1&session_id=chat-1")

	ready := readFrame(t, conn)
	assert.Equal(t, "ready", ready.Type)
	assert.Equal(t, 0, ready.Turns)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "prompt": "ما هي الخلية؟"}))
	first := readFrame(t, conn)
	require.Equal(t, "reply", first.Type, first.Message)
	assert.Equal(t, "reply 1 to ما هي الخلية؟", first.Text)
	assert.Equal(t, 2, first.Turns)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "prompt": "والنواة؟"}))
	second := readFrame(t, conn)
	require.Equal(t, "reply", second.Type, second.Message)
	assert.Equal(t, 4, second.Turns)

	req, ok := fake.LastRequest()
	require.True(t, ok)
	assert.Equal(t, []prompt.Turn{
		{Role: prompt.RoleUser, Text: "ما هي الخلية؟"},
		{Role: prompt.RoleModel, Text: "reply 1 to ما هي الخلية؟"},
	}, req.Prompt.History)

	doc, err := store.Get(context.Background(), "u1", session.Chats, "chat-1")
	require.NoError(t, err)
	var tr chatTranscript
	require.NoError(t, json.Unmarshal(doc.Data, &tr))
	assert.Len(t, tr.Turns, 4)
}

func TestAssistantSocket_ResumesSavedSession(t *testing.T) {
	store := session.NewMemoryStore()
	data, err := json.Marshal(chatTranscript{Turns: []prompt.Turn{
		{Role: prompt.RoleUser, Text: "مرحبا"},
		{Role: prompt.RoleModel, Text: "أهلا"},
	}})
	require.NoError(t, err)
	_, err = store.Save(context.Background(), session.Document{ID: "chat-9", UserID: "u1", Collection: session.Chats, Data: data})
	require.NoError(t, err)

	sock := NewAssistantSocket(flow.NewService(echoClient()), store, time.Second, nil)
	conn := dialAssistant(t, sock, "user_id=u1&session_id=chat-9")
	ready := readFrame(t, conn)
	assert.Equal(t, 2, ready.Turns)
}

func TestAssistantSocket_Errors(t *testing.T) {
	fake := echoClient()
	sock := NewAssistantSocket(flow.NewService(fake), nil, time.Second, nil)
	conn := dialAssistant(t, sock, "user_id=u1")
	_ = readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "prompt": "   "}))
	bad := readFrame(t, conn)
	assert.Equal(t, "error", bad.Type)
	assert.Equal(t, "invalid_argument", bad.Code)
	assert.Equal(t, string(flow.KindInvalidInput), bad.Kind)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	assert.Equal(t, "invalid_argument", readFrame(t, conn).Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "error", readFrame(t, conn).Type)

	assert.Equal(t, 0, fake.Calls())
}

func TestAssistantSocket_RequiresUser(t *testing.T) {
	sock := NewAssistantSocket(flow.NewService(echoClient()), nil, time.Second, nil)
	rec := httptest.NewRecorder()
	sock.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/assistant", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppendTurns_CapsHistory(t *testing.T) {
	var h []prompt.Turn
	for i := 0; i < 60; i++ {
		h = appendTurns(h, prompt.Turn{Role: prompt.RoleUser, Text: fmt.Sprint("q", i)}, prompt.Turn{Role: prompt.RoleModel, Text: fmt.Sprint("a", i)})
	}
	require.Len(t, h, maxHistoryTurns)
	assert.Equal(t, "q10", h[0].Text)
}
