package server

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"

	"medo/internal/flow"
	"medo/internal/gateway/handler"
	"medo/internal/gateway/handler/rpc"
	"medo/internal/gateway/repository/artifact"
	"medo/internal/gateway/repository/session"
	"medo/internal/llm"
)

func startTestServer(t *testing.T) string {
	t.Helper()
	svc := flow.NewService(llm.NewFakeClient())
	sessions := session.NewMemoryStore()
	mux := NewMux(
		rpc.NewFlowHandler(svc, artifact.NewMemoryStore(), sessions, nil),
		rpc.NewSessionHandler(sessions),
		rpc.NewAssistantSocket(svc, sessions, time.Second, nil),
		handler.HealthHandler{Name: "medo-gateway", Provider: "fake"},
		nil,
	)
	srv := New(":0", mux, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return "http://" + ln.Addr().String()
}

func TestServer_HealthOverHTTP1(t *testing.T) {
	base := startTestServer(t)
	res, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_CleartextHTTP2(t *testing.T) {
	base := startTestServer(t)
	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}}
	res, err := client.Get(base + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ProtoMajor)
	assert.Contains(t, string(body), `"status":"ok"`)
}
