package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"medo/internal/tester"
)

func TestCORS(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/medo.v1.FlowService/Summarize", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	h.ServeHTTP(rec, req)
	tester.Eq(t, rec.Code, http.StatusNoContent)
	tester.Eq(t, rec.Header().Get("Access-Control-Allow-Origin"), "http://localhost:5173")
	tester.False(t, called, "preflight must not reach the handler")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	tester.Eq(t, rec.Header().Get("Access-Control-Allow-Origin"), "*")
	tester.True(t, called)
}

func TestRecover(t *testing.T) {
	var got any
	h := Recover(func(v any) { got = v })(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	tester.Eq(t, rec.Code, http.StatusInternalServerError)
	tester.Eq(t, got, any("boom"))
}
