package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medo/internal/tester"
)

func TestHealthHandler(t *testing.T) {
	h := HealthHandler{Name: "medo-gateway", Provider: "fake"}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	tester.Eq(t, rec.Code, http.StatusOK)
	tester.True(t, strings.Contains(rec.Body.String(), `"status":"ok"`), rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	tester.Eq(t, rec.Code, http.StatusMethodNotAllowed)
}
