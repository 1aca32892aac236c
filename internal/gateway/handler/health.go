package handler

import (
	"encoding/json"
	"net/http"
)

type HealthHandler struct {
	Name     string
	Provider string
}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":   "ok",
		"service":  h.Name,
		"provider": h.Provider,
	})
}
