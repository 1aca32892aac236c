package llm

import (
	"errors"
	"fmt"
	"sync"

	llmclient "medo/internal/llmClient"
)

// ModelRole names what a client is used for.
type ModelRole string

const (
	ModelRoleText   ModelRole = "text"
	ModelRoleSpeech ModelRole = "speech"
)

var ErrModelNotRegistered = errors.New("llm: no client registered for role")

// Registry maps roles to wrapped clients.
type Registry struct {
	mu      sync.RWMutex
	clients map[ModelRole]llmclient.LLMClient
}

func NewRegistry() *Registry {
	return &Registry{clients: map[ModelRole]llmclient.LLMClient{}}
}

// Register binds a client to role, replacing any previous binding.
func (r *Registry) Register(role ModelRole, c llmclient.LLMClient) error {
	if c == nil {
		return fmt.Errorf("register %s: client is nil", role)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[role] = c
	return nil
}

func (r *Registry) Client(role ModelRole) (llmclient.LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, role)
	}
	return c, nil
}

// Close closes every distinct registered client once.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[llmclient.LLMClient]bool{}
	var errs []error
	for _, c := range r.clients {
		if seen[c] {
			continue
		}
		seen[c] = true
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
