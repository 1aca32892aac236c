package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medo/internal/prompt"
)

// GroqClient calls the Groq Chat Completions API (OpenAI-compatible).
// It carries text only and has no schema-constrained mode.
// See: https://console.groq.com/docs/api-reference
type GroqClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
}

func NewGroqClient(apiKey, model string) (*GroqClient, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("groq: model is required")
	}
	return &GroqClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.groq.com/openai/v1/chat/completions",
	}, nil
}

func (g *GroqClient) Name() string { return "Groq:" + g.model }
func (g *GroqClient) Close() error { return nil }

func (g *GroqClient) Capabilities() Capabilities { return Capabilities{} }

type groqChatReq struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
}
type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type groqChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func groqMessages(p prompt.Prompt) []groqMessage {
	msgs := make([]groqMessage, 0, len(p.History)+2)
	if p.System != "" {
		msgs = append(msgs, groqMessage{Role: "system", Content: p.System})
	}
	for _, t := range p.History {
		role := "user"
		if t.Role == prompt.RoleModel {
			role = "assistant"
		}
		msgs = append(msgs, groqMessage{Role: role, Content: t.Text})
	}
	return append(msgs, groqMessage{Role: "user", Content: strings.Join(p.Texts(), "\n\n")})
}

// Generate sends system, history and the joined text segments as chat
// messages. Media, schema and audio requests are rejected.
func (g *GroqClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("groq: nil request")
	}
	if _, ok := req.Prompt.Media(); ok {
		return nil, NewPermanentError(fmt.Errorf("%w: groq has no inline media input", ErrUnsupported))
	}
	if req.Schema != nil || req.Modality == ModalityAudio {
		return nil, NewPermanentError(fmt.Errorf("%w: groq has no structured or audio output", ErrUnsupported))
	}

	b, err := json.Marshal(groqChatReq{Model: g.model, Messages: groqMessages(req.Prompt), Temperature: req.Temperature})
	if err != nil {
		return nil, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		hreq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.http.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("groq: unexpected status %s: %s", resp.Status, string(body))
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(string(body), `"code":"context_length_exceeded"`) {
			return nil, NewPermanentError(err)
		}
		return nil, err
	}
	var out groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("groq: decode response: %w", err)
	}
	text := ""
	if len(out.Choices) > 0 {
		text = out.Choices[0].Message.Content
	}
	return &Response{Model: g.model, Text: text}, nil
}
