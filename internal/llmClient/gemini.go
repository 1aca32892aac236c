package llmclient

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"medo/internal/media"
	"medo/internal/prompt"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, logging, hooks) are applied via Middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) Capabilities() Capabilities {
	return Capabilities{StructuredOutput: true, Media: true, Audio: true}
}

// Generate sends history plus one user turn built from the prompt segments.
// Instructions travel in SystemInstruction, never inside the user turn.
func (g *GeminiClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("gemini: nil request")
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, geminiContents(req.Prompt), geminiConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", g.model, err)
	}
	return geminiResponse(g.model, req, resp), nil
}

func geminiContents(p prompt.Prompt) []*genai.Content {
	out := make([]*genai.Content, 0, len(p.History)+1)
	for _, t := range p.History {
		out = append(out, genai.NewContentFromText(t.Text, genai.Role(t.Role)))
	}
	parts := make([]*genai.Part, 0, len(p.Segments))
	for _, seg := range p.Segments {
		switch s := seg.(type) {
		case prompt.Text:
			parts = append(parts, genai.NewPartFromText(s.Text))
		case prompt.Media:
			parts = append(parts, genai.NewPartFromBytes(s.Blob.Data, s.Blob.BaseMIME()))
		}
	}
	return append(out, genai.NewContentFromParts(parts, genai.RoleUser))
}

func geminiConfig(req *Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if sys := strings.TrimSpace(req.Prompt.System); sys != "" {
		cfg.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}
	if req.Modality == ModalityAudio {
		cfg.ResponseModalities = []string{string(ModalityAudio)}
		if req.Voice != "" {
			cfg.SpeechConfig = &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: req.Voice},
				},
			}
		}
	}
	return cfg
}

// geminiResponse joins the text parts of the first candidate and picks the
// first inline audio blob. Thought parts are skipped.
func geminiResponse(model string, req *Request, resp *genai.GenerateContentResponse) *Response {
	out := &Response{Model: model, Structured: req.Schema != nil}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 && out.Audio == nil {
			out.Audio = &media.Blob{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}
			continue
		}
		sb.WriteString(part.Text)
	}
	out.Text = sb.String()
	return out
}
