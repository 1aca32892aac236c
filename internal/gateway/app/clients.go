package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"medo/internal/gateway/config"
	"medo/internal/llm"
	llmclient "medo/internal/llmClient"
)

// NewRegistry builds the text and speech clients for the configured provider
// and wraps each with hooks, logging and the rate limit.
func NewRegistry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*llm.Registry, error) {
	wrap := func(c llmclient.LLMClient) llmclient.LLMClient {
		return llm.Wrap(c,
			llm.WithHooks(),
			llm.WithLogging(log),
			llm.RateLimit(cfg.LLMRPS, cfg.LLMBurst),
		)
	}
	reg := llm.NewRegistry()

	switch cfg.LLMProvider {
	case "gemini":
		text, err := llmclient.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiTextModel)
		if err != nil {
			return nil, fmt.Errorf("gemini text client: %w", err)
		}
		speech, err := llmclient.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiSpeechModel)
		if err != nil {
			return nil, fmt.Errorf("gemini speech client: %w", err)
		}
		_ = reg.Register(llm.ModelRoleText, wrap(text))
		_ = reg.Register(llm.ModelRoleSpeech, wrap(speech))
	case "groq":
		text, err := llmclient.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel)
		if err != nil {
			return nil, fmt.Errorf("groq client: %w", err)
		}
		_ = reg.Register(llm.ModelRoleText, wrap(text))
		// Groq has no speech output; Gemini serves it when a key is present.
		if cfg.GeminiAPIKey != "" {
			speech, err := llmclient.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiSpeechModel)
			if err != nil {
				return nil, fmt.Errorf("gemini speech client: %w", err)
			}
			_ = reg.Register(llm.ModelRoleSpeech, wrap(speech))
		}
	case "fake":
		_ = reg.Register(llm.ModelRoleText, wrap(llm.NewFakeClient()))
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
	return reg, nil
}
