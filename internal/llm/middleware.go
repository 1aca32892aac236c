package llm

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	llmclient "medo/internal/llmClient"
	"medo/internal/prompt"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, logging, hooks).
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// passthrough forwards everything but Generate to next.
type passthrough struct{ next llmclient.LLMClient }

func (p passthrough) Name() string                         { return p.next.Name() }
func (p passthrough) Capabilities() llmclient.Capabilities { return p.next.Capabilities() }
func (p passthrough) Close() error                         { return p.next.Close() }

// -------- Rate Limiting --------

// RateLimit limits request rate with a token bucket of the given burst.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &rateLimited{passthrough: passthrough{next}, rl: newLimiter(rps, burst)}
	}
}

type rateLimited struct {
	passthrough
	rl *rate.Limiter
}

func (c *rateLimited) Generate(ctx context.Context, req *llmclient.Request) (*llmclient.Response, error) {
	if err := acquire(ctx, c.rl); err != nil {
		return nil, err
	}
	return c.next.Generate(ctx, req)
}

// -------- Logging & Hooks --------

// WithLogging logs the flow name, request size, latency and errors.
// A nil logger disables output.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{passthrough: passthrough{next}, log: logger.Named("llm")}
	}
}

type logging struct {
	passthrough
	log *zap.Logger
}

func (l *logging) Generate(ctx context.Context, req *llmclient.Request) (*llmclient.Response, error) {
	fields := []zap.Field{
		zap.String("flow", PhaseFrom(ctx)),
		zap.String("client", l.next.Name()),
		zap.Int("request_bytes", RequestSize(req)),
	}
	l.log.Debug("llm request", append(fields, zap.Strings("segments", DescribePrompt(req.Prompt)))...)

	start := time.Now()
	resp, err := l.next.Generate(ctx, req)
	fields = append(fields, zap.Duration("latency", time.Since(start)))
	if err != nil {
		l.log.Warn("llm error", append(fields, zap.Error(err))...)
		return nil, err
	}
	l.log.Info("llm response", append(fields,
		zap.Int("response_bytes", len(resp.Text)),
		zap.Bool("audio", resp.Audio != nil),
	)...)
	return resp, nil
}

// WithHooks calls HookFrom(ctx).Before/After around Generate.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &hooked{passthrough: passthrough{next}}
	}
}

type hooked struct{ passthrough }

func (h *hooked) Generate(ctx context.Context, req *llmclient.Request) (*llmclient.Response, error) {
	hook := HookFrom(ctx)
	if hook != nil {
		hook.Before(ctx, PhaseFrom(ctx), req)
	}
	resp, err := h.next.Generate(ctx, req)
	if hook != nil {
		hook.After(ctx, PhaseFrom(ctx), resp, err)
	}
	return resp, err
}

// RequestSize approximates the payload size of a request in bytes.
func RequestSize(req *llmclient.Request) int {
	if req == nil {
		return 0
	}
	n := len(req.Prompt.System)
	for _, t := range req.Prompt.History {
		n += len(t.Text)
	}
	for _, seg := range req.Prompt.Segments {
		switch s := seg.(type) {
		case prompt.Text:
			n += len(s.Text)
		case prompt.Media:
			n += len(s.Blob.Data)
		}
	}
	return n
}

func preview(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "…"
}
