package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	llmclient "medo/internal/llmClient"
	"medo/internal/media"
	"medo/internal/prompt"
	"medo/internal/tester"
)

type order struct{ calls []string }

func tagging(o *order, tag string) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &tagged{passthrough: passthrough{next}, o: o, tag: tag}
	}
}

type tagged struct {
	passthrough
	o   *order
	tag string
}

func (c *tagged) Generate(ctx context.Context, req *llmclient.Request) (*llmclient.Response, error) {
	c.o.calls = append(c.o.calls, c.tag)
	return c.next.Generate(ctx, req)
}

func TestWrap_LeftToRight(t *testing.T) {
	o := &order{}
	cli := Wrap(llmclient.NewFakeClient(llmclient.Capabilities{}, llmclient.Reply("ok")), tagging(o, "A"), tagging(o, "B"))
	_, err := cli.Generate(context.Background(), textRequest(t))
	tester.NoErr(t, err)
	tester.Eq(t, o.calls, []string{"A", "B"})
}

func TestWithLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	fake := llmclient.NewFakeClient(llmclient.Capabilities{StructuredOutput: true}, llmclient.Reply("hello"))
	cli := Wrap(fake, WithLogging(zap.New(core)))
	tester.Eq(t, cli.Capabilities(), fake.Caps)

	ctx := WithPhase(context.Background(), "summarize")
	_, err := cli.Generate(ctx, textRequest(t))
	tester.NoErr(t, err)

	entries := logs.FilterMessage("llm response").All()
	tester.Eq(t, len(entries), 1)
	tester.Eq(t, entries[0].ContextMap()["flow"], any("summarize"))
	tester.Eq(t, entries[0].ContextMap()["response_bytes"], any(int64(5)))

	boom := errors.New("boom")
	fake.Respond = llmclient.Fail(boom)
	_, err = cli.Generate(ctx, textRequest(t))
	tester.ErrIs(t, err, boom)
	tester.Eq(t, logs.FilterMessage("llm error").Len(), 1)
}

type recordingHook struct {
	before, after []string
}

func (h *recordingHook) Before(_ context.Context, phase string, _ *llmclient.Request) {
	h.before = append(h.before, phase)
}

func (h *recordingHook) After(_ context.Context, phase string, _ *llmclient.Response, err error) {
	h.after = append(h.after, phase)
}

func TestWithHooks(t *testing.T) {
	h := &recordingHook{}
	cli := Wrap(llmclient.NewFakeClient(llmclient.Capabilities{}, llmclient.Reply("x")), WithHooks())

	_, err := cli.Generate(context.Background(), textRequest(t))
	tester.NoErr(t, err)
	tester.Eq(t, len(h.before), 0, "no hook in context")

	ctx := WithHook(WithPhase(context.Background(), "assistant"), h)
	_, err = cli.Generate(ctx, textRequest(t))
	tester.NoErr(t, err)
	tester.Eq(t, h.before, []string{"assistant"})
	tester.Eq(t, h.after, []string{"assistant"})
	tester.Eq(t, PhaseFrom(context.Background()), "unknown")
}

func TestRedactMedia(t *testing.T) {
	in := map[string]any{
		"prompt": "hi",
		"file":   map[string]any{"url": media.DataURI("application/pdf", []byte("%PDF-1.4 data"))},
		"list":   []any{"data:audio/webm;codecs=opus;base64,AAEC", 3},
	}
	out := RedactMedia(in).(map[string]any)
	tester.Eq(t, out["prompt"], any("hi"))
	tester.Eq(t, out["file"].(map[string]any)["url"], any(redacted))
	tester.Eq(t, out["list"].([]any)[0], any(redacted))
	tester.Eq(t, out["list"].([]any)[1], any(3))
}

func TestDescribePrompt(t *testing.T) {
	p, err := prompt.New("").Media(media.Blob{MIMEType: "image/png", Data: make([]byte, 10)}).Text(strings.Repeat("ا", 100)).Build()
	tester.NoErr(t, err)
	lines := DescribePrompt(p)
	tester.Eq(t, lines[0], "media(image/png, 10 bytes)")
	tester.True(t, strings.HasSuffix(lines[1], "…"), "long text is shortened")
	tester.False(t, strings.Contains(strings.Join(lines, ""), "base64"))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, err := r.Client(ModelRoleSpeech)
	tester.ErrIs(t, err, ErrModelNotRegistered)

	fake := NewFakeClient()
	tester.NoErr(t, r.Register(ModelRoleText, fake))
	tester.NoErr(t, r.Register(ModelRoleSpeech, fake))
	got, err := r.Client(ModelRoleText)
	tester.NoErr(t, err)
	tester.Eq(t, got.Name(), "FakeLLM")
	tester.True(t, r.Register(ModelRoleText, nil) != nil, "nil rejected")
	tester.NoErr(t, r.Close())
}

func TestFakeClient_PhaseAnswers(t *testing.T) {
	fake := NewFakeClient()
	ctx := WithPhase(context.Background(), "correctEssay")
	resp, err := fake.Generate(ctx, textRequest(t))
	tester.NoErr(t, err)
	tester.Contains(t, resp.Text, `"isCorrect":true`)

	resp, err = fake.Generate(ctx, &llmclient.Request{Modality: llmclient.ModalityAudio})
	tester.NoErr(t, err)
	tester.True(t, resp.Audio != nil && len(resp.Audio.Data) == 4800)
}
