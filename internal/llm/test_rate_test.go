package llm

import (
	"context"
	"testing"
	"time"

	llmclient "medo/internal/llmClient"
	"medo/internal/prompt"
	"medo/internal/tester"
)

// spy records timestamps when requests reach the inner client
type spy struct{ times []time.Time }

func spyingClient(rec *spy) *llmclient.FakeClient {
	return llmclient.NewFakeClient(llmclient.Capabilities{}, func(context.Context, *llmclient.Request) (*llmclient.Response, error) {
		rec.times = append(rec.times, time.Now())
		return &llmclient.Response{Text: "{}"}, nil
	})
}

func textRequest(t *testing.T) *llmclient.Request {
	t.Helper()
	p, err := prompt.New("").Text("p").Build()
	tester.NoErr(t, err)
	return &llmclient.Request{Prompt: p}
}

func TestRate_RPS_2PerSecond_Burst1_Spacing(t *testing.T) {
	// Expect ~>=500ms spacing after the first call when rps=2 and burst=1.
	rec := &spy{}
	cli := Wrap(spyingClient(rec), RateLimit(2, 1))
	t.Cleanup(func() { _ = cli.Close() })

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := cli.Generate(ctx, textRequest(t)); err != nil {
			t.Fatal(err)
		}
	}
	elapsed := time.Since(start)

	tester.True(t, elapsed >= 450*time.Millisecond, "expected throttling >=450ms, got %v", elapsed)
	tester.Eq(t, len(rec.times), 2, "two calls should reach inner client")
}

func TestRate_RPS_2PerSecond_Burst2_FirstTwoImmediate(t *testing.T) {
	cli := RateLimit(2, 2)(spyingClient(&spy{}))
	t.Cleanup(func() { _ = cli.Close() })

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := cli.Generate(ctx, textRequest(t)); err != nil {
			t.Fatal(err)
		}
	}
	firstTwo := time.Since(start)

	start3 := time.Now()
	if _, err := cli.Generate(ctx, textRequest(t)); err != nil {
		t.Fatal(err)
	}
	third := time.Since(start3)

	tester.True(t, firstTwo < 100*time.Millisecond, "first two should be near-instant, got %v", firstTwo)
	tester.True(t, third >= 450*time.Millisecond, "third call expected throttling >=450ms, got %v", third)
}

func TestRate_CanceledContext(t *testing.T) {
	rec := &spy{}
	cli := RateLimit(0.1, 1)(spyingClient(rec))
	t.Cleanup(func() { _ = cli.Close() })

	_, err := cli.Generate(context.Background(), textRequest(t))
	tester.NoErr(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = cli.Generate(ctx, textRequest(t))
	tester.ErrIs(t, err, context.DeadlineExceeded)
	tester.Eq(t, len(rec.times), 1, "throttled call never reaches the client")
}

func TestRate_DisabledWhenZero(t *testing.T) {
	rec := &spy{}
	cli := RateLimit(0, 0)(spyingClient(rec))
	start := time.Now()
	for i := 0; i < 5; i++ {
		_, err := cli.Generate(context.Background(), textRequest(t))
		tester.NoErr(t, err)
	}
	tester.True(t, time.Since(start) < 100*time.Millisecond, "no throttling")
	tester.NoErr(t, cli.Close())
}

func TestRate_WaitPastDeadlineFailsFast(t *testing.T) {
	l := newLimiter(0.5, 1)
	tester.NoErr(t, acquire(context.Background(), l))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	err := acquire(ctx, l)
	tester.ErrIs(t, err, context.DeadlineExceeded)
	tester.True(t, time.Since(start) < 100*time.Millisecond, "no sleep when the wait cannot fit the deadline")
}
