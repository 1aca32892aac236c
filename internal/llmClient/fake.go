package llmclient

import (
	"context"
	"sync"
)

// RespondFunc produces a canned response for FakeClient.
type RespondFunc func(ctx context.Context, req *Request) (*Response, error)

// FakeClient answers from a RespondFunc and records every request.
type FakeClient struct {
	Caps    Capabilities
	Respond RespondFunc

	mu    sync.Mutex
	calls []Request
}

func NewFakeClient(caps Capabilities, respond RespondFunc) *FakeClient {
	return &FakeClient{Caps: caps, Respond: respond}
}

// Reply returns a RespondFunc that always answers with text.
func Reply(text string) RespondFunc {
	return func(_ context.Context, req *Request) (*Response, error) {
		return &Response{Model: "fake", Text: text, Structured: req.Schema != nil}, nil
	}
}

// Fail returns a RespondFunc that always fails with err.
func Fail(err error) RespondFunc {
	return func(context.Context, *Request) (*Response, error) { return nil, err }
}

func (f *FakeClient) Name() string               { return "FakeLLM" }
func (f *FakeClient) Close() error               { return nil }
func (f *FakeClient) Capabilities() Capabilities { return f.Caps }

func (f *FakeClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, *req)
	respond := f.Respond
	f.mu.Unlock()
	if respond == nil {
		return &Response{Model: "fake"}, nil
	}
	return respond(ctx, req)
}

// Calls reports how many requests reached the client.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastRequest returns a copy of the most recent request.
func (f *FakeClient) LastRequest() (Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return Request{}, false
	}
	return f.calls[len(f.calls)-1], true
}
