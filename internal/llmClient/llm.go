package llmclient

import (
	"context"
	"errors"

	genai "google.golang.org/genai"

	"medo/internal/media"
	"medo/internal/prompt"
)

var ErrUnsupported = errors.New("llm: request not supported by provider")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

type Modality string

const (
	ModalityText  Modality = "TEXT"
	ModalityAudio Modality = "AUDIO"
)

// Request is one model invocation.
type Request struct {
	Prompt      prompt.Prompt
	Temperature *float32
	// Schema requests schema-constrained JSON output. Providers without
	// Capabilities.StructuredOutput reject it.
	Schema   *genai.Schema
	Modality Modality
	Voice    string
}

// Response carries either text or, for audio requests, inline audio.
type Response struct {
	Model string
	Text  string
	// Structured is true when Text was produced under Request.Schema.
	Structured bool
	Audio      *media.Blob
}

// Capabilities tells prompt assembly which modes a provider offers.
type Capabilities struct {
	StructuredOutput bool
	Media            bool
	Audio            bool
}

type LLMClient interface {
	Name() string
	Capabilities() Capabilities
	Generate(ctx context.Context, req *Request) (*Response, error)
	Close() error
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(v float32) *float32 { return &v }
