package flow

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	genai "google.golang.org/genai"

	"medo/internal/llm"
	llmclient "medo/internal/llmClient"
	"medo/internal/prompt"
	"medo/internal/util/jsonutil"
)

// Service runs flows against a text client and a speech client. It holds no
// per-call state and is safe for concurrent use.
type Service struct {
	text     llmclient.LLMClient
	speech   llmclient.LLMClient
	log      *zap.Logger
	validate *validator.Validate
	newID    func() string
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSpeechClient sets the client used by synthesizeSpeech. By default the
// text client is used.
func WithSpeechClient(c llmclient.LLMClient) Option {
	return func(s *Service) { s.speech = c }
}

// WithIDGenerator sets the mind-map node id source (default: UUIDv4).
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

func NewService(text llmclient.LLMClient, opts ...Option) *Service {
	s := &Service{
		text:     text,
		log:      zap.NewNop(),
		validate: newValidator(),
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.speech == nil {
		s.speech = text
	}
	s.log = s.log.Named("flow")
	return s
}

// NewServiceFromRegistry picks the text and speech clients by role.
func NewServiceFromRegistry(reg *llm.Registry, opts ...Option) (*Service, error) {
	text, err := reg.Client(llm.ModelRoleText)
	if err != nil {
		return nil, err
	}
	speech, err := reg.Client(llm.ModelRoleSpeech)
	if err != nil {
		if !errors.Is(err, llm.ErrModelNotRegistered) {
			return nil, err
		}
		speech = text
	}
	return NewService(text, append([]Option{WithSpeechClient(speech)}, opts...)...), nil
}

// Execute dispatches a request to its flow.
func (s *Service) Execute(ctx context.Context, req Request) (Response, error) {
	if v := reflect.ValueOf(req); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, fail("unknown", KindInvalidInput, fmt.Errorf("nil %T request", req))
	}
	switch r := req.(type) {
	case AssistantRequest:
		return respond(s.Assistant(ctx, r))
	case *AssistantRequest:
		return respond(s.Assistant(ctx, *r))
	case TranscribeRequest:
		return respond(s.Transcribe(ctx, r))
	case *TranscribeRequest:
		return respond(s.Transcribe(ctx, *r))
	case SummarizeRequest:
		return respond(s.Summarize(ctx, r))
	case *SummarizeRequest:
		return respond(s.Summarize(ctx, *r))
	case SpeechRequest:
		return respond(s.SynthesizeSpeech(ctx, r))
	case *SpeechRequest:
		return respond(s.SynthesizeSpeech(ctx, *r))
	case MindMapRequest:
		return respond(s.GenerateMindMap(ctx, r))
	case *MindMapRequest:
		return respond(s.GenerateMindMap(ctx, *r))
	case QuestionsRequest:
		return respond(s.GenerateQuestions(ctx, r))
	case *QuestionsRequest:
		return respond(s.GenerateQuestions(ctx, *r))
	case EssayRequest:
		return respond(s.CorrectEssay(ctx, r))
	case *EssayRequest:
		return respond(s.CorrectEssay(ctx, *r))
	case nil:
		return nil, fail("unknown", KindInvalidInput, errors.New("nil request"))
	}
	return nil, fail(req.Kind(), KindInvalidInput, fmt.Errorf("unsupported request type %T", req))
}

func respond(r Response, err error) (Response, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// structured describes the JSON output a flow expects.
type structured struct {
	schema *genai.Schema
	shape  string
}

// shapeOutput attaches the schema when the client offers schema-constrained
// output and otherwise appends the textual JSON instruction to the prompt.
func shapeOutput(b *prompt.Builder, caps llmclient.Capabilities, out structured) *genai.Schema {
	if caps.StructuredOutput {
		return out.schema
	}
	b.OutputJSON(out.shape)
	return nil
}

func build(kind Kind, b *prompt.Builder) (prompt.Prompt, error) {
	p, err := b.Build()
	if err != nil {
		return prompt.Prompt{}, fail(kind, KindInvalidInput, err)
	}
	return p, nil
}

// call makes the single model invocation of a flow.
func (s *Service) call(ctx context.Context, kind Kind, c llmclient.LLMClient, req *llmclient.Request) (*llmclient.Response, error) {
	ctx = llm.WithPhase(ctx, string(kind))
	resp, err := c.Generate(ctx, req)
	if err != nil {
		s.log.Warn("model call failed", zap.String("flow", string(kind)), zap.Error(err))
		return nil, fail(kind, KindModelCallFailed, err)
	}
	if resp == nil {
		return nil, malformed(kind, "empty response")
	}
	return resp, nil
}

// decode runs the response normalizer into v.
func decode(kind Kind, resp *llmclient.Response, v any) error {
	if err := jsonutil.Decode(resp.Text, resp.Structured, v); err != nil {
		return fail(kind, KindMalformedOutput, err)
	}
	return nil
}

func requireText(kind Kind, text, what string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", malformed(kind, "model returned empty %s", what)
	}
	return text, nil
}
