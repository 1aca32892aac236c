package flow

import (
	"context"
	"strings"

	"go.uber.org/zap"

	llmclient "medo/internal/llmClient"
	"medo/internal/media"
	"medo/internal/prompt"
	"medo/internal/types"
)

// contextPrompt places the optional file first and the optional text after
// it. At least one must be present.
func contextPrompt(kind Kind, system, text string, ref *media.Reference) (*prompt.Builder, error) {
	blob, err := decodeMedia(kind, ref, media.ClassImage, media.ClassPDF)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if blob == nil && text == "" {
		return nil, invalid(kind, "text or file is required")
	}
	b := prompt.New(system)
	if blob != nil {
		b.Media(*blob)
	}
	if text != "" {
		b.Text("Context:\n" + text)
	}
	return b, nil
}

// GenerateMindMap builds a two-level mind map. Node ids come from the
// service's id generator, not from the model.
func (s *Service) GenerateMindMap(ctx context.Context, r MindMapRequest) (*MindMapResponse, error) {
	const kind = KindGenerateMindMap
	b, err := contextPrompt(kind, mindMapSystem, r.Text, r.File)
	if err != nil {
		return nil, err
	}
	schema := shapeOutput(b, s.text.Capabilities(), structured{mindMapSchema, mindMapShape})
	p, err := build(kind, b)
	if err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, kind, s.text, &llmclient.Request{
		Prompt:      p,
		Temperature: llmclient.Temperature(0.4),
		Schema:      schema,
	})
	if err != nil {
		return nil, err
	}
	var m types.MindMap
	if err := decode(kind, resp, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fail(kind, KindMalformedOutput, err)
	}
	m.Title = strings.TrimSpace(m.Title)
	m.AssignIDs(s.newID)
	return &MindMapResponse{MindMap: m}, nil
}

// GenerateQuestions asks for Count questions of one type. Extra questions
// are dropped; fewer than requested is returned as is. Any question that
// breaks its type invariant fails the whole call.
func (s *Service) GenerateQuestions(ctx context.Context, r QuestionsRequest) (*QuestionsResponse, error) {
	const kind = KindGenerateQuestions
	if err := s.check(kind, r); err != nil {
		return nil, err
	}
	difficulty := r.Difficulty
	if difficulty == "" {
		difficulty = types.DifficultyMedium
	}
	b, err := contextPrompt(kind, questionsSystem(r.Count, r.Type, difficulty), r.Text, r.File)
	if err != nil {
		return nil, err
	}
	schema := shapeOutput(b, s.text.Capabilities(), structured{questionsSchema(r.Type, r.Count), questionsShape(r.Type)})
	p, err := build(kind, b)
	if err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, kind, s.text, &llmclient.Request{
		Prompt:      p,
		Temperature: llmclient.Temperature(0.3),
		Schema:      schema,
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Questions []types.Question `json:"questions"`
	}
	if err := decode(kind, resp, &out); err != nil {
		return nil, err
	}
	if len(out.Questions) == 0 {
		return nil, malformed(kind, "model returned no questions")
	}
	for i := range out.Questions {
		q := &out.Questions[i]
		q.Normalize()
		if q.Type == "" {
			q.Type = r.Type
		}
		if err := q.Validate(r.Type); err != nil {
			return nil, malformed(kind, "question %d: %w", i, err)
		}
	}
	qs := out.Questions
	if len(qs) > r.Count {
		qs = qs[:r.Count]
	}
	if len(qs) < r.Count {
		s.log.Warn("fewer questions than requested",
			zap.String("flow", string(kind)),
			zap.Int("requested", r.Count),
			zap.Int("returned", len(qs)),
		)
	}
	return &QuestionsResponse{Questions: qs, Requested: r.Count}, nil
}

// CorrectEssay grades a free-text answer against the ideal answer.
func (s *Service) CorrectEssay(ctx context.Context, r EssayRequest) (*CorrectionResponse, error) {
	const kind = KindCorrectEssay
	if err := s.check(kind, r); err != nil {
		return nil, err
	}
	b := prompt.New(essaySystem).Text(essayText(r))
	schema := shapeOutput(b, s.text.Capabilities(), structured{correctionSchema, correctionShape})
	p, err := build(kind, b)
	if err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, kind, s.text, &llmclient.Request{
		Prompt:      p,
		Temperature: llmclient.Temperature(0),
		Schema:      schema,
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		IsCorrect *bool  `json:"isCorrect"`
		Feedback  string `json:"feedback"`
	}
	if err := decode(kind, resp, &out); err != nil {
		return nil, err
	}
	if out.IsCorrect == nil {
		return nil, malformed(kind, "missing isCorrect")
	}
	feedback, err := requireText(kind, out.Feedback, "feedback")
	if err != nil {
		return nil, err
	}
	return &CorrectionResponse{Correction: types.Correction{IsCorrect: *out.IsCorrect, Feedback: feedback}}, nil
}

// Grade runs correctEssay; it lets a Service act as a quiz grader.
func (s *Service) Grade(ctx context.Context, question, idealAnswer, userAnswer string) (types.Correction, error) {
	out, err := s.CorrectEssay(ctx, EssayRequest{Question: question, IdealAnswer: idealAnswer, UserAnswer: userAnswer})
	if err != nil {
		return types.Correction{}, err
	}
	return out.Correction, nil
}
