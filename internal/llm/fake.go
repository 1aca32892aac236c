package llm

import (
	"context"
	"encoding/json"

	llmclient "medo/internal/llmClient"
	"medo/internal/media"
)

// NewFakeClient returns a client that answers every flow with a small
// deterministic payload chosen by phase, for offline runs and demos.
func NewFakeClient() *llmclient.FakeClient {
	caps := llmclient.Capabilities{StructuredOutput: true, Media: true, Audio: true}
	return llmclient.NewFakeClient(caps, fakeRespond)
}

func fakeRespond(ctx context.Context, req *llmclient.Request) (*llmclient.Response, error) {
	phase := PhaseFrom(ctx)
	if req.Modality == llmclient.ModalityAudio {
		// 100ms of silence at 24 kHz, 16-bit mono.
		return &llmclient.Response{
			Model: "fake",
			Audio: &media.Blob{MIMEType: "audio/L16;codec=pcm;rate=24000", Data: make([]byte, 4800)},
		}, nil
	}

	var obj any
	switch phase {
	case "summarize":
		obj = map[string]any{"summary": "ملخص تجريبي للنص."}
	case "generateMindMap":
		obj = map[string]any{
			"title": "خريطة تجريبية",
			"mainIdeas": []any{
				map[string]any{"id": "1", "text": "الفكرة الأولى", "subPoints": []any{
					map[string]any{"id": "1.1", "text": "نقطة فرعية"},
				}},
			},
		}
	case "generateQuestions":
		obj = map[string]any{"questions": []any{fakeQuestion(questionTypeOf(req))}}
	case "correctEssay":
		obj = map[string]any{"isCorrect": true, "feedback": "إجابة جيدة."}
	default:
		return &llmclient.Response{Model: "fake", Text: "هذا رد تجريبي من Medo.Ai."}, nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return &llmclient.Response{Model: "fake", Text: string(b), Structured: req.Schema != nil}, nil
}

// questionTypeOf reads the requested type from the questions schema enum.
func questionTypeOf(req *llmclient.Request) string {
	s := req.Schema
	if s == nil {
		return "multiple-choice"
	}
	if qs, ok := s.Properties["questions"]; ok && qs.Items != nil {
		if tp, ok := qs.Items.Properties["type"]; ok && len(tp.Enum) > 0 {
			return tp.Enum[0]
		}
	}
	return "multiple-choice"
}

func fakeQuestion(kind string) map[string]any {
	if kind == "essay" {
		return map[string]any{
			"question":      "اشرح الفكرة الرئيسية.",
			"correctAnswer": "الفكرة الرئيسية هي...",
			"explanation":   "يجب أن تذكر الإجابة النقاط الأساسية.",
			"type":          "essay",
		}
	}
	return map[string]any{
		"question":      "ما الإجابة الصحيحة؟",
		"options":       []string{"أ", "ب", "ج", "د"},
		"correctAnswer": "أ",
		"explanation":   "لأن أ هو الخيار الصحيح.",
		"type":          "multiple-choice",
	}
}
