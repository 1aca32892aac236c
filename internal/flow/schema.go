package flow

import (
	genai "google.golang.org/genai"

	"medo/internal/types"
)

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func count(n int) *int64 {
	v := int64(n)
	return &v
}

var summarySchema = &genai.Schema{
	Type:       genai.TypeObject,
	Properties: map[string]*genai.Schema{"summary": str("The summarized text.")},
	Required:   []string{"summary"},
}

const summaryShape = `{"summary": "<summary text>"}`

var mindMapSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title": str("The central title of the mind map."),
		"mainIdeas": {
			Type:     genai.TypeArray,
			MinItems: count(1),
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":   str("Node identifier."),
					"text": str("A main idea."),
					"subPoints": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"id":   str("Node identifier."),
								"text": str("A sub-point of the main idea."),
							},
							Required: []string{"text"},
						},
					},
				},
				Required: []string{"text", "subPoints"},
			},
		},
	},
	Required: []string{"title", "mainIdeas"},
}

const mindMapShape = `{"title": "<title>", "mainIdeas": [{"id": "1", "text": "<main idea>", "subPoints": [{"id": "1.1", "text": "<sub-point>"}]}]}`

// questionsSchema pins the item type to the requested one and, for
// multiple-choice, the option count to four.
func questionsSchema(qt types.QuestionType, n int) *genai.Schema {
	item := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question":      str("The question text."),
			"correctAnswer": str("For multiple-choice one of the options verbatim; for essay the ideal answer."),
			"explanation":   str("Why the answer is correct."),
			"type":          {Type: genai.TypeString, Enum: []string{string(qt)}},
		},
		Required: []string{"question", "correctAnswer", "explanation", "type"},
	}
	if qt == types.QuestionMultipleChoice {
		item.Properties["options"] = &genai.Schema{
			Type:     genai.TypeArray,
			Items:    str("An answer option."),
			MinItems: count(types.MultipleChoiceOptions),
			MaxItems: count(types.MultipleChoiceOptions),
		}
		item.Required = append(item.Required, "options")
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"questions": {Type: genai.TypeArray, Items: item, MinItems: count(1), MaxItems: count(n)},
		},
		Required: []string{"questions"},
	}
}

func questionsShape(qt types.QuestionType) string {
	if qt == types.QuestionEssay {
		return `{"questions": [{"question": "<question>", "correctAnswer": "<ideal answer>", "explanation": "<key points>", "type": "essay"}]}`
	}
	return `{"questions": [{"question": "<question>", "options": ["<a>", "<b>", "<c>", "<d>"], "correctAnswer": "<one option verbatim>", "explanation": "<why>", "type": "multiple-choice"}]}`
}

var correctionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isCorrect": {Type: genai.TypeBoolean, Description: "Whether the answer is substantially correct."},
		"feedback":  str("Constructive feedback in Arabic."),
	},
	Required: []string{"isCorrect", "feedback"},
}

const correctionShape = `{"isCorrect": true, "feedback": "<feedback in Arabic>"}`
