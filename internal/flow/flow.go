// Package flow implements the model-backed operations: each validates its
// input, assembles one prompt, makes one model call and checks the output
// before returning it.
package flow

import (
	"medo/internal/media"
	"medo/internal/prompt"
	"medo/internal/types"
)

// Kind names a flow.
type Kind string

const (
	KindAssistant         Kind = "assistant"
	KindTranscribe        Kind = "transcribe"
	KindSummarize         Kind = "summarize"
	KindSynthesizeSpeech  Kind = "synthesizeSpeech"
	KindGenerateMindMap   Kind = "generateMindMap"
	KindGenerateQuestions Kind = "generateQuestions"
	KindCorrectEssay      Kind = "correctEssay"
)

// Kinds lists every flow.
func Kinds() []Kind {
	return []Kind{
		KindAssistant, KindTranscribe, KindSummarize, KindSynthesizeSpeech,
		KindGenerateMindMap, KindGenerateQuestions, KindCorrectEssay,
	}
}

// Request is one of the *Request types below.
type Request interface {
	Kind() Kind
}

// Response is one of the *Response types below.
type Response interface {
	Kind() Kind
}

type AssistantRequest struct {
	Prompt  string           `json:"prompt" validate:"notblank"`
	File    *media.Reference `json:"file,omitempty"`
	History []prompt.Turn    `json:"history,omitempty" validate:"max=100"`
}

type TranscribeRequest struct {
	Audio media.Reference `json:"audio"`
}

type SummarizeRequest struct {
	Text     string `json:"text" validate:"notblank"`
	Language string `json:"language" validate:"notblank,max=35"`
}

type SpeechRequest struct {
	Text  string      `json:"text" validate:"notblank"`
	Voice types.Voice `json:"voice" validate:"voice"`
}

type MindMapRequest struct {
	Text string           `json:"text,omitempty"`
	File *media.Reference `json:"file,omitempty"`
}

type QuestionsRequest struct {
	Text       string             `json:"text,omitempty"`
	File       *media.Reference   `json:"file,omitempty"`
	Count      int                `json:"count" validate:"min=1,max=20"`
	Type       types.QuestionType `json:"questionType" validate:"questiontype"`
	Difficulty types.Difficulty   `json:"difficulty,omitempty" validate:"omitempty,difficulty"`
}

type EssayRequest struct {
	Question    string `json:"question" validate:"notblank"`
	IdealAnswer string `json:"idealAnswer" validate:"notblank"`
	UserAnswer  string `json:"userAnswer" validate:"notblank"`
}

func (AssistantRequest) Kind() Kind  { return KindAssistant }
func (TranscribeRequest) Kind() Kind { return KindTranscribe }
func (SummarizeRequest) Kind() Kind  { return KindSummarize }
func (SpeechRequest) Kind() Kind     { return KindSynthesizeSpeech }
func (MindMapRequest) Kind() Kind    { return KindGenerateMindMap }
func (QuestionsRequest) Kind() Kind  { return KindGenerateQuestions }
func (EssayRequest) Kind() Kind      { return KindCorrectEssay }

// TextResponse is the reply of assistant, transcribe and summarize.
type TextResponse struct {
	Flow Kind   `json:"-"`
	Text string `json:"text"`
}

type QuestionsResponse struct {
	Questions []types.Question `json:"questions"`
	// Requested is the count asked for; len(Questions) may be lower.
	Requested int `json:"requested"`
}

type MindMapResponse struct {
	MindMap types.MindMap `json:"mindMap"`
}

type CorrectionResponse struct {
	types.Correction
}

type AudioResponse struct {
	AudioDataURI string `json:"audioDataUri"`
	WAV          []byte `json:"-"`
}

func (r *TextResponse) Kind() Kind     { return r.Flow }
func (*QuestionsResponse) Kind() Kind  { return KindGenerateQuestions }
func (*MindMapResponse) Kind() Kind    { return KindGenerateMindMap }
func (*CorrectionResponse) Kind() Kind { return KindCorrectEssay }
func (*AudioResponse) Kind() Kind      { return KindSynthesizeSpeech }

// DefaultFilePrompt is the assistant prompt used when a file arrives without
// any text.
func DefaultFilePrompt(name string) string {
	if name == "" {
		return "اشرح هذا الملف"
	}
	return "اشرح هذا الملف: " + name
}
