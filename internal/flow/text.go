package flow

import (
	"context"

	llmclient "medo/internal/llmClient"
	"medo/internal/media"
	"medo/internal/prompt"
)

// Assistant answers one chat turn. An attached file goes before the text.
func (s *Service) Assistant(ctx context.Context, r AssistantRequest) (*TextResponse, error) {
	const kind = KindAssistant
	if err := s.check(kind, r); err != nil {
		return nil, err
	}
	blob, err := decodeMedia(kind, r.File, media.ClassImage, media.ClassPDF)
	if err != nil {
		return nil, err
	}

	b := prompt.New(assistantSystem).History(r.History)
	if blob != nil {
		b.Media(*blob)
	}
	p, err := build(kind, b.Text(r.Prompt))
	if err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, kind, s.text, &llmclient.Request{Prompt: p})
	if err != nil {
		return nil, err
	}
	reply, err := requireText(kind, resp.Text, "reply")
	if err != nil {
		return nil, err
	}
	return &TextResponse{Flow: kind, Text: reply}, nil
}

// Transcribe turns one audio file into text in a single blocking call.
func (s *Service) Transcribe(ctx context.Context, r TranscribeRequest) (*TextResponse, error) {
	const kind = KindTranscribe
	if r.Audio.URL == "" {
		return nil, invalid(kind, "audio is required")
	}
	blob, err := decodeMedia(kind, &r.Audio, media.ClassAudio)
	if err != nil {
		return nil, err
	}

	p, err := build(kind, prompt.New(transcribeSystem).Media(*blob).Text(transcribeInstruction))
	if err != nil {
		return nil, err
	}
	resp, err := s.call(ctx, kind, s.text, &llmclient.Request{Prompt: p})
	if err != nil {
		return nil, err
	}
	text, err := requireText(kind, resp.Text, "transcript")
	if err != nil {
		return nil, err
	}
	return &TextResponse{Flow: kind, Text: text}, nil
}

// Summarize returns a summary in the language of the source text.
func (s *Service) Summarize(ctx context.Context, r SummarizeRequest) (*TextResponse, error) {
	const kind = KindSummarize
	if err := s.check(kind, r); err != nil {
		return nil, err
	}

	b := prompt.New(summarizeSystem(r.Language)).Text(r.Text)
	schema := shapeOutput(b, s.text.Capabilities(), structured{summarySchema, summaryShape})
	p, err := build(kind, b)
	if err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, kind, s.text, &llmclient.Request{Prompt: p, Schema: schema})
	if err != nil {
		return nil, err
	}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := decode(kind, resp, &out); err != nil {
		return nil, err
	}
	summary, err := requireText(kind, out.Summary, "summary")
	if err != nil {
		return nil, err
	}
	return &TextResponse{Flow: kind, Text: summary}, nil
}
