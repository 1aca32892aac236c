package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"medo/internal/audio/wav"
	llmclient "medo/internal/llmClient"
	"medo/internal/media"
	"medo/internal/prompt"
)

// SynthesizeSpeech reads text aloud with a prebuilt voice and returns a WAV
// data URI. Raw PCM from the model is always wrapped before returning.
func (s *Service) SynthesizeSpeech(ctx context.Context, r SpeechRequest) (*AudioResponse, error) {
	const kind = KindSynthesizeSpeech
	if err := s.check(kind, r); err != nil {
		return nil, err
	}
	p, err := build(kind, prompt.New("").Text(r.Text))
	if err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, kind, s.speech, &llmclient.Request{
		Prompt:   p,
		Modality: llmclient.ModalityAudio,
		Voice:    string(r.Voice),
	})
	if err != nil {
		return nil, err
	}
	if resp.Audio == nil || len(resp.Audio.Data) == 0 {
		return nil, fail(kind, KindNoAudioProduced, wav.ErrNoPCM)
	}

	out, err := toWAV(*resp.Audio)
	if err != nil {
		if errors.Is(err, wav.ErrNoPCM) {
			return nil, fail(kind, KindNoAudioProduced, err)
		}
		return nil, fail(kind, KindMalformedOutput, err)
	}
	return &AudioResponse{AudioDataURI: wav.DataURI(out), WAV: out}, nil
}

// toWAV wraps headerless PCM; a blob that is already WAV passes through once
// its container checks out.
func toWAV(blob media.Blob) ([]byte, error) {
	switch blob.BaseMIME() {
	case "audio/wav", "audio/x-wav", "audio/wave":
		if err := wav.Validate(blob.Data); err != nil {
			return nil, err
		}
		return blob.Data, nil
	}
	f := wav.DefaultFormat
	if rate := blob.Param("rate"); rate != "" {
		n, err := strconv.Atoi(rate)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("audio mime %q: bad sample rate", blob.MIMEType)
		}
		f.SampleRate = n
	}
	if ch := blob.Param("channels"); ch != "" {
		n, err := strconv.Atoi(ch)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("audio mime %q: bad channel count", blob.MIMEType)
		}
		f.Channels = n
	}
	return wav.Encode(blob.Data, f)
}
