package rpc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"medo/internal/audio/wav"
	"medo/internal/flow"
	"medo/internal/gateway/repository/artifact"
	"medo/internal/gateway/repository/session"
	"medo/internal/util/jsonutil"
)

const FlowServiceName = "medo.v1.FlowService"

const (
	ProcAssistant         = "/" + FlowServiceName + "/Assistant"
	ProcTranscribe        = "/" + FlowServiceName + "/Transcribe"
	ProcSummarize         = "/" + FlowServiceName + "/Summarize"
	ProcSynthesizeSpeech  = "/" + FlowServiceName + "/SynthesizeSpeech"
	ProcGenerateMindMap   = "/" + FlowServiceName + "/GenerateMindMap"
	ProcGenerateQuestions = "/" + FlowServiceName + "/GenerateQuestions"
	ProcCorrectEssay      = "/" + FlowServiceName + "/CorrectEssay"
)

// SpeechCall is the SynthesizeSpeech request. With Save set the WAV is also
// stored for UserID and recorded in its speech sessions.
type SpeechCall struct {
	flow.SpeechRequest
	Save   bool   `json:"save,omitempty"`
	UserID string `json:"userId,omitempty"`
}

type SpeechResult struct {
	AudioDataURI string `json:"audioDataUri"`
	Path         string `json:"path,omitempty"`
	URL          string `json:"url,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
}

// FlowHandler serves one unary procedure per flow.
type FlowHandler struct {
	svc       *flow.Service
	artifacts artifact.Store
	sessions  session.Store
	log       *zap.Logger
}

func NewFlowHandler(svc *flow.Service, artifacts artifact.Store, sessions session.Store, log *zap.Logger) *FlowHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FlowHandler{svc: svc, artifacts: artifacts, sessions: sessions, log: log.Named("rpc")}
}

// Register mounts every flow procedure on mux.
func (h *FlowHandler) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux.Handle(unary(ProcAssistant, h.assistant, opts...))
	mux.Handle(unary(ProcTranscribe, h.svc.Transcribe, opts...))
	mux.Handle(unary(ProcSummarize, h.svc.Summarize, opts...))
	mux.Handle(unary(ProcSynthesizeSpeech, h.synthesizeSpeech, opts...))
	mux.Handle(unary(ProcGenerateMindMap, h.svc.GenerateMindMap, opts...))
	mux.Handle(unary(ProcGenerateQuestions, h.svc.GenerateQuestions, opts...))
	mux.Handle(unary(ProcCorrectEssay, h.svc.CorrectEssay, opts...))
}

func unary[Req, Res any](procedure string, fn func(context.Context, Req) (*Res, error), opts ...connect.HandlerOption) (string, http.Handler) {
	return procedure, connect.NewUnaryHandler(procedure, func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
		res, err := fn(ctx, *req.Msg)
		if err != nil {
			return nil, toConnectError(err)
		}
		return connect.NewResponse(res), nil
	}, opts...)
}

func (h *FlowHandler) assistant(ctx context.Context, r flow.AssistantRequest) (*flow.TextResponse, error) {
	if strings.TrimSpace(r.Prompt) == "" && r.File != nil {
		r.Prompt = flow.DefaultFilePrompt(r.File.Name)
	}
	return h.svc.Assistant(ctx, r)
}

func (h *FlowHandler) synthesizeSpeech(ctx context.Context, r SpeechCall) (*SpeechResult, error) {
	userID := strings.TrimSpace(r.UserID)
	if r.Save && userID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("userId is required when save is set"))
	}
	if r.Save && h.artifacts == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("audio storage is not configured"))
	}
	res, err := h.svc.SynthesizeSpeech(ctx, r.SpeechRequest)
	if err != nil {
		return nil, err
	}
	out := &SpeechResult{AudioDataURI: res.AudioDataURI}
	if !r.Save {
		return out, nil
	}

	id := uuid.NewString()
	out.Path = "speech/" + id + ".wav"
	if err := h.artifacts.Put(ctx, userID, out.Path, res.WAV, wav.MIMEType); err != nil {
		h.log.Error("store speech audio failed", zap.String("user_id", userID), zap.Error(err))
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("store audio: %w", err))
	}
	if u, err := h.artifacts.URL(ctx, userID, out.Path); err == nil {
		out.URL = u
	}
	if h.sessions != nil {
		data, err := jsonutil.MarshalNoEscape(map[string]any{
			"text":  r.Text,
			"voice": r.Voice,
			"path":  out.Path,
		})
		if err != nil {
			h.discardAudio(ctx, userID, out.Path)
			return nil, err
		}
		doc, err := h.sessions.Save(ctx, session.Document{
			ID:         id,
			UserID:     userID,
			Collection: session.Speech,
			Name:       preview(r.Text, 40),
			Data:       data,
		})
		if err != nil {
			h.discardAudio(ctx, userID, out.Path)
			return nil, err
		}
		out.SessionID = doc.ID
	}
	return out, nil
}

// discardAudio removes a stored WAV whose session record could not be
// written. It runs even when the request context is already done.
func (h *FlowHandler) discardAudio(ctx context.Context, userID, path string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.artifacts.Delete(ctx, userID, path); err != nil {
		h.log.Warn("discard orphaned speech audio failed", zap.String("user_id", userID), zap.String("path", path), zap.Error(err))
	}
}

func preview(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
