// Package prompt assembles the ordered segments sent to a model.
package prompt

import (
	"errors"
	"strings"

	"medo/internal/media"
)

var (
	ErrEmptyPrompt   = errors.New("prompt: no segments")
	ErrMultipleMedia = errors.New("prompt: at most one media segment is allowed")
)

// Segment is either Text or Media.
type Segment interface {
	isSegment()
}

// Text is a literal text block.
type Text struct {
	Text string
}

// Media is an inline file payload.
type Media struct {
	Blob media.Blob
}

func (Text) isSegment()  {}
func (Media) isSegment() {}

// Role tags a prior conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior message in a conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Prompt is what a flow hands to a model client. System holds instructions
// and is never merged into the user's segments.
type Prompt struct {
	System   string
	History  []Turn
	Segments []Segment
}

// Media returns the inline media segment, if any.
func (p Prompt) Media() (media.Blob, bool) {
	for _, s := range p.Segments {
		if m, ok := s.(Media); ok {
			return m.Blob, true
		}
	}
	return media.Blob{}, false
}

// Texts returns the text segments in order.
func (p Prompt) Texts() []string {
	out := make([]string, 0, len(p.Segments))
	for _, s := range p.Segments {
		if t, ok := s.(Text); ok {
			out = append(out, t.Text)
		}
	}
	return out
}

// Builder accumulates segments in call order.
type Builder struct {
	p     Prompt
	media int
}

func New(system string) *Builder {
	return &Builder{p: Prompt{System: strings.TrimSpace(system)}}
}

// History sets prior turns. Empty turns are dropped.
func (b *Builder) History(turns []Turn) *Builder {
	for _, t := range turns {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		role := t.Role
		if role != RoleModel {
			role = RoleUser
		}
		b.p.History = append(b.p.History, Turn{Role: role, Text: t.Text})
	}
	return b
}

// Text appends a text segment; blank text is skipped.
func (b *Builder) Text(s string) *Builder {
	if strings.TrimSpace(s) == "" {
		return b
	}
	b.p.Segments = append(b.p.Segments, Text{Text: s})
	return b
}

// Media appends an inline media segment.
func (b *Builder) Media(blob media.Blob) *Builder {
	b.media++
	b.p.Segments = append(b.p.Segments, Media{Blob: blob})
	return b
}

// OutputJSON appends the textual output-shape instruction used when the
// model call has no schema-constrained mode.
func (b *Builder) OutputJSON(shape string) *Builder {
	return b.Text(JSONInstruction(shape))
}

func (b *Builder) Build() (Prompt, error) {
	if b.media > 1 {
		return Prompt{}, ErrMultipleMedia
	}
	if len(b.p.Segments) == 0 {
		return Prompt{}, ErrEmptyPrompt
	}
	return b.p, nil
}

// JSONInstruction renders the "JSON only" instruction around an example of
// the expected shape.
func JSONInstruction(shape string) string {
	var sb strings.Builder
	sb.WriteString("Respond ONLY with a single JSON value matching this shape. ")
	sb.WriteString("Do not add any text before or after it and do not wrap it in markdown fences.\n")
	sb.WriteString(strings.TrimSpace(shape))
	return sb.String()
}
