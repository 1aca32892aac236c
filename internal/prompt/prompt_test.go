package prompt

import (
	"testing"

	"medo/internal/media"
	"medo/internal/tester"
)

func TestBuilder_KeepsOrderAndSystemSeparate(t *testing.T) {
	blob := media.Blob{MIMEType: "image/png", Data: []byte{1}}
	p, err := New("  be helpful  ").Media(blob).Text("user text").Text("   ").Build()
	tester.NoErr(t, err)
	tester.Eq(t, p.System, "be helpful")
	tester.Eq(t, len(p.Segments), 2)
	_, isMedia := p.Segments[0].(Media)
	tester.True(t, isMedia, "media segment first")
	tester.Eq(t, p.Texts(), []string{"user text"})

	got, ok := p.Media()
	tester.True(t, ok)
	tester.Eq(t, got.MIMEType, "image/png")
}

func TestBuilder_RejectsSecondMedia(t *testing.T) {
	blob := media.Blob{MIMEType: "image/png", Data: []byte{1}}
	_, err := New("").Media(blob).Media(blob).Build()
	tester.ErrIs(t, err, ErrMultipleMedia)
}

func TestBuilder_Empty(t *testing.T) {
	_, err := New("sys").Text("").Build()
	tester.ErrIs(t, err, ErrEmptyPrompt)
}

func TestHistory_NormalizesRoles(t *testing.T) {
	p, err := New("").History([]Turn{
		{Role: "assistant", Text: "hi"},
		{Role: RoleModel, Text: "hello"},
		{Role: RoleUser, Text: " "},
	}).Text("q").Build()
	tester.NoErr(t, err)
	tester.Eq(t, p.History, []Turn{{Role: RoleUser, Text: "hi"}, {Role: RoleModel, Text: "hello"}})
}

func TestOutputJSON(t *testing.T) {
	p, err := New("").Text("ctx").OutputJSON(`{"a": 1}`).Build()
	tester.NoErr(t, err)
	texts := p.Texts()
	tester.Eq(t, len(texts), 2)
	tester.Contains(t, texts[1], `{"a": 1}`)
	tester.Contains(t, texts[1], "ONLY")
}
