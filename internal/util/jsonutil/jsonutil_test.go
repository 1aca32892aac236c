package jsonutil

import (
	"encoding/json"
	"testing"

	"medo/internal/tester"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "fenced prose", in: "Here is your answer:\n```json\n{\"a\":1}\n```\nHope that helps!", want: `{"a":1}`},
		{name: "array", in: "sure: [1, 2, {\"b\": [3]}] done", want: `[1, 2, {"b": [3]}]`},
		{name: "braces inside strings", in: `x {"t": "a } b { c", "n": "\"}"} y`, want: `{"t": "a } b { c", "n": "\"}"}`},
		{name: "skips invalid balanced candidate", in: `use {braces} like {"ok": true}`, want: `{"ok": true}`},
		{name: "arabic", in: "النتيجة: {\"summary\": \"ملخص\"}", want: `{"summary": "ملخص"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.in)
			tester.NoErr(t, err)
			tester.Eq(t, string(got), tt.want)
		})
	}
}

func TestExtract_NoJSON(t *testing.T) {
	for _, in := range []string{"not json at all", "", "{unclosed", "}{"} {
		got, err := Extract(in)
		tester.ErrIs(t, err, ErrMalformed, in)
		tester.True(t, got == nil, "no value on failure")
	}
}

func TestDecode_FencedExample(t *testing.T) {
	var v map[string]any
	err := Decode("Here is your answer:\n```json\n{\"a\":1}\n```\nHope that helps!", false, &v)
	tester.NoErr(t, err)
	tester.Eq(t, v, map[string]any{"a": float64(1)})
}

func TestDecode_NotJSON(t *testing.T) {
	var v map[string]any
	err := Decode("not json at all", false, &v)
	tester.ErrIs(t, err, ErrMalformed)
	tester.True(t, v == nil, "target untouched")
}

func TestDecode_IdempotentOnCleanJSON(t *testing.T) {
	pretty := "{\n  \"title\": \"خريطة\",\n  \"items\": [\n    {\"id\": 1, \"ok\": true},\n    {\"id\": 2, \"ok\": false}\n  ]\n}"
	var direct any
	tester.NoErr(t, json.Unmarshal([]byte(pretty), &direct))

	for _, structured := range []bool{true, false} {
		var got any
		tester.NoErr(t, Decode(pretty, structured, &got))
		tester.Eq(t, got, direct)
	}

	ext, err := Extract(pretty)
	tester.NoErr(t, err)
	tester.Eq(t, string(ext), pretty)
}

func TestDecode_StructuredRejectsProse(t *testing.T) {
	var v map[string]any
	err := Decode("sure! {\"a\":1}", true, &v)
	tester.ErrIs(t, err, ErrMalformed)

	err = Decode("   ", true, &v)
	tester.ErrIs(t, err, ErrMalformed)
}

func TestExtract_NeverReturnsValueNestedInBrokenOne(t *testing.T) {
	for _, in := range []string{
		`{"result": {"isCorrect": true, "feedback": "ممتاز"}, "note": oops}`,
		`[{"isCorrect": true}, oops]`,
		`{"result": {"isCorrect": true}`,
	} {
		got, err := Extract(in)
		tester.ErrIs(t, err, ErrMalformed, in)
		tester.True(t, got == nil, "no value on failure")
	}
}

func TestDecode_NoLenientFallback(t *testing.T) {
	var v struct {
		Summary string `json:"summary"`
	}
	err := Decode(`"{\"summary\":\"ملخص\"}"`, true, &v)
	tester.ErrIs(t, err, ErrMalformed)
	tester.Eq(t, v.Summary, "")
}

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"a": "<b>&"})
	tester.NoErr(t, err)
	tester.Eq(t, string(b), `{"a":"<b>&"}`)
}
