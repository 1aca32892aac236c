package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medo/internal/flow"
	"medo/internal/llm"
	"medo/internal/quiz"
	"medo/internal/types"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	d := deps{
		in:  strings.NewReader(stdin),
		out: &out,
		newService: func(context.Context, string) (*flow.Service, func(), error) {
			return flow.NewService(llm.NewFakeClient()), nil, nil
		},
	}
	cmd := newRootCmd(d)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummarize(t *testing.T) {
	out, err := run(t, "", "summarize", "--text", "نص طويل عن الخلية")
	require.NoError(t, err)
	var res flow.TextResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "ملخص تجريبي للنص.", res.Text)
}

func TestSummarize_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lesson.txt")
	require.NoError(t, os.WriteFile(path, []byte("الدرس الأول"), 0o644))
	_, err := run(t, "", "summarize", "--input", path)
	require.NoError(t, err)
}

func TestSummarize_BlankIsRejected(t *testing.T) {
	_, err := run(t, "", "summarize", "--text", "   ")
	require.Error(t, err)
	kind, ok := flow.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, flow.KindInvalidInput, kind)
}

func TestSpeakWritesWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	_, err := run(t, "", "speak", "--text", "مرحبا", "--voice", "Spica", "--out", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("RIFF")))
}

func TestQuestionsThenQuiz(t *testing.T) {
	out, err := run(t, "", "questions", "--text", "الخلية", "--count", "2")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))

	// Option 1 is the fake's correct answer.
	out, err = run(t, "1\n", "quiz", "--questions", path)
	require.NoError(t, err)
	var res quiz.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, "completed", res.State)
}

func TestQuiz_RunsOutOfInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	qs := []types.Question{
		{Question: "س1", Options: []string{"أ", "ب"}, CorrectAnswer: "ب", Type: types.QuestionMultipleChoice},
		{Question: "س2", CorrectAnswer: "ج", Type: types.QuestionEssay},
	}
	data, err := json.Marshal(qs)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := run(t, "أ\n", "quiz", "--questions", path)
	require.NoError(t, err)
	var res quiz.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Answered)
	assert.Equal(t, 0, res.Correct)
}

func TestPickOption(t *testing.T) {
	q := types.Question{Options: []string{"أ", "ب", "ج", "د"}, Type: types.QuestionMultipleChoice}
	assert.Equal(t, "ج", pickOption(q, " 3 "))
	assert.Equal(t, "9", pickOption(q, "9"))
	assert.Equal(t, "ب", pickOption(q, "ب"))
	assert.Equal(t, "1", pickOption(types.Question{Type: types.QuestionEssay}, "1"))
}

func TestFileRef(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	ref, err := fileRef(path)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ref.MIMEType)
	assert.Equal(t, "notes.pdf", ref.Name)
	assert.True(t, strings.HasPrefix(ref.URL, "data:application/pdf;base64,"))
}

func TestFileRef_SniffsContentOverExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lecture.bin")
	data := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	ref, err := fileRef(path)
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", ref.MIMEType)
}
