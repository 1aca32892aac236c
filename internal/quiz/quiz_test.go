package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medo/internal/types"
)

func questions() []types.Question {
	return []types.Question{
		{Question: "1+1؟", Options: []string{"1", "2", "3", "4"}, CorrectAnswer: "2", Explanation: "جمع", Type: types.QuestionMultipleChoice},
		{Question: "اشرح الجمع", CorrectAnswer: "ضم عددين", Explanation: "تعريف", Type: types.QuestionEssay},
	}
}

func TestSession_Lifecycle(t *testing.T) {
	var graded []string
	grader := GraderFunc(func(_ context.Context, q, ideal, user string) (types.Correction, error) {
		graded = append(graded, user)
		return types.Correction{IsCorrect: user == ideal, Feedback: "ملاحظة"}, nil
	})
	s, err := NewSession(questions(), grader)
	require.NoError(t, err)
	assert.Equal(t, NotStarted, s.State())

	_, err = s.Answer(context.Background(), "2")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrInvalidTransition)

	q, idx, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, types.QuestionMultipleChoice, q.Type)

	v, err := s.Answer(context.Background(), " 2 ")
	require.NoError(t, err)
	assert.True(t, v.IsCorrect)
	assert.Equal(t, InProgress, s.State())

	v, err = s.Answer(context.Background(), "ضم عددين")
	require.NoError(t, err)
	assert.True(t, v.IsCorrect)
	assert.Equal(t, "ملاحظة", v.Feedback)
	assert.Equal(t, []string{"ضم عددين"}, graded)

	assert.Equal(t, Completed, s.State())
	assert.ErrorIs(t, s.Finish(), ErrInvalidTransition)
	_, err = s.Answer(context.Background(), "x")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	r := s.Result()
	assert.Equal(t, Result{State: "completed", Total: 2, Answered: 2, Correct: 2, Verdicts: r.Verdicts}, r)
}

func TestSession_FinishEarly(t *testing.T) {
	s, err := NewSession(questions(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Finish(), ErrInvalidTransition)
	require.NoError(t, s.Start())

	v, err := s.Answer(context.Background(), "3")
	require.NoError(t, err)
	assert.False(t, v.IsCorrect)

	require.NoError(t, s.Finish())
	r := s.Result()
	assert.Equal(t, "completed", r.State)
	assert.Equal(t, 1, r.Answered)
	assert.Equal(t, 0, r.Correct)
}

func TestSession_Errors(t *testing.T) {
	_, err := NewSession(nil, nil)
	assert.ErrorIs(t, err, ErrNoQuestions)

	boom := errors.New("model down")
	s, err := NewSession(questions()[1:], GraderFunc(func(context.Context, string, string, string) (types.Correction, error) {
		return types.Correction{}, boom
	}))
	require.NoError(t, err)
	require.NoError(t, s.Start())

	_, err = s.Answer(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyAnswer)

	_, err = s.Answer(context.Background(), "answer")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, InProgress, s.State(), "failed grading does not advance")
}
