// Package quiz runs a generated question set as an explicit state machine:
// NotStarted -> InProgress -> Completed.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"medo/internal/types"
)

type State int

const (
	NotStarted State = iota
	InProgress
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case InProgress:
		return "in-progress"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrInvalidTransition = errors.New("quiz: invalid transition")
	ErrNoQuestions       = errors.New("quiz: no questions")
	ErrEmptyAnswer       = errors.New("quiz: empty answer")
)

// Grader judges an essay answer. The correctEssay flow satisfies it through
// GraderFunc.
type Grader interface {
	Grade(ctx context.Context, question, idealAnswer, userAnswer string) (types.Correction, error)
}

type GraderFunc func(ctx context.Context, question, idealAnswer, userAnswer string) (types.Correction, error)

func (f GraderFunc) Grade(ctx context.Context, question, idealAnswer, userAnswer string) (types.Correction, error) {
	return f(ctx, question, idealAnswer, userAnswer)
}

// Verdict is the outcome of one answered question.
type Verdict struct {
	Index     int    `json:"index"`
	Answer    string `json:"answer"`
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback,omitempty"`
}

// Result summarizes a session.
type Result struct {
	State    string    `json:"state"`
	Total    int       `json:"total"`
	Answered int       `json:"answered"`
	Correct  int       `json:"correct"`
	Verdicts []Verdict `json:"verdicts"`
}

// Session walks the questions in order. It is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	questions []types.Question
	grader    Grader
	state     State
	cursor    int
	verdicts  []Verdict
}

func NewSession(questions []types.Question, grader Grader) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &Session{questions: append([]types.Question(nil), questions...), grader: grader}, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the question awaiting an answer.
func (s *Session) Current() (types.Question, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return types.Question{}, 0, fmt.Errorf("%w: no current question while %s", ErrInvalidTransition, s.state)
	}
	return s.questions[s.cursor], s.cursor, nil
}

func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != NotStarted {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, s.state)
	}
	s.state = InProgress
	return nil
}

// Answer scores the current question and advances. Multiple-choice answers
// are matched exactly after trimming; essay answers go to the grader.
// Answering the last question completes the session.
func (s *Session) Answer(ctx context.Context, answer string) (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return Verdict{}, fmt.Errorf("%w: answer while %s", ErrInvalidTransition, s.state)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Verdict{}, ErrEmptyAnswer
	}

	q := s.questions[s.cursor]
	v := Verdict{Index: s.cursor, Answer: answer}
	switch q.Type {
	case types.QuestionEssay:
		if s.grader == nil {
			return Verdict{}, errors.New("quiz: essay question without a grader")
		}
		c, err := s.grader.Grade(ctx, q.Question, q.CorrectAnswer, answer)
		if err != nil {
			return Verdict{}, fmt.Errorf("quiz: grade question %d: %w", s.cursor, err)
		}
		v.IsCorrect, v.Feedback = c.IsCorrect, c.Feedback
	default:
		v.IsCorrect = answer == strings.TrimSpace(q.CorrectAnswer)
		v.Feedback = q.Explanation
	}

	s.verdicts = append(s.verdicts, v)
	s.cursor++
	if s.cursor == len(s.questions) {
		s.state = Completed
	}
	return v, nil
}

// Finish ends an in-progress session early; unanswered questions count as
// wrong.
func (s *Session) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return fmt.Errorf("%w: finish while %s", ErrInvalidTransition, s.state)
	}
	s.state = Completed
	return nil
}

func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Result{
		State:    s.state.String(),
		Total:    len(s.questions),
		Answered: len(s.verdicts),
		Verdicts: append([]Verdict(nil), s.verdicts...),
	}
	for _, v := range s.verdicts {
		if v.IsCorrect {
			r.Correct++
		}
	}
	return r
}
