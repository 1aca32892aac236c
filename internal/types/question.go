package types

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidOutput marks a model value that breaks its shape invariants.
var ErrInvalidOutput = errors.New("types: invalid model output")

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionEssay          QuestionType = "essay"
)

func (t QuestionType) Valid() bool {
	return t == QuestionMultipleChoice || t == QuestionEssay
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// MultipleChoiceOptions is the required option count.
const MultipleChoiceOptions = 4

// Question is one generated quiz item.
type Question struct {
	Question      string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer"`
	Explanation   string       `json:"explanation"`
	Type          QuestionType `json:"type"`
}

// Normalize trims every text field in place.
func (q *Question) Normalize() {
	q.Question = strings.TrimSpace(q.Question)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
	q.Explanation = strings.TrimSpace(q.Explanation)
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(q.Options[i])
	}
}

// Validate checks the per-type invariant: a multiple-choice item has four
// distinct non-empty options containing the correct answer; an essay item
// has no options and a non-empty ideal answer.
func (q Question) Validate(want QuestionType) error {
	if q.Type != want {
		return fmt.Errorf("%w: question type %q, requested %q", ErrInvalidOutput, q.Type, want)
	}
	if q.Question == "" {
		return fmt.Errorf("%w: empty question text", ErrInvalidOutput)
	}
	if q.CorrectAnswer == "" {
		return fmt.Errorf("%w: empty correct answer", ErrInvalidOutput)
	}
	if q.Explanation == "" {
		return fmt.Errorf("%w: empty explanation", ErrInvalidOutput)
	}
	switch q.Type {
	case QuestionMultipleChoice:
		if len(q.Options) != MultipleChoiceOptions {
			return fmt.Errorf("%w: %d options, want %d", ErrInvalidOutput, len(q.Options), MultipleChoiceOptions)
		}
		seen := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			if o == "" {
				return fmt.Errorf("%w: empty option", ErrInvalidOutput)
			}
			if _, dup := seen[o]; dup {
				return fmt.Errorf("%w: duplicate option %q", ErrInvalidOutput, o)
			}
			seen[o] = struct{}{}
		}
		if !slices.Contains(q.Options, q.CorrectAnswer) {
			return fmt.Errorf("%w: correct answer %q is not an option", ErrInvalidOutput, q.CorrectAnswer)
		}
	case QuestionEssay:
		if len(q.Options) != 0 {
			return fmt.Errorf("%w: essay question carries %d options", ErrInvalidOutput, len(q.Options))
		}
	}
	return nil
}
