package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"medo/internal/flow"
	"medo/internal/quiz"
	"medo/internal/types"
)

func (c *cli) quizCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Take a quiz interactively from a questions file",
		Long: "Reads the output of `medoctl questions` (or a bare JSON array of questions),\n" +
			"asks each question on stderr and reads one answer per line from stdin.\n" +
			"Essay answers are graded by the correctEssay flow. The result is printed as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			questions, err := loadQuestions(path)
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *flow.Service) error {
				res, err := c.runQuiz(ctx, questions, svc, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				return c.printJSON(res)
			})
		},
	}
	cmd.Flags().StringVarP(&path, "questions", "q", "", "Questions JSON file (required)")
	_ = cmd.MarkFlagRequired("questions")
	return cmd
}

func loadQuestions(path string) ([]types.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var wrapped flow.QuestionsResponse
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Questions) > 0 {
		return wrapped.Questions, nil
	}
	var bare []types.Question
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("parse %s: expected a questions object or array", path)
	}
	return bare, nil
}

func (c *cli) runQuiz(ctx context.Context, questions []types.Question, grader quiz.Grader, prompts io.Writer) (quiz.Result, error) {
	s, err := quiz.NewSession(questions, grader)
	if err != nil {
		return quiz.Result{}, err
	}
	if err := s.Start(); err != nil {
		return quiz.Result{}, err
	}

	lines := bufio.NewScanner(c.in)
	for s.State() == quiz.InProgress {
		q, i, err := s.Current()
		if err != nil {
			return quiz.Result{}, err
		}
		fmt.Fprintf(prompts, "\n[%d/%d] %s\n", i+1, len(questions), q.Question)
		for n, opt := range q.Options {
			fmt.Fprintf(prompts, "  %d) %s\n", n+1, opt)
		}
		fmt.Fprint(prompts, "> ")

		if !lines.Scan() {
			// Input ran out; the rest counts as unanswered.
			if err := s.Finish(); err != nil {
				return quiz.Result{}, err
			}
			break
		}
		answer := pickOption(q, lines.Text())
		v, err := s.Answer(ctx, answer)
		if errors.Is(err, quiz.ErrEmptyAnswer) {
			fmt.Fprintln(prompts, "(answer required)")
			continue
		}
		if err != nil {
			return quiz.Result{}, err
		}
		mark := "✗"
		if v.IsCorrect {
			mark = "✓"
		}
		fmt.Fprintf(prompts, "%s %s\n", mark, v.Feedback)
	}
	if err := lines.Err(); err != nil {
		return quiz.Result{}, fmt.Errorf("read answers: %w", err)
	}
	return s.Result(), nil
}

// pickOption maps a 1-based option number to the option text for
// multiple-choice questions.
func pickOption(q types.Question, line string) string {
	line = strings.TrimSpace(line)
	if q.Type == types.QuestionEssay {
		return line
	}
	var n int
	if _, err := fmt.Sscanf(line, "%d", &n); err == nil && fmt.Sprint(n) == line && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1]
	}
	return line
}
