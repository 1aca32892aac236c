package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"medo/internal/flow"
	"medo/internal/safeio"
	"medo/internal/types"
)

func (c *cli) askCmd() *cobra.Command {
	var promptText, file string
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask the study assistant a question, optionally about a file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := optionalRef(file)
			if err != nil {
				return err
			}
			req := flow.AssistantRequest{Prompt: promptText, File: ref}
			if req.Prompt == "" && ref != nil {
				req.Prompt = flow.DefaultFilePrompt(ref.Name)
			}
			return c.withService(cmd, func(ctx context.Context, svc *flow.Service) error {
				res, err := svc.Assistant(ctx, req)
				if err != nil {
					return err
				}
				return c.printJSON(res)
			})
		},
	}
	cmd.Flags().StringVarP(&promptText, "prompt", "p", "", "Question for the assistant")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Image or PDF to attach")
	return cmd
}

func (c *cli) transcribeCmd() *cobra.Command {
	var audio string
	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe an audio recording",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := fileRef(audio)
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *flow.Service) error {
				res, err := svc.Transcribe(ctx, flow.TranscribeRequest{Audio: *ref})
				if err != nil {
					return err
				}
				return c.printJSON(res)
			})
		},
	}
	cmd.Flags().StringVarP(&audio, "audio", "a", "", "Audio file (required)")
	_ = cmd.MarkFlagRequired("audio")
	return cmd
}

func (c *cli) summarizeCmd() *cobra.Command {
	var text, input, language string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := textOrFile(text, input)
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *flow.Service) error {
				res, err := svc.Summarize(ctx, flow.SummarizeRequest{Text: body, Language: language})
				if err != nil {
					return err
				}
				return c.printJSON(res)
			})
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Text to summarize")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Read the text from a file")
	cmd.Flags().StringVarP(&language, "language", "l", "ar", "Language of the summary")
	return cmd
}

func (c *cli) speakCmd() *cobra.Command {
	var text, voice, out string
	cmd := &cobra.Command{
		Use:   "speak",
		Short: "Synthesize speech and write it as a WAV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *flow.Service) error {
				res, err := svc.SynthesizeSpeech(ctx, flow.SpeechRequest{Text: text, Voice: types.Voice(voice)})
				if err != nil {
					return err
				}
				if err := safeio.WriteFileAtomic(out, res.WAV, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				return c.printJSON(map[string]any{"path": out, "bytes": len(res.WAV), "voice": voice})
			})
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Text to speak")
	cmd.Flags().StringVarP(&voice, "voice", "v", string(types.VoiceAlgenib), "Voice preset")
	cmd.Flags().StringVarP(&out, "out", "o", "speech.wav", "Output WAV path")
	return cmd
}

func (c *cli) mindMapCmd() *cobra.Command {
	var text, input, file string
	cmd := &cobra.Command{
		Use:   "mindmap",
		Short: "Build a mind map from a text or a file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := textOrFile(text, input)
			if err != nil {
				return err
			}
			ref, err := optionalRef(file)
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *flow.Service) error {
				res, err := svc.GenerateMindMap(ctx, flow.MindMapRequest{Text: body, File: ref})
				if err != nil {
					return err
				}
				return c.printJSON(res)
			})
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Source text")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Read the source text from a file")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Image or PDF source")
	return cmd
}

func (c *cli) questionsCmd() *cobra.Command {
	var text, input, file, qType, difficulty string
	var count int
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Generate quiz questions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := textOrFile(text, input)
			if err != nil {
				return err
			}
			ref, err := optionalRef(file)
			if err != nil {
				return err
			}
			req := flow.QuestionsRequest{
				Text:       body,
				File:       ref,
				Count:      count,
				Type:       types.QuestionType(qType),
				Difficulty: types.Difficulty(difficulty),
			}
			return c.withService(cmd, func(ctx context.Context, svc *flow.Service) error {
				res, err := svc.GenerateQuestions(ctx, req)
				if err != nil {
					return err
				}
				return c.printJSON(res)
			})
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Source text")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Read the source text from a file")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Image or PDF source")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "Number of questions (1-20)")
	cmd.Flags().StringVar(&qType, "type", string(types.QuestionMultipleChoice), "multiple-choice or essay")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "easy, medium or hard")
	return cmd
}

func (c *cli) gradeCmd() *cobra.Command {
	var question, ideal, answer string
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Correct an essay answer against the ideal answer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *flow.Service) error {
				res, err := svc.CorrectEssay(ctx, flow.EssayRequest{Question: question, IdealAnswer: ideal, UserAnswer: answer})
				if err != nil {
					return err
				}
				return c.printJSON(res)
			})
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "Essay question")
	cmd.Flags().StringVar(&ideal, "ideal", "", "Ideal answer")
	cmd.Flags().StringVarP(&answer, "answer", "a", "", "Student answer")
	return cmd
}
