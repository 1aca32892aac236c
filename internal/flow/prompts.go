package flow

import (
	"fmt"

	"medo/internal/types"
)

const assistantSystem = `You are Medo.Ai, a friendly and capable study assistant.
You can:
- explain the content of images and PDF documents,
- solve questions in accounting, mathematics and the other sciences,
- review and fix code and explain the changes,
- answer questions about files the user shares.
Always reply in Arabic.`

const transcribeSystem = `You transcribe audio recordings. Return only the spoken words as plain text, in the language they were spoken, without commentary.`

const transcribeInstruction = "Transcribe this audio file."

func summarizeSystem(language string) string {
	return fmt.Sprintf(`You are an expert at summarizing text. Write a concise summary of the source text.
The summary must be in the same language as the source text, which is %q.`, language)
}

const mindMapSystem = `You structure information into mind maps.
From the provided context (text and/or a file) build a mind map with a central title,
several main ideas branching from it, and key sub-points for each main idea.
Use the language of the context for every node.`

func questionsSystem(n int, qt types.QuestionType, d types.Difficulty) string {
	rules := `For multiple-choice questions: write a clear question, exactly 4 distinct options, one of which is the correct answer copied verbatim into correctAnswer, and a short explanation.`
	if qt == types.QuestionEssay {
		rules = `For essay questions: write a question that needs a developed answer, put a complete ideal answer in correctAnswer, give no options, and outline the key points in explanation.`
	}
	return fmt.Sprintf(`You are an expert educator who writes exam questions.
Detect the language of the provided context and write every question, option, answer and explanation in that language.
Generate exactly %d questions of type %q at %s difficulty.
%s`, n, qt, d, rules)
}

const essaySystem = `You are an expert teacher grading an answer to an essay question.
Compare the user's answer with the ideal answer. It does not need to match word for word, but it must capture the main points; set isCorrect accordingly.
Write constructive feedback: praise what is right, point out what is missing or wrong, and guide the user toward the ideal answer without discouraging them.
All feedback MUST be in Arabic.`

func essayText(r EssayRequest) string {
	return fmt.Sprintf("Question:\n%s\n\nIdeal answer:\n%s\n\nUser's answer:\n%s", r.Question, r.IdealAnswer, r.UserAnswer)
}
