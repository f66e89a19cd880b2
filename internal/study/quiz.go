package study

import (
	"context"
	"fmt"
	"strings"

	"github.com/studybuddy-ai/studybuddy/internal/textproc"
)

// QuizType selects the question format.
type QuizType string

const (
	QuizMCQ         QuizType = "mcq"
	QuizTrueFalse   QuizType = "tf"
	QuizShortAnswer QuizType = "sa"
)

// ParseQuizType accepts the short codes and the display names. Unknown
// names fall back to multiple choice.
func ParseQuizType(s string) QuizType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tf", "true/false", "truefalse", "true-false":
		return QuizTrueFalse
	case "sa", "short", "short answer", "short-answer":
		return QuizShortAnswer
	default:
		return QuizMCQ
	}
}

// Label is the human name used in prompts.
func (t QuizType) Label() string {
	switch t {
	case QuizTrueFalse:
		return "True/False"
	case QuizShortAnswer:
		return "Short Answer"
	default:
		return "MCQ"
	}
}

func (t QuizType) format() string {
	switch t {
	case QuizTrueFalse:
		return `a JSON array of objects, each with keys: "type" (always "tf"), "question", ` +
			`"answer" (string "True" or "False"), "explanation" (brief reason why)`
	case QuizShortAnswer:
		return `a JSON array of objects, each with keys: "type" (always "sa"), "question", ` +
			`"answer" (a concise correct answer), "explanation" (brief elaboration)`
	default:
		return `a JSON array of objects, each with keys: "type" (always "mcq"), "question", ` +
			`"options" (array of 4 strings like ["A) ...", "B) ...", "C) ...", "D) ..."]), ` +
			`"answer" (the correct option letter, e.g. "A"), "explanation" (brief reason why)`
	}
}

// Question is one generated quiz question.
type Question struct {
	Type        QuizType `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

type rawQuestion struct {
	Type        string      `json:"type"`
	Question    string      `json:"question"`
	Options     []string    `json:"options"`
	Answer      looseString `json:"answer"`
	Explanation string      `json:"explanation"`
}

const quizSystem = "You are an expert quiz creator for students. Generate clear, educational quiz questions. " +
	"You MUST respond with ONLY a valid JSON array, no extra text before or after."

// Quiz generates n questions about content. A reply that holds no
// parseable JSON array yields an empty slice, not an error.
func Quiz(ctx context.Context, g Generator, content string, n int, qt QuizType) ([]Question, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("quiz: %w", ErrEmptyInput)
	}
	if n <= 0 {
		n = 5
	}

	prompt := fmt.Sprintf("Content/Topic: %s\n\n"+
		"Generate exactly %d %s questions about this content.\n"+
		"Respond ONLY with %s.\n"+
		"Ensure questions are varied, educational, and test real understanding.",
		textproc.Truncate(content, MaxContentInput), n, qt.Label(), qt.format())

	raw, err := g.Generate(ctx, prompt, quizSystem, 0.6)
	if err != nil {
		return nil, err
	}
	return parseQuestions(raw, qt), nil
}

func parseQuestions(raw string, qt QuizType) []Question {
	var items []rawQuestion
	if !decodeArray(raw, &items) {
		return []Question{}
	}

	out := make([]Question, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Question) == "" {
			continue
		}
		t := QuizType(strings.ToLower(it.Type))
		if t != QuizMCQ && t != QuizTrueFalse && t != QuizShortAnswer {
			t = qt
		}
		out = append(out, Question{
			Type:        t,
			Question:    it.Question,
			Options:     it.Options,
			Answer:      strings.TrimSpace(string(it.Answer)),
			Explanation: it.Explanation,
		})
	}
	return out
}

// GradedAnswer is the outcome for one question.
type GradedAnswer struct {
	Question Question `json:"question"`
	Given    string   `json:"given"`
	Correct  bool     `json:"correct"`
}

// Result summarises a graded quiz.
type Result struct {
	Score   int            `json:"score"`
	Total   int            `json:"total"`
	Percent int            `json:"percent"`
	Verdict string         `json:"verdict"`
	Answers []GradedAnswer `json:"answers"`
}

// Grade scores answers against questions by index. Multiple choice
// compares option letters, so "b) Mitochondria" matches "B".
func Grade(questions []Question, answers map[int]string) Result {
	r := Result{Total: len(questions)}
	for i, q := range questions {
		given := strings.TrimSpace(answers[i])
		ok := false
		switch q.Type {
		case QuizMCQ:
			ok = given != "" && strings.EqualFold(optionLetter(given), optionLetter(q.Answer))
		default:
			ok = given != "" && strings.EqualFold(given, q.Answer)
		}
		if ok {
			r.Score++
		}
		r.Answers = append(r.Answers, GradedAnswer{Question: q, Given: given, Correct: ok})
	}
	if r.Total > 0 {
		r.Percent = r.Score * 100 / r.Total
	}
	r.Verdict = verdict(r.Percent)
	return r
}

// optionLetter reduces "B) text" or "b" to "B".
func optionLetter(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[1] == ')' || s[1] == '.') {
		return strings.ToUpper(s[:1])
	}
	return strings.ToUpper(s)
}

func verdict(pct int) string {
	switch {
	case pct >= 80:
		return "Excellent!"
	case pct >= 60:
		return "Good Job!"
	case pct >= 40:
		return "Keep Studying!"
	default:
		return "Don't Give Up!"
	}
}
