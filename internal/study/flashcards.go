package study

import (
	"context"
	"fmt"
	"strings"

	"github.com/studybuddy-ai/studybuddy/internal/textproc"
)

// Card is a flashcard.
type Card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

const flashcardSystem = "You are an expert educational flashcard creator. " +
	"Create concise, clear question-answer pairs that aid memorization. " +
	"You MUST respond with ONLY a valid JSON array, no extra text."

// Flashcards generates n cards about content. Unparseable replies yield an
// empty slice.
func Flashcards(ctx context.Context, g Generator, content string, n int) ([]Card, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("flashcards: %w", ErrEmptyInput)
	}
	if n <= 0 {
		n = 8
	}

	prompt := fmt.Sprintf("Content/Topic: %s\n\n"+
		"Generate exactly %d flashcards.\n"+
		`Respond ONLY with a JSON array of objects with keys "front" (question/term) and "back" (answer/definition).`+"\n"+
		"Make the fronts concise questions or terms, and the backs clear, memorable answers. "+
		"Vary between definitions, key facts, formulas, and conceptual questions.",
		textproc.Truncate(content, MaxContentInput), n)

	raw, err := g.Generate(ctx, prompt, flashcardSystem, 0.5)
	if err != nil {
		return nil, err
	}

	var cards []Card
	if !decodeArray(raw, &cards) {
		return []Card{}, nil
	}
	out := cards[:0]
	for _, c := range cards {
		if strings.TrimSpace(c.Front) != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
