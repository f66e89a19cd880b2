// Package study turns notes and topics into explanations, summaries,
// quizzes and flashcards, and runs the tutor conversation.
package study

import (
	"context"

	"github.com/studybuddy-ai/studybuddy/internal/llm"
)

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, systemPrompt string, temperature float64) (string, error)
}

// Chatter continues a multi-turn conversation.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, error)
}

// Input limits applied before prompting.
const (
	MaxSummaryInput = 6000
	MaxContentInput = 4000
)
