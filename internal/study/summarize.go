package study

import (
	"context"
	"fmt"
	"strings"

	"github.com/studybuddy-ai/studybuddy/internal/textproc"
)

const summarizeSystem = "You are an expert academic summarizer. Your job is to condense study material " +
	"into clear, structured summaries that help students retain information efficiently. " +
	"Always use markdown formatting."

// Summarize condenses notes into a summary, key points, terms and study
// tips. Only the first MaxSummaryInput characters are sent.
func Summarize(ctx context.Context, g Generator, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("summarize: %w", ErrEmptyInput)
	}

	prompt := "Here are the study notes to summarize:\n\n---\n" +
		textproc.Truncate(text, MaxSummaryInput) + "\n---\n\n" +
		"Please provide:\n" +
		"## 📝 Summary\n(A concise 3-5 sentence overview)\n\n" +
		"## 🔑 Key Points\n(Bullet list of the most important takeaways)\n\n" +
		"## 📚 Important Terms & Definitions\n(A brief glossary of key terms)\n\n" +
		"## 💡 Study Tips\n(2-3 actionable tips for mastering this material)"
	return g.Generate(ctx, prompt, summarizeSystem, 0.4)
}
