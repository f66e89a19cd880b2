package study

import (
	"fmt"
	"strings"
)

// QuizMarkdown lists questions as markdown, optionally with answers.
func QuizMarkdown(questions []Question, answers bool) string {
	var b strings.Builder
	b.WriteString("# Quiz\n\n")
	for i, q := range questions {
		b.WriteString(QuestionMarkdown(i, q))
		if answers {
			fmt.Fprintf(&b, "\n**Answer:** %s\n", q.Answer)
			if q.Explanation != "" {
				fmt.Fprintf(&b, "\n_%s_\n", q.Explanation)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// QuestionMarkdown renders question i (zero based) with its options.
func QuestionMarkdown(i int, q Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %d. %s\n\n", i+1, q.Question)
	for _, o := range q.Options {
		fmt.Fprintf(&b, "- %s\n", o)
	}
	if q.Type == QuizTrueFalse && len(q.Options) == 0 {
		b.WriteString("- True\n- False\n")
	}
	return b.String()
}

// ResultMarkdown summarises a graded quiz.
func ResultMarkdown(res Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %d/%d (%d%%)\n\n", res.Verdict, res.Score, res.Total, res.Percent)
	for i, a := range res.Answers {
		mark := "✗"
		if a.Correct {
			mark = "✓"
		}
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, mark, a.Question.Question)
		if !a.Correct {
			given := a.Given
			if given == "" {
				given = "no answer"
			}
			fmt.Fprintf(&b, "   - you said: %s\n   - answer: %s\n", given, a.Question.Answer)
		}
		if a.Question.Explanation != "" {
			fmt.Fprintf(&b, "   - _%s_\n", a.Question.Explanation)
		}
	}
	return b.String()
}

// FlashcardsMarkdown renders one section per card.
func FlashcardsMarkdown(cards []Card) string {
	var b strings.Builder
	b.WriteString("# Flashcards\n\n")
	for i, c := range cards {
		fmt.Fprintf(&b, "## Card %d\n\n**%s**\n\n%s\n\n", i+1, c.Front, c.Back)
	}
	return b.String()
}
