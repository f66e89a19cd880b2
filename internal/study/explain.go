package study

import (
	"context"
	"fmt"
	"strings"
)

// Level is the depth of an explanation.
type Level string

const (
	LevelELI5     Level = "eli5"
	LevelStandard Level = "standard"
	LevelAdvanced Level = "advanced"
)

var levelInstructions = map[Level]string{
	LevelELI5:     "Explain like I'm 5 years old. Use very simple language, short sentences, everyday analogies, and a friendly tone. Avoid jargon.",
	LevelStandard: "Explain clearly for a high school or college student. Use proper terminology but keep it accessible.",
	LevelAdvanced: "Give a comprehensive, in-depth explanation suitable for a graduate student or professional. Include technical details, mechanisms, and real-world applications.",
}

// Levels lists the accepted levels in display order.
func Levels() []Level { return []Level{LevelELI5, LevelStandard, LevelAdvanced} }

// ParseLevel accepts level names case-insensitively. Unknown names fall back
// to LevelStandard.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eli5", "simple", "easy":
		return LevelELI5
	case "advanced", "expert", "deep":
		return LevelAdvanced
	default:
		return LevelStandard
	}
}

const explainSystem = "You are an expert educational tutor who excels at breaking down complex topics. " +
	"Always structure your response with: a short intro, clear explanation, a real-world example, " +
	"and a quick summary. Use markdown formatting with headers and bullet points."

// Explain describes topic at the given level as markdown.
func Explain(ctx context.Context, g Generator, topic string, level Level) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("explain: %w", ErrEmptyInput)
	}
	instruction, ok := levelInstructions[level]
	if !ok {
		instruction = levelInstructions[LevelStandard]
	}

	prompt := fmt.Sprintf("Topic: %s\n\nInstruction: %s\n\n"+
		"Please explain this topic following the structure: "+
		"## 📖 What is it?, ## 🔍 How it works, ## 🌍 Real-World Example, ## ✅ Quick Summary",
		topic, instruction)
	return g.Generate(ctx, prompt, explainSystem, 0.7)
}
