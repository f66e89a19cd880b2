package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/study"
)

// slashCommand is a command typed as "/name args".
type slashCommand struct {
	name  string
	usage string
	help  string
}

var slashCommands = []slashCommand{
	{"explain", "/explain [eli5|standard|advanced] TOPIC", "explain a topic"},
	{"summarize", "/summarize FILE", "summarize a notes file"},
	{"quiz", "/quiz TOPIC", "write five questions with answers"},
	{"flashcards", "/flashcards TOPIC", "make flashcards"},
	{"stop", "/stop", "stop speaking"},
	{"voice", "/voice", "toggle spoken replies"},
	{"copy", "/copy", "copy the last reply"},
	{"clear", "/clear", "forget the conversation"},
	{"help", "/help", "show keys and commands"},
	{"quit", "/quit", "exit"},
}

type commandNames []slashCommand

func (c commandNames) String(i int) string { return c[i].name }
func (c commandNames) Len() int            { return len(c) }

// suggestCommands fuzzy-matches the command word being typed. It returns
// nothing once the user has moved on to arguments.
func suggestCommands(input string) []slashCommand {
	if !strings.HasPrefix(input, "/") || strings.ContainsAny(input, " \t") {
		return nil
	}
	pattern := strings.TrimPrefix(input, "/")
	if pattern == "" {
		return slashCommands
	}
	matches := fuzzy.FindFrom(pattern, commandNames(slashCommands))
	out := make([]slashCommand, 0, len(matches))
	for _, m := range matches {
		out = append(out, slashCommands[m.Index])
	}
	return out
}

// parseSlash splits "/name args" and resolves unique fuzzy prefixes, so
// "/expl atoms" runs explain.
func parseSlash(input string) (slashCommand, string, error) {
	name, args, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(input), "/"), " ")
	args = strings.TrimSpace(args)
	for _, c := range slashCommands {
		if c.name == name {
			return c, args, nil
		}
	}
	matches := suggestCommands("/" + name)
	if len(matches) == 0 {
		return slashCommand{}, "", fmt.Errorf("unknown command /%s, try /help", name)
	}
	return matches[0], args, nil
}

var errUsage = errors.New("usage")

// runStudyCommand executes the commands that call the model and returns
// markdown for the transcript.
func runStudyCommand(ctx context.Context, g study.Generator, cmd slashCommand, args string) (string, error) {
	if args == "" {
		return "", fmt.Errorf("%w: %s", errUsage, cmd.usage)
	}

	switch cmd.name {
	case "explain":
		level := study.LevelStandard
		if first, rest, ok := strings.Cut(args, " "); ok {
			for _, l := range study.Levels() {
				if strings.EqualFold(first, string(l)) {
					level, args = l, strings.TrimSpace(rest)
				}
			}
		}
		return study.Explain(ctx, g, args, level)

	case "summarize":
		text, err := study.ReadNote(ctx, config.ExpandPath(args))
		if err != nil {
			return "", fmt.Errorf("unable to read %s: %w", args, err)
		}
		return study.Summarize(ctx, g, text)

	case "quiz":
		qs, err := study.Quiz(ctx, g, args, 5, study.QuizMCQ)
		if err != nil {
			return "", err
		}
		if len(qs) == 0 {
			return "", errors.New("no usable questions came back, try again")
		}
		return study.QuizMarkdown(qs, true), nil

	case "flashcards":
		cards, err := study.Flashcards(ctx, g, args, 8)
		if err != nil {
			return "", err
		}
		if len(cards) == 0 {
			return "", errors.New("no usable flashcards came back, try again")
		}
		return study.FlashcardsMarkdown(cards), nil
	}
	return "", fmt.Errorf("/%s does not take arguments", cmd.name)
}
