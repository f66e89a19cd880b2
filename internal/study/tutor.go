package study

import (
	"context"
	"fmt"
	"strings"

	"github.com/studybuddy-ai/studybuddy/internal/llm"
)

// TutorSystemPrompt is the persona of the chat tutor.
const TutorSystemPrompt = `You are StudyBuddy AI, a friendly, patient, and knowledgeable academic tutor.
Your job is to help students understand concepts, answer questions, clarify doubts, and make learning enjoyable.
Guidelines:
- Be encouraging and supportive
- Use simple language first, then add depth if asked
- Give examples and analogies when helpful
- Structure longer answers with markdown headers and bullet points
- If a student seems confused, offer to re-explain in a different way
- Keep responses focused and educational`

const (
	// HistoryTurns is how many previous messages are sent for context.
	HistoryTurns     = 20
	tutorTemperature = 0.7
	tutorMaxTokens   = 1024
)

// Tutor keeps a conversation with the study assistant.
type Tutor struct {
	chat    Chatter
	history []llm.Message
}

// NewTutor returns a tutor with an empty history.
func NewTutor(c Chatter) *Tutor {
	return &Tutor{chat: c}
}

// Reply answers message given an explicit history, without touching the
// tutor's own history. The HTTP API is stateless and uses this.
func Reply(ctx context.Context, c Chatter, message string, history []llm.Message) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("tutor: %w", ErrEmptyInput)
	}
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: TutorSystemPrompt})
	for _, m := range history {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			msgs = append(msgs, m)
		}
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})
	return c.Chat(ctx, msgs, tutorTemperature, tutorMaxTokens)
}

// Ask sends message and records both turns on success.
func (t *Tutor) Ask(ctx context.Context, message string) (string, error) {
	reply, err := Reply(ctx, t.chat, message, t.history)
	if err != nil {
		return "", err
	}
	t.history = append(t.history,
		llm.Message{Role: llm.RoleUser, Content: strings.TrimSpace(message)},
		llm.Message{Role: llm.RoleAssistant, Content: reply},
	)
	return reply, nil
}

// History returns a copy of the conversation.
func (t *Tutor) History() []llm.Message {
	return append([]llm.Message(nil), t.history...)
}

// LastReply returns the most recent assistant message.
func (t *Tutor) LastReply() string {
	for i := len(t.history) - 1; i >= 0; i-- {
		if t.history[i].Role == llm.RoleAssistant {
			return t.history[i].Content
		}
	}
	return ""
}

// Reset clears the conversation.
func (t *Tutor) Reset() { t.history = nil }
