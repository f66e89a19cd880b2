package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studybuddy-ai/studybuddy/internal/speech"
)

type mockTutor struct {
	reply  string
	err    error
	asked  []string
	resets int
}

func (t *mockTutor) Ask(_ context.Context, message string) (string, error) {
	t.asked = append(t.asked, message)
	return t.reply, t.err
}

func (t *mockTutor) Reset() { t.resets++ }

type mockSpeaker struct {
	mu     sync.Mutex
	spoken []string
	stops  int
	state  string
}

func (s *mockSpeaker) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
}

func (s *mockSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *mockSpeaker) Status() speech.Status {
	st := s.state
	if st == "" {
		st = "idle"
	}
	return speech.Status{State: st}
}

type mockGenerator struct {
	reply string
}

func (g *mockGenerator) Generate(context.Context, string, string, float64) (string, error) {
	return g.reply, nil
}

func testModel(tutor Tutor, sp Speaker) model {
	m := newModel(Config{GlamourStyle: "notty", Voice: true, SpeakLimit: 12}, tutor, &mockGenerator{reply: "# Atoms"}, sp)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(model)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return nm, cmd
}

func typeText(t *testing.T, m model, s string) model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

// execCmd runs cmd and any batched commands, collecting their messages.
// Only use it on commands that do not wait on timers.
func execCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, execCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findReply(t *testing.T, msgs []tea.Msg) replyMsg {
	t.Helper()
	for _, msg := range msgs {
		if r, ok := msg.(replyMsg); ok {
			return r
		}
	}
	t.Fatalf("no replyMsg in %v", msgs)
	return replyMsg{}
}

func TestSubmitAsksTutorAndSpeaks(t *testing.T) {
	tutor := &mockTutor{reply: "**Mitochondria** make ATP."}
	sp := &mockSpeaker{}
	m := testModel(tutor, sp)

	m = typeText(t, m, "what makes ATP?")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.thinking {
		t.Fatal("expected a request in flight")
	}
	m, _ = update(t, m, findReply(t, execCmd(cmd)))

	if len(tutor.asked) != 1 || tutor.asked[0] != "what makes ATP?" {
		t.Errorf("asked = %q", tutor.asked)
	}
	if m.thinking {
		t.Error("still thinking after reply")
	}
	if m.lastReply != tutor.reply {
		t.Errorf("lastReply = %q", m.lastReply)
	}
	if len(sp.spoken) != 1 || sp.spoken[0] != "Mitochondria" {
		t.Errorf("spoken = %q, want the cleaned reply capped at 12 runes", sp.spoken)
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
}

func TestStaleReplyIgnored(t *testing.T) {
	sp := &mockSpeaker{}
	m := testModel(&mockTutor{reply: "hi"}, sp)

	m = typeText(t, m, "hello")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.thinking {
		t.Fatal("esc should cancel the request")
	}

	m, _ = update(t, m, replyMsg{id: m.requestID, markdown: "late"})
	if m.lastReply != "" || len(sp.spoken) != 0 {
		t.Errorf("cancelled reply was used: last %q spoken %v", m.lastReply, sp.spoken)
	}
}

func TestReplyErrorShownAsNotice(t *testing.T) {
	m := testModel(&mockTutor{}, nil)
	m = typeText(t, m, "hello")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, replyMsg{id: m.requestID, err: errors.New("rate limited")})

	last := m.entries[len(m.entries)-1]
	if last.role != roleNotice || !strings.Contains(last.text, "rate limited") {
		t.Errorf("last entry = %+v", last)
	}
}

func TestKeys(t *testing.T) {
	sp := &mockSpeaker{}
	m := testModel(&mockTutor{}, sp)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if sp.stops != 1 {
		t.Errorf("ctrl+s stops = %d", sp.stops)
	}

	if !m.voice {
		t.Fatal("voice should start on")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlV})
	if m.voice {
		t.Error("ctrl+v should turn voice off")
	}
	if sp.stops != 2 {
		t.Errorf("turning voice off should stop speech, stops = %d", sp.stops)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlV})
	if !m.voice {
		t.Error("ctrl+v should turn voice back on")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if !m.statusIsError || !strings.Contains(m.statusMessage, "Nothing to copy") {
		t.Errorf("status = %q", m.statusMessage)
	}

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not return tea.Quit")
	}
}

func TestVoiceUnavailable(t *testing.T) {
	m := testModel(&mockTutor{}, nil)
	if m.voice {
		t.Error("voice cannot be on without a speaker")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlV})
	if m.voice || !m.statusIsError {
		t.Errorf("voice = %v status %q", m.voice, m.statusMessage)
	}
}

func TestSlashCompletion(t *testing.T) {
	m := testModel(&mockTutor{}, nil)
	m = typeText(t, m, "/fla")
	if len(m.suggestions) == 0 || m.suggestions[0].name != "flashcards" {
		t.Fatalf("suggestions = %+v", m.suggestions)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.input.Value(); got != "/flashcards " {
		t.Errorf("completed to %q", got)
	}
}

func TestSlashClear(t *testing.T) {
	tutor := &mockTutor{}
	sp := &mockSpeaker{}
	m := testModel(tutor, sp)
	m.lastReply = "old"

	m = typeText(t, m, "/clear")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if tutor.resets != 1 || len(m.entries) != 0 || m.lastReply != "" {
		t.Errorf("resets %d entries %d last %q", tutor.resets, len(m.entries), m.lastReply)
	}
	if sp.stops != 1 {
		t.Errorf("stops = %d", sp.stops)
	}
}

func TestSlashStudyCommand(t *testing.T) {
	m := testModel(&mockTutor{}, nil)
	m = typeText(t, m, "/explain eli5 atoms")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.thinking {
		t.Fatal("expected a study request")
	}
	if last := m.entries[len(m.entries)-1]; last.role != roleUser || last.text != "/explain eli5 atoms" {
		t.Errorf("last entry = %+v", last)
	}

	m, _ = update(t, m, findReply(t, execCmd(cmd)))
	if m.lastReply != "# Atoms" {
		t.Errorf("lastReply = %q", m.lastReply)
	}
}

func TestSpeechTick(t *testing.T) {
	sp := &mockSpeaker{state: "playing"}
	m := testModel(&mockTutor{}, sp)
	m, cmd := update(t, m, speechTickMsg{})
	if !m.speaking {
		t.Error("expected speaking while the engine plays")
	}
	if cmd == nil {
		t.Error("tick should reschedule")
	}
	var b strings.Builder
	m.statusBarView(&b)
	if !strings.Contains(b.String(), "speaking") {
		t.Errorf("status bar = %q", b.String())
	}
}

func TestParseSlash(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantArgs string
		wantErr  bool
	}{
		{"/explain atoms", "explain", "atoms", false},
		{"/quiz  the cell ", "quiz", "the cell", false},
		{"/summ notes.md", "summarize", "notes.md", false},
		{"/stop", "stop", "", false},
		{"/zzzz", "", "", true},
	}
	for _, tt := range tests {
		cmd, args, err := parseSlash(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v", tt.in, err)
			continue
		}
		if cmd.name != tt.wantName || args != tt.wantArgs {
			t.Errorf("%q: got %q %q", tt.in, cmd.name, args)
		}
	}
}

func TestRunStudyCommandUsage(t *testing.T) {
	cmd, _, _ := parseSlash("/quiz")
	_, err := runStudyCommand(context.Background(), &mockGenerator{}, cmd, "")
	if !errors.Is(err, errUsage) {
		t.Errorf("err = %v, want usage error", err)
	}
}

func TestRunStudyCommandExplain(t *testing.T) {
	cmd, args, _ := parseSlash("/explain advanced entropy")
	out, err := runStudyCommand(context.Background(), &mockGenerator{reply: "## Entropy"}, cmd, args)
	if err != nil {
		t.Fatal(err)
	}
	if out != "## Entropy" {
		t.Errorf("out = %q", out)
	}
}

func TestView(t *testing.T) {
	m := testModel(&mockTutor{}, &mockSpeaker{})
	v := m.View()
	if !strings.Contains(v, "StudyBuddy") || !strings.Contains(v, "study buddy") {
		t.Errorf("view missing logo or greeting:\n%s", v)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if !strings.Contains(m.View(), "/flashcards") {
		t.Error("help should list slash commands")
	}
}
