// Package ui provides the chat TUI for talking with the tutor.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	te "github.com/muesli/termenv"

	"github.com/studybuddy-ai/studybuddy/internal/speech"
	"github.com/studybuddy-ai/studybuddy/internal/study"
	"github.com/studybuddy-ai/studybuddy/internal/textproc"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	speechPollInterval   = 200 * time.Millisecond
	defaultSpeakLimit    = 1500
)

// Tutor holds the conversation. *study.Tutor implements it.
type Tutor interface {
	Ask(ctx context.Context, message string) (string, error)
	Reset()
}

// Speaker reads replies aloud. *speech.Engine implements it.
type Speaker interface {
	Speak(text string)
	Stop()
	Status() speech.Status
}

// NewProgram returns a new Tea program. speaker may be nil when no speech
// backend is available.
func NewProgram(cfg Config, tutor Tutor, gen study.Generator, speaker Speaker) *tea.Program {
	log.Debug("Starting chat", "voice", cfg.Voice, "glamour", cfg.GlamourEnabled)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, tutor, gen, speaker), opts...)
}

type entryRole int

const (
	roleUser entryRole = iota
	roleAssistant
	roleNotice
)

type entry struct {
	role entryRole
	text string
}

type (
	replyMsg struct {
		id       int
		markdown string
		err      error
	}
	speechTickMsg           struct{}
	statusMessageTimeoutMsg struct{}
)

type model struct {
	cfg     Config
	tutor   Tutor
	gen     study.Generator
	speaker Speaker

	width  int
	height int

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	entries   []entry
	lastReply string

	// request in flight
	thinking  bool
	requestID int
	cancel    context.CancelFunc

	voice    bool
	speaking bool
	showHelp bool

	suggestions []slashCommand

	statusMessage      string
	statusIsError      bool
	statusMessageTimer *time.Timer

	renderer *markdownRenderer
}

func newModel(cfg Config, tutor Tutor, gen study.Generator, speaker Speaker) model {
	if cfg.GlamourStyle == styles.AutoStyle || cfg.GlamourStyle == "" {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}
	if cfg.SpeakLimit <= 0 {
		cfg.SpeakLimit = defaultSpeakLimit
	}

	ti := textinput.New()
	ti.Placeholder = "Ask anything, or type / for commands"
	ti.Prompt = "› "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return model{
		cfg:      cfg,
		tutor:    tutor,
		gen:      gen,
		speaker:  speaker,
		viewport: viewport.New(0, 0),
		input:    ti,
		spinner:  sp,
		voice:    cfg.Voice && speaker != nil,
		renderer: newMarkdownRenderer(cfg),
		entries: []entry{{
			role: roleNotice,
			text: "Hi! I'm your study buddy. Ask me anything, or type /help.",
		}},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.speechTick())
}

func (m model) speechTick() tea.Cmd {
	if m.speaker == nil {
		return nil
	}
	return tea.Tick(speechPollInterval, func(time.Time) tea.Msg { return speechTickMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.setSize()
		m.refresh(true)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case replyMsg:
		if msg.id != m.requestID || !m.thinking {
			// cancelled
			return m, nil
		}
		m.thinking = false
		m.cancel = nil
		if msg.err != nil {
			if !errors.Is(msg.err, context.Canceled) {
				m.entries = append(m.entries, entry{roleNotice, "Error: " + msg.err.Error()})
				m.refresh(true)
			}
			return m, nil
		}
		m.entries = append(m.entries, entry{roleAssistant, msg.markdown})
		m.lastReply = msg.markdown
		m.refresh(true)
		m.speak(msg.markdown)
		return m, nil

	case speechTickMsg:
		st := m.speaker.Status()
		m.speaking = st.State != speech.StateIdle.String() || st.Pending > 0
		return m, m.speechTick()

	case statusMessageTimeoutMsg:
		m.statusMessage = ""
		return m, nil

	case spinner.TickMsg:
		if !m.thinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.suggestions = suggestCommands(m.input.Value())
	return m, tea.Batch(cmds...)
}

// handleKey processes keys that are not plain text entry.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.stopSpeech()
		if m.cancel != nil {
			m.cancel()
		}
		return tea.Quit, true

	case "esc":
		switch {
		case m.thinking:
			m.cancelRequest()
			return m.showStatusMessage("Cancelled", false), true
		case m.showHelp:
			m.toggleHelp()
		default:
			m.input.Reset()
			m.suggestions = nil
		}
		return nil, true

	case "ctrl+s":
		m.stopSpeech()
		return m.showStatusMessage("Stopped speaking", false), true

	case "ctrl+y":
		return m.copyLastReply(), true

	case "ctrl+v":
		return m.toggleVoice(), true

	case "ctrl+h", "f1":
		m.toggleHelp()
		return nil, true

	case "tab":
		if len(m.suggestions) > 0 {
			m.input.SetValue("/" + m.suggestions[0].name + " ")
			m.input.CursorEnd()
			m.suggestions = nil
		}
		return nil, true

	case "pgup":
		m.viewport.HalfViewUp()
		return nil, true
	case "pgdown":
		m.viewport.HalfViewDown()
		return nil, true
	case "up":
		m.viewport.LineUp(1)
		return nil, true
	case "down":
		m.viewport.LineDown(1)
		return nil, true
	case "home":
		if m.input.Value() == "" {
			m.viewport.GotoTop()
			return nil, true
		}
	case "end":
		if m.input.Value() == "" {
			m.viewport.GotoBottom()
			return nil, true
		}

	case "enter":
		return m.submit(), true
	}
	return nil, false
}

func (m *model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	m.input.Reset()
	m.suggestions = nil

	if strings.HasPrefix(text, "/") {
		return m.runSlash(text)
	}
	if m.thinking {
		return m.showStatusMessage("Still thinking, press esc to cancel", true)
	}
	if m.tutor == nil {
		m.entries = append(m.entries, entry{roleNotice, "The tutor needs GROQ_API_KEY to be set."})
		m.refresh(true)
		return nil
	}

	m.entries = append(m.entries, entry{roleUser, text})
	m.refresh(true)
	tutor := m.tutor
	return m.startRequest(func(ctx context.Context) (string, error) {
		return tutor.Ask(ctx, text)
	})
}

func (m *model) runSlash(text string) tea.Cmd {
	cmd, args, err := parseSlash(text)
	if err != nil {
		return m.showStatusMessage(err.Error(), true)
	}

	switch cmd.name {
	case "stop":
		m.stopSpeech()
		return m.showStatusMessage("Stopped speaking", false)
	case "voice":
		return m.toggleVoice()
	case "copy":
		return m.copyLastReply()
	case "clear":
		m.cancelRequest()
		m.stopSpeech()
		if m.tutor != nil {
			m.tutor.Reset()
		}
		m.entries = nil
		m.lastReply = ""
		m.refresh(true)
		return m.showStatusMessage("Conversation cleared", false)
	case "help":
		m.toggleHelp()
		return nil
	case "quit":
		m.stopSpeech()
		return tea.Quit
	}

	if m.thinking {
		return m.showStatusMessage("Still thinking, press esc to cancel", true)
	}
	if m.gen == nil {
		return m.showStatusMessage("Study commands need GROQ_API_KEY to be set", true)
	}

	m.entries = append(m.entries, entry{roleUser, text})
	m.refresh(true)
	gen := m.gen
	return m.startRequest(func(ctx context.Context) (string, error) {
		return runStudyCommand(ctx, gen, cmd, args)
	})
}

func (m *model) startRequest(fn func(context.Context) (string, error)) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.requestID++
	m.thinking = true
	m.cancel = cancel
	id := m.requestID

	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		defer cancel()
		out, err := fn(ctx)
		return replyMsg{id: id, markdown: out, err: err}
	})
}

func (m *model) cancelRequest() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.thinking = false
}

func (m *model) speak(markdown string) {
	if !m.voice || m.speaker == nil {
		return
	}
	text := textproc.Truncate(textproc.CleanForSpeech(markdown), m.cfg.SpeakLimit)
	m.speaker.Speak(text)
	m.speaking = text != ""
}

func (m *model) stopSpeech() {
	if m.speaker != nil {
		m.speaker.Stop()
	}
	m.speaking = false
}

func (m *model) toggleVoice() tea.Cmd {
	if m.speaker == nil {
		return m.showStatusMessage("No speech backend available", true)
	}
	m.voice = !m.voice
	if !m.voice {
		m.stopSpeech()
		return m.showStatusMessage("Voice off", false)
	}
	return m.showStatusMessage("Voice on", false)
}

func (m *model) copyLastReply() tea.Cmd {
	if m.lastReply == "" {
		return m.showStatusMessage("Nothing to copy yet", true)
	}
	// Copy using OSC 52
	te.Copy(m.lastReply)
	// Copy using native system clipboard
	_ = clipboard.WriteAll(m.lastReply)
	return m.showStatusMessage("Copied reply", false)
}

func (m *model) toggleHelp() {
	m.showHelp = !m.showHelp
	m.setSize()
}

func (m *model) showStatusMessage(msg string, isError bool) tea.Cmd {
	m.statusMessage = msg
	m.statusIsError = isError
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	t := m.statusMessageTimer
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}

const (
	statusBarHeight  = 1
	inputHeight      = 1
	suggestionHeight = 1
)

func (m *model) setSize() {
	m.viewport.Width = m.width
	h := m.height - statusBarHeight - inputHeight - suggestionHeight
	if m.showHelp {
		h -= strings.Count(m.helpView(), "\n") + 1
	}
	m.viewport.Height = max(0, h)
	m.input.Width = max(0, m.width-4)
}

// refresh re-renders the transcript, optionally scrolling to the end.
func (m *model) refresh(follow bool) {
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m model) View() string {
	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	fmt.Fprint(&b, m.suggestionView()+"\n")
	fmt.Fprint(&b, m.input.View()+"\n")
	m.statusBarView(&b)
	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

func (m model) suggestionView() string {
	if m.thinking {
		return "  " + m.spinner.View() + " " + suggestionStyle("Thinking…")
	}
	if len(m.suggestions) == 0 {
		return ""
	}
	names := make([]string, 0, len(m.suggestions))
	for _, c := range m.suggestions {
		names = append(names, "/"+c.name)
	}
	line := "  " + strings.Join(names, "  ")
	if len(m.suggestions) == 1 {
		line += "  " + m.suggestions[0].usage
	}
	return suggestionStyle(line)
}
