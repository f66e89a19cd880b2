package ui

import (
	"fmt"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

func (m model) statusBarView(b *strings.Builder) {
	logo := logoView()

	var voice string
	switch {
	case m.speaker == nil:
		voice = voiceOffStyle(" no voice ")
	case m.speaking:
		voice = voiceOnStyle(" ♪ speaking ")
	case m.voice:
		voice = voiceOnStyle(" voice on ")
	default:
		voice = voiceOffStyle(" voice off ")
	}

	helpNote := statusBarHelpStyle(" ctrl+h help ")

	note := m.statusMessage
	if note == "" {
		turns := 0
		for _, e := range m.entries {
			if e.role == roleUser {
				turns++
			}
		}
		note = fmt.Sprintf("%d questions asked", turns)
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(voice)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)

	style := statusBarNoteStyle
	switch {
	case m.statusMessage != "" && m.statusIsError:
		style = statusBarErrorStyle
	case m.statusMessage != "":
		style = statusBarMessageStyle
	}
	note = style(note)

	// Empty space
	padding := max(0,
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(voice)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := style(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		voice,
		helpNote,
	)
}

func (m model) helpView() (s string) {
	keys := []string{
		"enter    send",
		"tab      complete command",
		"esc      cancel / clear",
		"↑/↓      scroll",
		"pgup     half page up",
		"pgdn     half page down",
		"ctrl+s   stop speaking",
		"ctrl+y   copy last reply",
		"ctrl+v   toggle voice",
		"ctrl+c   quit",
	}

	s += "\n"
	for i, c := range slashCommands {
		k := ""
		if i < len(keys) {
			k = keys[i]
		}
		s += fmt.Sprintf("%-26s%-14s%s\n", k, "/"+c.name, c.help)
	}
	s = strings.TrimSuffix(s, "\n")
	s = indent(s, 2)

	// Fill up empty cells with spaces for background coloring
	if m.width > 0 {
		lines := strings.Split(s, "\n")
		for i := 0; i < len(lines); i++ {
			l := runewidth.StringWidth(lines[i])
			n := max(m.width-l, 0)
			lines[i] += strings.Repeat(" ", n)
		}

		s = strings.Join(lines, "\n")
	}

	return helpViewStyle(s)
}
