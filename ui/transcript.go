package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/wordwrap"

	"github.com/studybuddy-ai/studybuddy/utils"
)

// markdownRenderer keeps one glamour renderer per wrap width.
type markdownRenderer struct {
	cfg   Config
	width int
	r     *glamour.TermRenderer
}

func newMarkdownRenderer(cfg Config) *markdownRenderer {
	return &markdownRenderer{cfg: cfg}
}

func (mr *markdownRenderer) render(md string, width int) string {
	if !mr.cfg.GlamourEnabled {
		return wordwrap.String(md, max(width, 20))
	}
	if mr.cfg.GlamourMaxWidth > 0 {
		width = min(width, int(mr.cfg.GlamourMaxWidth)) //nolint:gosec
	}
	if mr.r == nil || mr.width != width {
		r, err := glamour.NewTermRenderer(
			utils.GlamourStyle(mr.cfg.GlamourStyle),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			log.Error("error creating glamour renderer", "error", err)
			return md
		}
		mr.r, mr.width = r, width
	}

	out, err := mr.r.Render(md)
	if err != nil {
		log.Error("error rendering markdown", "error", err)
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (m model) renderTranscript() string {
	width := max(20, m.width-4)

	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch e.role {
		case roleUser:
			fmt.Fprintf(&b, "%s\n%s", indent(userLabelStyle("You"), 2), indent(wordwrap.String(e.text, width), 2))
		case roleAssistant:
			b.WriteString(m.renderer.render(e.text, width))
		case roleNotice:
			text := wordwrap.String(e.text, width)
			if strings.HasPrefix(e.text, "Error:") {
				text = errorStyle(text)
			} else {
				text = suggestionStyle(text)
			}
			b.WriteString(indent(text, 2))
		}
	}
	return b.String()
}
