// Package utils holds helpers shared by the CLI and the TUI.
package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/studybuddy-ai/studybuddy/internal/config"
)

// GlamourStyle returns a glamour option for a style name or JSON path.
func GlamourStyle(style string) glamour.TermRendererOption {
	if style == "" || style == styles.AutoStyle {
		return glamour.WithAutoStyle()
	}
	return glamour.WithStylePath(config.ExpandPath(style))
}

// ValidateStyle checks that style is a built-in style or an existing file.
func ValidateStyle(style string) error {
	if style == "" || style == styles.AutoStyle || styles.DefaultStyles[style] != nil {
		return nil
	}
	path := config.ExpandPath(style)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("specified style does not exist: %s", style)
	} else if err != nil {
		return fmt.Errorf("unable to stat file: %w", err)
	}
	return nil
}

// NewRenderer returns a markdown renderer wrapping at width.
func NewRenderer(style string, width int) (*glamour.TermRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		GlamourStyle(style),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create renderer: %w", err)
	}
	return r, nil
}

// RenderMarkdown renders md, returning it unchanged if rendering fails.
func RenderMarkdown(md, style string, width int) string {
	r, err := NewRenderer(style, width)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
