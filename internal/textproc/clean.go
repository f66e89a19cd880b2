// Package textproc prepares model output for speech: it strips markdown
// markup that sounds wrong when read aloud and splits text into short
// chunks so playback can be interrupted between sentences.
package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emphasisPattern  = regexp.MustCompile(`[*_]{1,3}`)
	headingPattern   = regexp.MustCompile(`(?m)^#+\s*`)
	separatorPattern = regexp.MustCompile(`[-=]{3,}`)
	linkPattern      = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
)

// CleanForSpeech removes markdown syntax so the text reads naturally.
//
// Emphasis markers, heading hashes and horizontal rules are dropped, links
// keep only their label and backticks are removed while the code they wrap
// is kept.
func CleanForSpeech(text string) string {
	if text == "" {
		return ""
	}
	text = emphasisPattern.ReplaceAllString(text, "")
	text = headingPattern.ReplaceAllString(text, "")
	text = separatorPattern.ReplaceAllString(text, "")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "`", "")
	return strings.TrimSpace(text)
}

// Truncate returns at most n runes of text. It never splits a rune.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n])
}
