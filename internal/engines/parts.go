package engines

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPartLen is the longest text Google accepts per request.
const MaxPartLen = 100

// splitParts breaks text into pieces of at most maxLen runes, preferring
// punctuation, then spaces. Short neighbours are merged so few requests
// are made.
func splitParts(text string, maxLen int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var parts []string
	cur := ""
	add := func(tok string) {
		tok = strings.TrimSpace(tok)
		if tok == "" || isPunctOnly(tok) {
			return
		}
		switch {
		case cur == "":
			cur = tok
		case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(tok) <= maxLen:
			cur += " " + tok
		default:
			parts = append(parts, cur)
			cur = tok
		}
	}

	for _, tok := range punctTokens(text) {
		if utf8.RuneCountInString(tok) <= maxLen {
			add(tok)
			continue
		}
		for _, piece := range splitAtSpaces(tok, maxLen) {
			add(piece)
		}
	}
	if cur != "" {
		parts = append(parts, cur)
	}
	return parts
}

// punctTokens splits after sentence and clause punctuation, keeping the
// punctuation with the preceding token.
func punctTokens(text string) []string {
	var (
		toks  []string
		start int
	)
	for i, r := range text {
		if strings.ContainsRune(".!?;:,¿¡…", r) {
			end := i + utf8.RuneLen(r)
			toks = append(toks, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		toks = append(toks, text[start:])
	}
	return toks
}

// splitAtSpaces cuts s into pieces of at most maxLen runes at the last
// space that fits; a word longer than maxLen is cut hard.
func splitAtSpaces(s string, maxLen int) []string {
	var out []string
	for utf8.RuneCountInString(s) > maxLen {
		runes := []rune(s)
		cut := -1
		for i := maxLen; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		if cut <= 0 {
			cut = maxLen
		}
		out = append(out, strings.TrimSpace(string(runes[:cut])))
		s = strings.TrimSpace(string(runes[cut:]))
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func isPunctOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
