package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxChunk is the chunk length used when callers pass zero.
const DefaultMaxChunk = 200

// abbreviations that end in a period without ending the sentence.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "st": true, "vs": true, "etc": true,
	"e.g": true, "i.e": true, "fig": true, "no": true, "approx": true,
	"inc": true, "ltd": true, "co": true, "corp": true,
}

// SplitSentences breaks text into sentence-sized chunks of at most maxLen
// runes. Sentences longer than maxLen are split at word boundaries; a single
// word longer than maxLen becomes its own chunk. Blank lines and list items
// always end a chunk.
func SplitSentences(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunk
	}
	text = norm.NFC.String(text)

	var chunks []string
	for _, line := range splitBlocks(text) {
		for _, s := range sentences(line) {
			chunks = append(chunks, wrap(s, maxLen)...)
		}
	}
	return chunks
}

// splitBlocks separates paragraphs and list items. Single newlines inside
// a paragraph are treated as spaces.
func splitBlocks(text string) []string {
	var (
		blocks []string
		cur    []string
	)
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, " "))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case isListItem(line):
			flush()
			cur = append(cur, line)
		default:
			cur = append(cur, line)
		}
	}
	flush()
	return blocks
}

func isListItem(line string) bool {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "+ ") || strings.HasPrefix(line, "• ") {
		return true
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' '
}

// sentences splits a block at sentence-ending punctuation followed by
// whitespace.
func sentences(block string) []string {
	runes := []rune(block)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := i + 1
		for end < len(runes) && strings.ContainsRune(".!?\"')]", runes[end]) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			i = end - 1
			continue
		}
		if r == '.' && isAbbreviation(runes[start:i], runes[end:]) {
			i = end - 1
			continue
		}
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		start = end
		i = end - 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// isAbbreviation reports whether the word before a period is an
// abbreviation rather than the end of a sentence. after is the text
// following the period.
func isAbbreviation(before, after []rune) bool {
	j := len(before)
	for j > 0 && !unicode.IsSpace(before[j-1]) {
		j--
	}
	word := strings.ToLower(string(before[j:]))
	if word == "" {
		return false
	}
	if abbreviations[word] {
		return true
	}
	// a single letter is an initial only next to another initial, as in
	// "J. R. R. Tolkien"; "vitamin C. It" ends a sentence
	w := []rune(word)
	if len(w) != 1 || !unicode.IsLetter(w[0]) {
		return false
	}
	return isInitial(after) || isInitial(reverseWord(before[:j]))
}

// isInitial reports whether s, after leading spaces, starts with an
// uppercase letter followed by a period.
func isInitial(s []rune) bool {
	i := 0
	for i < len(s) && unicode.IsSpace(s[i]) {
		i++
	}
	return i+1 < len(s) && unicode.IsUpper(s[i]) && s[i+1] == '.' &&
		(i+2 == len(s) || unicode.IsSpace(s[i+2]))
}

// reverseWord returns the last word of s as "X." when it is a single
// letter and a period, so isInitial can test it.
func reverseWord(s []rune) []rune {
	end := len(s)
	for end > 0 && unicode.IsSpace(s[end-1]) {
		end--
	}
	if end >= 2 && s[end-1] == '.' && (end == 2 || unicode.IsSpace(s[end-3])) {
		return s[end-2 : end]
	}
	return nil
}

// wrap splits s into pieces of at most maxLen runes at spaces.
func wrap(s string, maxLen int) []string {
	if len([]rune(s)) <= maxLen {
		return []string{s}
	}
	var (
		out []string
		b   strings.Builder
		n   int
	)
	for _, word := range strings.Fields(s) {
		wl := len([]rune(word))
		if n > 0 && n+1+wl > maxLen {
			out = append(out, b.String())
			b.Reset()
			n = 0
		}
		if n > 0 {
			b.WriteByte(' ')
			n++
		}
		b.WriteString(word)
		n += wl
	}
	if n > 0 {
		out = append(out, b.String())
	}
	return out
}
