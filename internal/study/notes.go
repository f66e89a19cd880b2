package study

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muesli/gitcha"
)

// NoteExtensions are the file types read as study notes.
var NoteExtensions = []string{"*.md", "*.markdown", "*.txt", "*.pdf"}

// Note is a discovered notes file.
type Note struct {
	Path string
	Name string
	Size int64
}

// FindNotes lists note files under dir, honouring .gitignore. Results are
// sorted by path.
func FindNotes(dir string, ignore []string) ([]Note, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	ch, err := gitcha.FindFilesExcept(abs, NoteExtensions, ignore)
	if err != nil {
		return nil, err
	}

	var notes []Note
	for res := range ch {
		rel, err := filepath.Rel(abs, res.Path)
		if err != nil {
			rel = res.Path
		}
		n := Note{Path: res.Path, Name: rel}
		if res.Info != nil {
			n.Size = res.Info.Size()
		}
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Path < notes[j].Path })
	return notes, nil
}

// ReadNote returns the text of a note, extracting PDFs.
func ReadNote(ctx context.Context, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return ExtractPDFText(ctx, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
