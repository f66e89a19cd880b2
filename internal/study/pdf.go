package study

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoPDFTool means pdftotext (poppler-utils) is not installed.
var ErrNoPDFTool = errors.New("pdftotext not found in PATH (install poppler-utils)")

// pdfTool is swapped in tests.
var pdfTool = "pdftotext"

// ExtractPDFText returns the text of every page, separated by newlines.
func ExtractPDFText(ctx context.Context, path string) (string, error) {
	bin, err := exec.LookPath(pdfTool)
	if err != nil {
		return "", ErrNoPDFTool
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-enc", "UTF-8", "-layout", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("error reading PDF: %s", msg)
		}
		return "", fmt.Errorf("error reading PDF: %w", err)
	}

	// pdftotext separates pages with form feeds
	text := strings.ReplaceAll(stdout.String(), "\f", "\n")
	return strings.TrimSpace(text), nil
}
