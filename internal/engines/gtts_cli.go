package engines

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/studybuddy-ai/studybuddy/internal/speech"
)

// GTTSCLIConfig configures the gtts-cli renderer.
type GTTSCLIConfig struct {
	Language string
	Slow     bool
	// Binary defaults to gtts-cli from PATH.
	Binary  string
	TempDir string
	Grace   time.Duration
	Logger  *log.Logger
}

// GTTSCLIEngine renders MP3 by running gtts-cli into a temporary file.
type GTTSCLIEngine struct {
	cfg GTTSCLIConfig
	bin string
	log *log.Logger
}

// NewGTTSCLI returns ErrUnavailable when gtts-cli is not installed.
func NewGTTSCLI(cfg GTTSCLIConfig) (*GTTSCLIEngine, error) {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Binary == "" {
		cfg.Binary = "gtts-cli"
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	bin, err := findExecutable(cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w\n\nInstall with: pip install gtts", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("gtts-cli")
	}
	return &GTTSCLIEngine{cfg: cfg, bin: bin, log: logger}, nil
}

// Name implements speech.Renderer.
func (e *GTTSCLIEngine) Name() string { return "gtts-cli" }

// Language returns the configured language code.
func (e *GTTSCLIEngine) Language() string { return e.cfg.Language }

// Render implements speech.Renderer. The temporary MP3 is removed on every
// path.
func (e *GTTSCLIEngine) Render(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	f, err := os.CreateTemp(e.cfg.TempDir, "studybuddy-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp MP3 file: %w", err)
	}
	name := f.Name()
	f.Close()
	defer os.Remove(name)

	args := []string{"-l", e.cfg.Language}
	if e.cfg.Slow {
		args = append(args, "--slow")
	}
	args = append(args, "-o", name, "-")

	if err := runCommand(ctx, e.cfg.Grace, text, e.bin, args...); err != nil {
		return nil, err
	}

	audio, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read MP3 output: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	return audio, nil
}

var _ speech.Renderer = (*GTTSCLIEngine)(nil)
