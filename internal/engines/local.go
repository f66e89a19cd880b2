package engines

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/studybuddy-ai/studybuddy/internal/speech"
)

// DefaultRate is the local speaking rate in words per minute.
const DefaultRate = 150

// LocalConfig configures the local platform voice.
type LocalConfig struct {
	// Rate in words per minute. Defaults to DefaultRate.
	Rate int
	// Voice is passed to the platform tool when set.
	Voice string
	// Command overrides platform detection. Text is written to its stdin.
	Command string
	Args    []string
	// Grace before an interrupted process is killed.
	Grace time.Duration

	Logger *log.Logger
}

// LocalEngine speaks through the platform's speech tool: espeak-ng or
// espeak on Linux, say on macOS, SAPI via PowerShell on Windows.
type LocalEngine struct {
	bin  string
	args []string
	cfg  LocalConfig
	log  *log.Logger

	mu    sync.Mutex
	state speech.BackendState
}

// NewLocal detects the platform voice. It returns ErrUnavailable when no
// speech tool is installed.
func NewLocal(cfg LocalConfig) (*LocalEngine, error) {
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("local")
	}

	e := &LocalEngine{cfg: cfg, log: logger}
	if cfg.Command != "" {
		bin, err := findExecutable(cfg.Command)
		if err != nil {
			return nil, err
		}
		e.bin, e.args = bin, cfg.Args
		return e, nil
	}

	bin, args, err := platformVoice(runtime.GOOS, cfg)
	if err != nil {
		return nil, err
	}
	e.bin, e.args = bin, args
	logger.Debug("Using local voice", "binary", bin)
	return e, nil
}

func platformVoice(goos string, cfg LocalConfig) (string, []string, error) {
	switch goos {
	case "darwin":
		bin, err := findExecutable("say")
		if err != nil {
			return "", nil, err
		}
		args := []string{"-r", strconv.Itoa(cfg.Rate)}
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		return bin, append(args, "-f", "-"), nil

	case "windows":
		bin, err := findExecutable("powershell.exe", "pwsh.exe", "powershell", "pwsh")
		if err != nil {
			return "", nil, err
		}
		return bin, []string{"-NoProfile", "-NonInteractive", "-Command", sapiScript(cfg)}, nil

	default:
		bin, err := findExecutable("espeak-ng", "espeak")
		if err != nil {
			return "", nil, err
		}
		args := []string{"-s", strconv.Itoa(cfg.Rate)}
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		return bin, args, nil
	}
}

// sapiScript reads the text from stdin. SAPI rates run from -10 to 10 with
// 0 at roughly 150 words per minute.
func sapiScript(cfg LocalConfig) string {
	rate := (cfg.Rate - DefaultRate) / 15
	rate = max(-10, min(10, rate))

	var b strings.Builder
	b.WriteString("Add-Type -AssemblyName System.Speech; ")
	b.WriteString("$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; ")
	fmt.Fprintf(&b, "$s.Rate = %d; ", rate)
	if cfg.Voice != "" {
		fmt.Fprintf(&b, "$s.SelectVoice('%s'); ", strings.ReplaceAll(cfg.Voice, "'", "''"))
	}
	b.WriteString("$s.Speak([Console]::In.ReadToEnd())")
	return b.String()
}

// Name implements speech.DirectPlayer.
func (e *LocalEngine) Name() string {
	return "local:" + strings.TrimSuffix(filepath.Base(e.bin), ".exe")
}

// PlayDirect speaks text and returns when the tool exits. Cancelling ctx
// interrupts the tool and leaves the engine needing re-initialisation.
func (e *LocalEngine) PlayDirect(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if st := e.State(); st != speech.BackendReady {
		return fmt.Errorf("%w: local voice is %s", ErrUnavailable, st)
	}

	err := runCommand(ctx, e.cfg.Grace, text, e.bin, e.args...)
	if ctx.Err() != nil {
		e.setState(speech.BackendNeedsReinit)
		return ctx.Err()
	}
	return err
}

// State implements speech.Lifecycle.
func (e *LocalEngine) State() speech.BackendState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *LocalEngine) setState(s speech.BackendState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Reinit implements speech.Lifecycle. The tool is looked up again so an
// uninstalled binary turns the engine unavailable.
func (e *LocalEngine) Reinit() error {
	if _, err := findExecutable(e.bin); err != nil {
		e.setState(speech.BackendUnavailable)
		return err
	}
	e.setState(speech.BackendReady)
	e.log.Debug("Local voice re-initialised")
	return nil
}

var (
	_ speech.DirectPlayer = (*LocalEngine)(nil)
	_ speech.Lifecycle    = (*LocalEngine)(nil)
)
