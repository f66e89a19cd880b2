package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/studybuddy-ai/studybuddy/internal/textproc"
)

var (
	speakRaw    bool
	speakProse  bool
	renderOut   string
	renderRaw   bool
	renderProse bool
	errNoInput = errors.New("nothing to read: pass TEXT or pipe it on stdin")

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT|-]",
		Short: "Read text aloud",
		Long: paragraph(fmt.Sprintf("\n%s text on this machine. Markdown is cleaned up first. "+
			"Reads stdin when TEXT is - or when input is piped. Ctrl+C stops speech immediately.", keyword("Speak"))),
		Example: paragraph("studybuddy speak \"Photosynthesis turns light into sugar.\"\ncat notes.md | studybuddy speak"),
		RunE:    runSpeak,
	}

	renderCmd = &cobra.Command{
		Use:     "render [-o FILE] [TEXT|-]",
		Short:   "Render text to an MP3 file",
		Long:    paragraph(fmt.Sprintf("\n%s text to MP3 with the rendering backend and write it to FILE or stdout.", keyword("Render"))),
		Example: paragraph("studybuddy render -o intro.mp3 \"Welcome to biology.\""),
		RunE:    runRender,
	}
)

func init() {
	speakCmd.Flags().BoolVar(&speakRaw, "raw", false, "speak text as-is, without markdown cleaning")
	speakCmd.Flags().BoolVarP(&speakProse, "prose", "p", false, "parse markdown and read only prose, skipping code blocks")
	speakCmd.MarkFlagsMutuallyExclusive("raw", "prose")
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "output file (default stdout)")
	renderCmd.Flags().BoolVar(&renderRaw, "raw", false, "render text as-is, without markdown cleaning")
	renderCmd.Flags().BoolVarP(&renderProse, "prose", "p", false, "parse markdown and render only prose, skipping code blocks")
	renderCmd.MarkFlagsMutuallyExclusive("raw", "prose")
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// readTextArg returns the joined arguments, or stdin for "-" and pipes.
func readTextArg(args []string) (string, error) {
	fromStdin := len(args) == 1 && args[0] == "-"
	if len(args) == 0 {
		yes, err := stdinIsPipe()
		if err != nil {
			return "", err
		}
		fromStdin = yes
	}
	if !fromStdin {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return "", errNoInput
		}
		return text, nil
	}

	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("unable to read from stdin: %w", err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", errNoInput
	}
	return text, nil
}

func speechText(text string, raw bool) string {
	if raw {
		return text
	}
	return textproc.CleanForSpeech(text)
}

// proseText keeps only the prose of a markdown document.
func proseText(text string) string {
	return textproc.CleanForSpeech(textproc.PlainText(text))
}

func runSpeak(cmd *cobra.Command, args []string) error {
	text, err := readTextArg(args)
	if err != nil {
		return err
	}

	v, err := newVoice(cfg.Speech)
	if err != nil {
		return err
	}
	defer v.Close() //nolint:errcheck

	ctx, cancel := interruptContext(cmd.Context())
	defer cancel()

	if speakProse {
		text = proseText(text)
	} else {
		text = speechText(text, speakRaw)
	}
	v.Speak(text)
	if err := v.WaitIdle(ctx); err != nil {
		v.Stop()
		log.Debug("Speech interrupted")
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	text, err := readTextArg(args)
	if err != nil {
		return err
	}
	if renderOut == "" && term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("refusing to write MP3 data to a terminal: use --output or redirect stdout")
	}

	v, err := newVoice(cfg.Speech)
	if err != nil {
		return err
	}
	defer v.Close() //nolint:errcheck

	ctx, cancel := interruptContext(cmd.Context())
	defer cancel()

	if renderProse {
		text = proseText(text)
	} else {
		text = speechText(text, renderRaw)
	}
	mp3 := v.RenderForTransport(ctx, text)
	if mp3 == nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.New("no audio was rendered: check the renderer backend with `studybuddy doctor`")
	}

	if renderOut == "" {
		_, err := os.Stdout.Write(mp3)
		return err
	}
	if err := os.WriteFile(renderOut, mp3, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("unable to write %s: %w", renderOut, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s to %s\n", humanize.Bytes(uint64(len(mp3))), keyword(renderOut))
	return nil
}

// interruptContext is cancelled on Ctrl+C.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}
