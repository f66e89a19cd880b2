package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/studybuddy-ai/studybuddy/internal/study"
	"github.com/studybuddy-ai/studybuddy/utils"
)

var (
	explainLevel  string
	speakResult   bool
	quizCount     int
	quizType      string
	quizAnswer    bool
	cardCount     int
	notesAllFiles bool
	studyStyle    string
	studyWidth    int

	explainCmd = &cobra.Command{
		Use:     "explain TOPIC",
		Short:   "Explain a topic",
		Long:    paragraph(fmt.Sprintf("\n%s any topic at the level you need: eli5, standard or advanced.", keyword("Explain"))),
		Example: paragraph("studybuddy explain --level eli5 \"black holes\""),
		Args:    cobra.MinimumNArgs(1),
		RunE:    runExplain,
	}

	summarizeCmd = &cobra.Command{
		Use:     "summarize [FILE|-]",
		Short:   "Summarize notes",
		Long:    paragraph(fmt.Sprintf("\n%s a notes file (markdown, text or PDF) or text piped on stdin.", keyword("Summarize"))),
		Example: paragraph("studybuddy summarize lecture3.pdf\npbpaste | studybuddy summarize"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runSummarize,
	}

	quizCmd = &cobra.Command{
		Use:     "quiz [FILE|TOPIC|-]",
		Short:   "Generate a quiz",
		Long:    paragraph(fmt.Sprintf("\n%s a quiz about a topic or a notes file. With --answer you answer each question and get graded.", keyword("Generate"))),
		Example: paragraph("studybuddy quiz --count 5 --type tf cells.md\nstudybuddy quiz --answer \"the French revolution\""),
		RunE:    runQuiz,
	}

	flashcardsCmd = &cobra.Command{
		Use:     "flashcards [FILE|TOPIC|-]",
		Short:   "Generate flashcards",
		Long:    paragraph(fmt.Sprintf("\n%s flashcards about a topic or a notes file.", keyword("Generate"))),
		Example: paragraph("studybuddy flashcards --count 10 chemistry.md"),
		RunE:    runFlashcards,
	}

	transcribeCmd = &cobra.Command{
		Use:     "transcribe FILE",
		Short:   "Transcribe a voice recording",
		Long:    paragraph(fmt.Sprintf("\n%s an audio file with Whisper.", keyword("Transcribe"))),
		Example: paragraph("studybuddy transcribe question.m4a"),
		Args:    cobra.ExactArgs(1),
		RunE:    runTranscribe,
	}

	notesCmd = &cobra.Command{
		Use:     "notes [DIR]",
		Short:   "List note files",
		Long:    paragraph(fmt.Sprintf("\n%s markdown, text and PDF notes under DIR, honouring .gitignore.", keyword("List"))),
		Example: paragraph("studybuddy notes ~/school"),
		Args:    cobra.MaximumNArgs(1),
		// listing files needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE:              runNotes,
	}
)

func init() {
	for _, c := range []*cobra.Command{explainCmd, summarizeCmd, quizCmd, flashcardsCmd} {
		c.Flags().StringVarP(&studyStyle, "style", "s", "auto", "style name or JSON path")
		c.Flags().IntVarP(&studyWidth, "width", "w", 0, "word-wrap at width (0 = terminal width)")
	}
	explainCmd.Flags().StringVarP(&explainLevel, "level", "l", "standard", "eli5, standard or advanced")
	explainCmd.Flags().BoolVar(&speakResult, "speak", false, "read the explanation aloud")
	summarizeCmd.Flags().BoolVar(&speakResult, "speak", false, "read the summary aloud")
	quizCmd.Flags().IntVarP(&quizCount, "count", "n", 5, "number of questions (1-20)")
	quizCmd.Flags().StringVarP(&quizType, "type", "t", "mcq", "mcq, tf or sa")
	quizCmd.Flags().BoolVarP(&quizAnswer, "answer", "a", false, "answer the questions and get graded")
	flashcardsCmd.Flags().IntVarP(&cardCount, "count", "n", 8, "number of cards (1-30)")
	notesCmd.Flags().BoolVarP(&notesAllFiles, "all", "a", false, "include hidden and dependency directories")
}

// readStudyInput accepts a notes file, a topic given as arguments, or stdin.
func readStudyInput(ctx context.Context, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		if st, err := os.Stat(args[0]); err == nil && !st.IsDir() {
			text, err := study.ReadNote(ctx, args[0])
			if err != nil {
				return "", fmt.Errorf("unable to read %s: %w", args[0], err)
			}
			log.Debug("Read notes", "path", args[0], "size", humanize.Bytes(uint64(st.Size())))
			return text, nil
		}
	}
	return readTextArg(args)
}

func outputWidth() int {
	if studyWidth > 0 {
		return studyWidth
	}
	w := 80
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			w = min(tw, 120)
		}
	}
	return w
}

func printMarkdown(w io.Writer, md string) error {
	style := studyStyle
	if !term.IsTerminal(int(os.Stdout.Fd())) && style == "auto" {
		style = "notty"
	}
	if err := utils.ValidateStyle(style); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, utils.RenderMarkdown(md, style, outputWidth()))
	return err
}

// withSpinner runs fn while showing a spinner on a terminal stderr.
func withSpinner(label string, fn func() error) error {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return fn()
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		s := spinner.New(spinner.WithSpinner(spinner.Dot))
		frames := s.Spinner.Frames
		tick := s.Spinner.FPS
		for i := 0; ; i++ {
			fmt.Fprintf(os.Stderr, "\r%s %s", frames[i%len(frames)], faint(label))
			select {
			case <-done:
				fmt.Fprint(os.Stderr, "\r\033[K")
				return
			case <-time.After(tick):
			}
		}
	}()

	err := fn()
	close(done)
	<-finished
	return err
}

// speakAndWait reads text aloud until done or interrupted.
func speakAndWait(ctx context.Context, text string) {
	v, err := newVoice(cfg.Speech)
	if err != nil {
		log.Warn("Speech unavailable", "error", err)
		return
	}
	defer v.Close() //nolint:errcheck

	v.Speak(proseText(text))
	if err := v.WaitIdle(ctx); err != nil {
		v.Stop()
	}
}

func runExplain(cmd *cobra.Command, args []string) error {
	client, err := requireAssistant()
	if err != nil {
		return err
	}
	ctx, cancel := interruptContext(cmd.Context())
	defer cancel()

	topic := strings.Join(args, " ")
	var out string
	err = withSpinner("Explaining "+topic, func() error {
		out, err = study.Explain(ctx, client, topic, study.ParseLevel(explainLevel))
		return err
	})
	if err != nil {
		return err
	}
	if err := printMarkdown(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if speakResult {
		speakAndWait(ctx, out)
	}
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	client, err := requireAssistant()
	if err != nil {
		return err
	}
	ctx, cancel := interruptContext(cmd.Context())
	defer cancel()

	text, err := readStudyInput(ctx, args)
	if err != nil {
		return err
	}
	var out string
	err = withSpinner("Summarizing", func() error {
		out, err = study.Summarize(ctx, client, text)
		return err
	})
	if err != nil {
		return err
	}
	if err := printMarkdown(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if speakResult {
		speakAndWait(ctx, out)
	}
	return nil
}

func runQuiz(cmd *cobra.Command, args []string) error {
	if quizCount < 1 || quizCount > 20 {
		return fmt.Errorf("--count must be between 1 and 20, got %d", quizCount)
	}
	client, err := requireAssistant()
	if err != nil {
		return err
	}
	ctx, cancel := interruptContext(cmd.Context())
	defer cancel()

	content, err := readStudyInput(ctx, args)
	if err != nil {
		return err
	}
	qt := study.ParseQuizType(quizType)

	var questions []study.Question
	err = withSpinner("Writing "+qt.Label()+" questions", func() error {
		questions, err = study.Quiz(ctx, client, content, quizCount, qt)
		return err
	})
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return errors.New("the model did not return any usable questions, try again")
	}

	if !quizAnswer {
		return printMarkdown(cmd.OutOrStdout(), study.QuizMarkdown(questions, true))
	}
	return askQuiz(cmd.OutOrStdout(), bufio.NewReader(os.Stdin), questions)
}

func askQuiz(w io.Writer, in *bufio.Reader, questions []study.Question) error {
	answers := make(map[int]string, len(questions))
	for i, q := range questions {
		if err := printMarkdown(w, study.QuestionMarkdown(i, q)); err != nil {
			return err
		}
		fmt.Fprint(w, keyword("> "))
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		answers[i] = strings.TrimSpace(line)
		if errors.Is(err, io.EOF) {
			break
		}
	}

	res := study.Grade(questions, answers)
	return printMarkdown(w, study.ResultMarkdown(res))
}

func runFlashcards(cmd *cobra.Command, args []string) error {
	if cardCount < 1 || cardCount > 30 {
		return fmt.Errorf("--count must be between 1 and 30, got %d", cardCount)
	}
	client, err := requireAssistant()
	if err != nil {
		return err
	}
	ctx, cancel := interruptContext(cmd.Context())
	defer cancel()

	content, err := readStudyInput(ctx, args)
	if err != nil {
		return err
	}
	var cards []study.Card
	err = withSpinner("Making flashcards", func() error {
		cards, err = study.Flashcards(ctx, client, content, cardCount)
		return err
	})
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return errors.New("the model did not return any usable flashcards, try again")
	}
	return printMarkdown(cmd.OutOrStdout(), study.FlashcardsMarkdown(cards))
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	client, err := requireAssistant()
	if err != nil {
		return err
	}
	ctx, cancel := interruptContext(cmd.Context())
	defer cancel()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("unable to open file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var text string
	err = withSpinner("Transcribing", func() error {
		text, err = client.Transcribe(ctx, f, filepath.Base(args[0]))
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func runNotes(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	var ignore []string
	if !notesAllFiles {
		ignore = ignorePatterns
	}
	notes, err := study.FindNotes(dir, ignore)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), faint("No notes found."))
		return nil
	}
	for _, n := range notes {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", n.Name, faint(humanize.Bytes(uint64(n.Size))))
	}
	return nil
}

// ignorePatterns skips hidden and dependency directories in addition to
// what .gitignore excludes.
var ignorePatterns = []string{".*", "node_modules", "vendor"}
