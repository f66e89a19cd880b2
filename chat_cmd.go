package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/studybuddy-ai/studybuddy/internal/llm"
	"github.com/studybuddy-ai/studybuddy/internal/study"
	"github.com/studybuddy-ai/studybuddy/ui"
	"github.com/studybuddy-ai/studybuddy/utils"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the tutor",
	Long: paragraph(fmt.Sprintf("\n%s with your AI tutor in the terminal. Replies are read aloud while voice is on: "+
		"ctrl+s stops speech, ctrl+v toggles voice, ctrl+y copies the last reply.", keyword("Chat"))),
	Example: paragraph("studybuddy chat\nstudybuddy chat --no-voice"),
	Args:    cobra.NoArgs,
	RunE:    runChat,
}

func init() {
	chatCmd.Flags().Bool("no-voice", false, "start with spoken replies off")
	chatCmd.Flags().StringP("style", "s", "auto", "style name or JSON path")
	chatCmd.Flags().IntP("width", "w", 0, "word-wrap at width (0 = window width)")
	chatCmd.Flags().BoolP("mouse", "m", false, "enable mouse wheel")

	_ = viper.BindPFlag("chat.style", chatCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("chat.width", chatCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("chat.mouse", chatCmd.Flags().Lookup("mouse"))
}

func runChat(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("chat needs a terminal")
	}

	// Read environment to get debugging stuff
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the configured one if unset
	if uiCfg.GlamourStyle == "" || utils.ValidateStyle(uiCfg.GlamourStyle) != nil {
		uiCfg.GlamourStyle = cfg.Chat.Style
	}
	if err := utils.ValidateStyle(uiCfg.GlamourStyle); err != nil {
		return err
	}
	noVoice, _ := cmd.Flags().GetBool("no-voice")
	uiCfg.Voice = cfg.Chat.Voice && !noVoice
	uiCfg.GlamourMaxWidth = uint(max(cfg.Chat.Width, 0)) //nolint:gosec
	uiCfg.EnableMouse = cfg.Chat.Mouse
	uiCfg.SpeakLimit = cfg.Server.ServerLimit

	var (
		tutor ui.Tutor
		gen   study.Generator
	)
	client, err := newAssistant(cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		log.Warn("Tutor disabled", "reason", err)
	case err != nil:
		return err
	default:
		tutor = study.NewTutor(client)
		gen = client
	}

	var speaker ui.Speaker
	v, err := newVoice(cfg.Speech)
	if err != nil {
		log.Warn("Speech disabled", "error", err)
	} else {
		defer v.Close() //nolint:errcheck
		speaker = v
	}

	// stderr belongs to the TUI from here on
	if !debug && !secrets.Debug && secrets.LogFile == "" {
		log.SetOutput(io.Discard)
	}
	if _, err := ui.NewProgram(uiCfg, tutor, gen, speaker).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}
