// Package main provides the entry point for the StudyBuddy CLI application.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/studybuddy-ai/studybuddy/internal/config"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile        string
	defaultConfigFile string
	debug             bool

	// STUDYBUDDY_SPEECH_RENDERER maps to speech.renderer.
	envKeyReplacer = strings.NewReplacer(".", "_")

	// cfg and secrets are loaded before any command runs.
	cfg     config.Config
	secrets config.Secrets

	rootCmd = &cobra.Command{
		Use:   "studybuddy",
		Short: "A study assistant that talks back",
		Long: paragraph(
			fmt.Sprintf("\nExplain, summarize, quiz and chat about your notes, %s.", keyword("out loud")),
		),
		SilenceErrors:     false,
		SilenceUsage:      true,
		TraverseChildren:  true,
		PersistentPreRunE: loadConfig,
	}
)

func loadConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(config.ExpandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	}

	var err error
	cfg, err = config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if !debug && !secrets.Debug {
		setLogLevel(cfg.LogLevel)
	}
	return nil
}

func main() {
	var err error
	secrets, err = config.LoadSecrets(".env", "~/.config/studybuddy/.env")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	closer, err := setupLog(secrets)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	config.SetDefaults(viper.GetViper())
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", defaultConfigFile))
	flags.BoolVar(&debug, "debug", false, "log debug output to the log file")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("direct", "auto", "direct speech backend: auto, local, none")
	flags.String("renderer", "auto", "speech rendering backend: auto, google, gtts-cli, none")
	flags.String("lang", "en", "speech language code")
	flags.String("audio", "auto", "audio output: auto, production, mock")

	// Config bindings
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("speech.direct", flags.Lookup("direct"))
	_ = viper.BindPFlag("speech.renderer", flags.Lookup("renderer"))
	_ = viper.BindPFlag("speech.language", flags.Lookup("lang"))
	_ = viper.BindPFlag("speech.audio", flags.Lookup("audio"))

	rootCmd.AddCommand(
		speakCmd, renderCmd, serveCmd, chatCmd,
		explainCmd, summarizeCmd, quizCmd, flashcardsCmd, transcribeCmd, notesCmd,
		doctorCmd, configCmd, manCmd,
	)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "studybuddy")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "studybuddy")}, dirs...)
	}

	if c := os.Getenv("STUDYBUDDY_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("studybuddy")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("studybuddy")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		defaultConfigFile = used
		return
	}

	defaultConfigFile = filepath.Join(dirs[0], "studybuddy.yml")
}
