package main

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/studybuddy-ai/studybuddy/internal/config"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "studybuddy").CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studybuddy.log"), nil
}

// setupLog sends debug output to a log file when debugging is enabled and
// otherwise logs to stderr at info level. The returned func closes the file.
func setupLog(s config.Secrets) (func() error, error) {
	log.SetReportTimestamp(true)
	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)

	if !s.Debug && s.LogFile == "" && !hasDebugFlag(os.Args[1:]) {
		return func() error { return nil }, nil
	}

	logFile := config.ExpandPath(s.LogFile)
	if logFile == "" {
		var err error
		logFile, err = getLogFilePath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		// log disabled
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		// log disabled
		return func() error { return nil }, nil
	}
	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	return f.Close, nil
}

// hasDebugFlag looks for --debug before cobra has parsed anything.
func hasDebugFlag(args []string) bool {
	for _, a := range args {
		if a == "--debug" || a == "--debug=true" {
			return true
		}
	}
	return false
}

// setLogLevel applies a configured level name, ignoring unknown names.
func setLogLevel(name string) {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		log.Warn("Unknown log level", "level", name)
		return
	}
	log.SetLevel(lvl)
}

// componentLogger returns a prefixed child of the default logger.
func componentLogger(prefix string) *log.Logger {
	return log.Default().WithPrefix(prefix)
}

