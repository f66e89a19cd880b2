package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/studybuddy-ai/studybuddy/internal/config"
)

func TestEnsureConfigFileWritesDefault(t *testing.T) {
	old := configFile
	t.Cleanup(func() { configFile = old })

	configFile = filepath.Join(t.TempDir(), "nested", "studybuddy.yml")
	file, err := ensureConfigFile()
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != config.DefaultYAML {
		t.Error("default config was not written")
	}

	// existing files are left alone
	if err := os.WriteFile(file, []byte("log_level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ensureConfigFile(); err != nil {
		t.Fatal(err)
	}
	b, _ = os.ReadFile(file)
	if string(b) != "log_level: debug\n" {
		t.Errorf("existing config overwritten: %q", b)
	}
}

func TestEnsureConfigFileRejectsExtension(t *testing.T) {
	old := configFile
	t.Cleanup(func() { configFile = old })

	configFile = filepath.Join(t.TempDir(), "studybuddy.toml")
	if _, err := ensureConfigFile(); err == nil {
		t.Error("expected an error for a .toml config")
	}
}

func TestDefaultYAMLLoads(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultYAML)); err != nil {
		t.Fatal(err)
	}
	c, err := config.Load(v)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := writeConfigYAML(&buf, c); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"renderer: auto", "preempt_delay: 50ms", "disk_cache_mb: 0"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("config show output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestHasDebugFlag(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"speak", "hi"}, false},
		{[]string{"--debug", "chat"}, true},
		{[]string{"serve", "--debug=true"}, true},
	}
	for _, tt := range tests {
		if got := hasDebugFlag(tt.args); got != tt.want {
			t.Errorf("hasDebugFlag(%q) = %v", tt.args, got)
		}
	}
}

func TestSpeechText(t *testing.T) {
	if got := speechText("## **Cells**", false); got != "Cells" {
		t.Errorf("cleaned = %q", got)
	}
	if got := speechText("## **Cells**", true); got != "## **Cells**" {
		t.Errorf("raw = %q", got)
	}
}

func TestProseTextSkipsCode(t *testing.T) {
	got := proseText("## Loops\n\n```go\nfor {}\n```\n\nA *loop* repeats")
	if got != "Loops. A loop repeats." {
		t.Errorf("got %q", got)
	}
}

func TestReadTextArgJoinsWords(t *testing.T) {
	got, err := readTextArg([]string{"hello", "there"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello there" {
		t.Errorf("got %q", got)
	}
}

func TestReadStudyInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("  # Osmosis\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	got, err := readStudyInput(ctx, []string{path})
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Osmosis" {
		t.Errorf("got %q", got)
	}
}
