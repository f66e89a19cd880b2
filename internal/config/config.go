// Package config defines StudyBuddy's settings. Non-secret settings come
// from the YAML config file, flags and STUDYBUDDY_* variables through
// viper; secrets come from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the effective non-secret configuration.
type Config struct {
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
	Speech   SpeechConfig `mapstructure:"speech" yaml:"speech"`
	LLM      LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Server   ServerConfig `mapstructure:"server" yaml:"server"`
	Chat     ChatConfig   `mapstructure:"chat" yaml:"chat"`
}

// SpeechConfig selects speech backends and playback.
type SpeechConfig struct {
	// Direct is auto, local or none.
	Direct string `mapstructure:"direct" yaml:"direct"`
	// Renderer is auto, google, gtts-cli or none.
	Renderer string `mapstructure:"renderer" yaml:"renderer"`
	Language string `mapstructure:"language" yaml:"language"`
	Slow     bool   `mapstructure:"slow" yaml:"slow"`
	Rate     int    `mapstructure:"rate" yaml:"rate"`
	Voice    string `mapstructure:"voice" yaml:"voice"`

	// Audio is auto, production or mock.
	Audio  string  `mapstructure:"audio" yaml:"audio"`
	Volume float64 `mapstructure:"volume" yaml:"volume"`

	PreemptDelay time.Duration `mapstructure:"preempt_delay" yaml:"preempt_delay"`
	MaxChunk     int           `mapstructure:"max_chunk" yaml:"max_chunk"`

	// CacheMB bounds the rendered audio cache; 0 disables it.
	CacheMB  int           `mapstructure:"cache_mb" yaml:"cache_mb"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// DiskCacheMB keeps compressed clips between runs; 0 (the default)
	// disables it.
	DiskCacheMB  int    `mapstructure:"disk_cache_mb" yaml:"disk_cache_mb"`
	DiskCacheDir string `mapstructure:"disk_cache_dir" yaml:"disk_cache_dir"`

	GoogleURL         string `mapstructure:"google_url" yaml:"google_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// LLMConfig configures the completion and transcription client.
type LLMConfig struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Model             string        `mapstructure:"model" yaml:"model"`
	WhisperModel      string        `mapstructure:"whisper_model" yaml:"whisper_model"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// BrowserLimit and ServerLimit cap the characters rendered for browser
	// playback and spoken on the server per request.
	BrowserLimit    int           `mapstructure:"browser_limit" yaml:"browser_limit"`
	ServerLimit     int           `mapstructure:"server_limit" yaml:"server_limit"`
	BodyLimitMB     int           `mapstructure:"body_limit_mb" yaml:"body_limit_mb"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ChatConfig configures the chat TUI.
type ChatConfig struct {
	Voice bool   `mapstructure:"voice" yaml:"voice"`
	Style string `mapstructure:"style" yaml:"style"`
	Width int    `mapstructure:"width" yaml:"width"`
	Mouse bool   `mapstructure:"mouse" yaml:"mouse"`
}

// Secrets are read from the environment only.
type Secrets struct {
	GroqAPIKey string `env:"GROQ_API_KEY"`
	Debug      bool   `env:"STUDYBUDDY_DEBUG"`
	LogFile    string `env:"STUDYBUDDY_LOG_FILE"`
	MockAudio  bool   `env:"STUDYBUDDY_MOCK_AUDIO"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("speech.direct", "auto")
	v.SetDefault("speech.renderer", "auto")
	v.SetDefault("speech.language", "en")
	v.SetDefault("speech.slow", false)
	v.SetDefault("speech.rate", 150)
	v.SetDefault("speech.voice", "")
	v.SetDefault("speech.audio", "auto")
	v.SetDefault("speech.volume", 1.0)
	v.SetDefault("speech.preempt_delay", "50ms")
	v.SetDefault("speech.max_chunk", 200)
	v.SetDefault("speech.cache_mb", 32)
	v.SetDefault("speech.cache_ttl", "1h")
	v.SetDefault("speech.disk_cache_mb", 0)
	v.SetDefault("speech.disk_cache_dir", "")
	v.SetDefault("speech.google_url", "")
	v.SetDefault("speech.requests_per_minute", 100)

	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.whisper_model", "whisper-large-v3")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.requests_per_minute", 30)

	v.SetDefault("server.addr", "127.0.0.1:8501")
	v.SetDefault("server.browser_limit", 5000)
	v.SetDefault("server.server_limit", 1500)
	v.SetDefault("server.body_limit_mb", 25)
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("chat.voice", true)
	v.SetDefault("chat.style", "auto")
	v.SetDefault("chat.width", 0)
	v.SetDefault("chat.mouse", false)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

var (
	directBackends   = []string{"auto", "local", "none"}
	rendererBackends = []string{"auto", "google", "gtts-cli", "none"}
	audioTypes       = []string{"auto", "production", "mock"}
	logLevels        = []string{"debug", "info", "warn", "error", "fatal"}
)

// Validate checks every value against its allowed range.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(oneOf(c.LogLevel, logLevels), "log_level must be one of %s, got %q", strings.Join(logLevels, ", "), c.LogLevel)

	s := c.Speech
	check(oneOf(s.Direct, directBackends), "speech.direct must be one of %s, got %q", strings.Join(directBackends, ", "), s.Direct)
	check(oneOf(s.Renderer, rendererBackends), "speech.renderer must be one of %s, got %q", strings.Join(rendererBackends, ", "), s.Renderer)
	check(oneOf(s.Audio, audioTypes), "speech.audio must be one of %s, got %q", strings.Join(audioTypes, ", "), s.Audio)
	check(len(s.Language) >= 2 && len(s.Language) <= 7, "speech.language must be a 2-7 character code, got %q", s.Language)
	check(s.Rate >= 50 && s.Rate <= 500, "speech.rate must be between 50 and 500 words per minute, got %d", s.Rate)
	check(s.Volume >= 0 && s.Volume <= 1, "speech.volume must be between 0.0 and 1.0, got %.2f", s.Volume)
	check(s.PreemptDelay >= 0 && s.PreemptDelay <= time.Second, "speech.preempt_delay must be between 0 and 1s, got %s", s.PreemptDelay)
	check(s.MaxChunk >= 20 && s.MaxChunk <= 5000, "speech.max_chunk must be between 20 and 5000, got %d", s.MaxChunk)
	check(s.CacheMB >= 0 && s.CacheMB <= 1024, "speech.cache_mb must be between 0 and 1024, got %d", s.CacheMB)
	check(s.DiskCacheMB >= 0 && s.DiskCacheMB <= 10240, "speech.disk_cache_mb must be between 0 and 10240, got %d", s.DiskCacheMB)
	check(s.RequestsPerMinute > 0, "speech.requests_per_minute must be positive, got %d", s.RequestsPerMinute)

	l := c.LLM
	check(l.Model != "", "llm.model must not be empty")
	check(l.MaxTokens > 0 && l.MaxTokens <= 32768, "llm.max_tokens must be between 1 and 32768, got %d", l.MaxTokens)
	check(l.RequestsPerMinute > 0, "llm.requests_per_minute must be positive, got %d", l.RequestsPerMinute)

	sv := c.Server
	check(sv.Addr != "", "server.addr must not be empty")
	check(sv.BrowserLimit > 0 && sv.ServerLimit > 0, "server limits must be positive")
	check(sv.BodyLimitMB > 0, "server.body_limit_mb must be positive, got %d", sv.BodyLimitMB)

	check(c.Chat.Width >= 0, "chat.width must not be negative, got %d", c.Chat.Width)

	return errors.Join(errs...)
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// LoadSecrets loads .env files (missing ones are skipped) and parses the
// secret variables. Variables already set in the environment win.
func LoadSecrets(dotenv ...string) (Secrets, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, p := range dotenv {
		if err := godotenv.Load(ExpandPath(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, fmt.Errorf("unable to load %s: %w", p, err)
		}
	}
	s, err := env.ParseAs[Secrets]()
	if err != nil {
		return s, fmt.Errorf("error parsing environment: %w", err)
	}
	return s, nil
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	expanded, err := homedir.Expand(os.ExpandEnv(p))
	if err != nil {
		return p
	}
	return expanded
}
