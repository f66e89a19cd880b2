package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/studybuddy-ai/studybuddy/internal/audio"
	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/engines"
	"github.com/studybuddy-ai/studybuddy/internal/llm"
	"github.com/studybuddy-ai/studybuddy/internal/speech"
)

// voice owns the speech engine and the audio device it plays on.
type voice struct {
	*speech.Engine
	player   *audio.Player
	renderer speech.Renderer
}

func (v *voice) Close() error {
	errs := []error{v.Engine.Close(), v.player.Close()}
	if c, ok := v.renderer.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// diskCacheDir is the configured clip directory or the user cache dir.
func diskCacheDir(s config.SpeechConfig) string {
	if s.DiskCacheDir != "" {
		return config.ExpandPath(s.DiskCacheDir)
	}
	dir, err := gap.NewScope(gap.User, "studybuddy").CacheDir()
	if err != nil {
		log.Debug("No cache directory", "error", err)
		return ""
	}
	return filepath.Join(dir, "audio")
}

func engineConfig(s config.SpeechConfig) engines.Config {
	return engines.Config{
		Direct:            s.Direct,
		Renderer:          s.Renderer,
		Language:          s.Language,
		Slow:              s.Slow,
		Rate:              s.Rate,
		Voice:             s.Voice,
		CacheBytes:        int64(s.CacheMB) << 20,
		CacheTTL:          s.CacheTTL,
		DiskCacheBytes:    int64(s.DiskCacheMB) << 20,
		DiskCacheDir:      diskCacheDir(s),
		GoogleURL:         s.GoogleURL,
		RequestsPerMinute: s.RequestsPerMinute,
		Logger:            log.Default(),
	}
}

func audioType(s config.SpeechConfig) audio.ContextType {
	if secrets.MockAudio {
		return audio.ContextMock
	}
	return audio.ParseContextType(s.Audio)
}

// newVoice builds the speech engine from configuration.
func newVoice(s config.SpeechConfig) (*voice, error) {
	ec := engineConfig(s)
	direct, err := engines.NewDirect(ec)
	if err != nil {
		return nil, fmt.Errorf("unable to set up direct speech: %w", err)
	}
	renderer, err := engines.NewRenderer(ec)
	if err != nil {
		return nil, fmt.Errorf("unable to set up speech rendering: %w", err)
	}

	player := audio.NewPlayer(audio.PlayerConfig{
		Type:   audioType(s),
		Volume: s.Volume,
		Logger: componentLogger("audio"),
	})

	sc := speech.Config{
		Direct:       direct,
		Renderer:     renderer,
		Driver:       player,
		PreemptDelay: s.PreemptDelay,
		MaxChunkLen:  s.MaxChunk,
		Logger:       componentLogger("speech"),
	}
	e := speech.New(sc)
	st := e.Status()
	log.Debug("Speech ready", "direct", st.Direct, "renderer", st.Renderer, "audio", audioType(s))
	return &voice{Engine: e, player: player, renderer: renderer}, nil
}

// newAssistant returns the LLM client, or llm.ErrMissingAPIKey.
func newAssistant(l config.LLMConfig) (*llm.Client, error) {
	return llm.New(llm.Config{
		APIKey:            secrets.GroqAPIKey,
		BaseURL:           l.BaseURL,
		Model:             l.Model,
		WhisperModel:      l.WhisperModel,
		MaxTokens:         l.MaxTokens,
		Timeout:           l.Timeout,
		RequestsPerMinute: l.RequestsPerMinute,
		Logger:            componentLogger("llm"),
	})
}

func requireAssistant() (*llm.Client, error) {
	c, err := newAssistant(cfg.LLM)
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return nil, fmt.Errorf("%w: set it in the environment or in a .env file", err)
	}
	return c, err
}
