package engines

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/studybuddy-ai/studybuddy/internal/cache"
	"github.com/studybuddy-ai/studybuddy/internal/speech"
)

// Backend names accepted in configuration.
const (
	BackendAuto    = "auto"
	BackendLocal   = "local"
	BackendGoogle  = "google"
	BackendGTTSCLI = "gtts-cli"
	BackendNone    = "none"
)

// Config selects and configures backends.
type Config struct {
	// Direct is auto, local or none.
	Direct string
	// Renderer is auto, google, gtts-cli or none.
	Renderer string

	Language string
	Slow     bool
	Rate     int
	Voice    string

	// CacheBytes bounds the render cache; zero disables it.
	CacheBytes int64
	CacheTTL   time.Duration

	// DiskCacheBytes bounds the persistent tier in DiskCacheDir; zero or
	// an empty dir disables it.
	DiskCacheBytes int64
	DiskCacheDir   string

	GoogleURL         string
	RequestsPerMinute int
	Concurrency       int

	Logger *log.Logger
}

func (c Config) logger(prefix string) *log.Logger {
	if c.Logger != nil {
		return c.Logger.WithPrefix(prefix)
	}
	return log.Default().WithPrefix(prefix)
}

// NewDirect builds the direct backend. With auto, a missing platform voice
// yields (nil, nil) so the engine falls back to rendering.
func NewDirect(cfg Config) (speech.DirectPlayer, error) {
	switch cfg.Direct {
	case BackendNone:
		return nil, nil
	case "", BackendAuto, BackendLocal:
		e, err := NewLocal(LocalConfig{
			Rate:   cfg.Rate,
			Voice:  cfg.Voice,
			Logger: cfg.logger("local"),
		})
		if err != nil {
			if cfg.Direct == BackendLocal {
				return nil, err
			}
			cfg.logger("engines").Debug("No local voice, using renderer only", "error", err)
			return nil, nil
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown direct backend %q", cfg.Direct)
	}
}

// NewRenderer builds the rendering backend, wrapped in a cache when
// CacheBytes is set. Auto means Google, which needs no local install.
func NewRenderer(cfg Config) (speech.Renderer, error) {
	var (
		r   speech.Renderer
		err error
	)
	switch cfg.Renderer {
	case BackendNone:
		return nil, nil
	case "", BackendAuto, BackendGoogle:
		r = newGoogle(cfg)
	case BackendGTTSCLI:
		r, err = newGTTSCLI(cfg)
	default:
		return nil, fmt.Errorf("unknown renderer %q", cfg.Renderer)
	}
	if err != nil {
		return nil, err
	}

	useDisk := cfg.DiskCacheBytes > 0 && cfg.DiskCacheDir != ""
	if cfg.CacheBytes <= 0 && !useDisk {
		return r, nil
	}

	var mem *cache.Memory
	if cfg.CacheBytes > 0 {
		mem = cache.NewMemory(cfg.CacheBytes, cfg.CacheTTL)
	}
	cached := NewCached(r, mem)
	if useDisk {
		d, err := cache.NewDisk(cfg.DiskCacheDir, cfg.DiskCacheBytes)
		if err != nil {
			cfg.logger("engines").Warn("Disk cache disabled", "dir", cfg.DiskCacheDir, "error", err)
		} else {
			cached.WithDisk(d)
		}
	}
	return cached, nil
}

func newGoogle(cfg Config) *GoogleEngine {
	return NewGoogle(GoogleConfig{
		BaseURL:           cfg.GoogleURL,
		Language:          cfg.Language,
		Slow:              cfg.Slow,
		Concurrency:       cfg.Concurrency,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Logger:            cfg.logger("google"),
	})
}

func newGTTSCLI(cfg Config) (speech.Renderer, error) {
	e, err := NewGTTSCLI(GTTSCLIConfig{
		Language: cfg.Language,
		Slow:     cfg.Slow,
		Logger:   cfg.logger("gtts-cli"),
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
