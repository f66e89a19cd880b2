package engines

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/studybuddy-ai/studybuddy/internal/speech"
)

const (
	// DefaultGoogleURL is the Translate TTS endpoint used by gTTS.
	DefaultGoogleURL = "https://translate.google.com/translate_tts"

	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxPartAudio       = 2 << 20
	defaultConcurrency = 4
)

// GoogleConfig configures the Google Translate TTS renderer.
type GoogleConfig struct {
	BaseURL  string
	Language string
	Slow     bool

	// Concurrency bounds parallel part requests. Defaults to 4.
	Concurrency int
	// RequestsPerMinute throttles requests to avoid being blocked.
	// Defaults to 100.
	RequestsPerMinute int
	// Timeout per HTTP request. Defaults to 15s.
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     *log.Logger
}

// GoogleEngine renders MP3 through the Google Translate TTS endpoint. It
// needs network access but no API key.
type GoogleEngine struct {
	cfg     GoogleConfig
	client  *http.Client
	limiter *rate.Limiter
	log     *log.Logger
}

// NewGoogle returns a Google renderer with defaults applied.
func NewGoogle(cfg GoogleConfig) *GoogleEngine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGoogleURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("google")
	}

	return &GoogleEngine{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.Concurrency),
		log:     logger,
	}
}

// Name implements speech.Renderer.
func (e *GoogleEngine) Name() string { return "google" }

// Language returns the configured language code.
func (e *GoogleEngine) Language() string { return e.cfg.Language }

// Render implements speech.Renderer. Parts are fetched concurrently and
// joined in order; MP3 frames concatenate without re-encoding.
func (e *GoogleEngine) Render(ctx context.Context, text string) ([]byte, error) {
	parts := splitParts(text, MaxPartLen)
	if len(parts) == 0 {
		return nil, ErrEmptyText
	}

	results := make([][]byte, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, part := range parts {
		i, part := i, part
		g.Go(func() error {
			audio, err := e.fetch(gctx, part, i, len(parts))
			if err != nil {
				return fmt.Errorf("part %d/%d: %w", i+1, len(parts), err)
			}
			results[i] = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("google tts: %w", err)
	}

	e.log.Debug("Rendered", "parts", len(parts), "language", e.cfg.Language)
	return bytes.Join(results, nil), nil
}

func (e *GoogleEngine) fetch(ctx context.Context, part string, idx, total int) ([]byte, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	speed := "1"
	if e.cfg.Slow {
		speed = "0.3"
	}
	q := url.Values{
		"ie":       {"UTF-8"},
		"q":        {part},
		"tl":       {e.cfg.Language},
		"total":    {strconv.Itoa(total)},
		"idx":      {strconv.Itoa(idx)},
		"textlen":  {strconv.Itoa(len([]rune(part)))},
		"client":   {"tw-ob"},
		"ttsspeed": {speed},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Referer", "https://translate.google.com/")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxPartAudio))
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	return audio, nil
}

var _ speech.Renderer = (*GoogleEngine)(nil)
