// Package llm is a small client for Groq's OpenAI-compatible API: chat
// completions for the study tools and Whisper transcription for voice
// input.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "https://api.groq.com/openai/v1"
	DefaultModel        = "llama-3.3-70b-versatile"
	DefaultWhisperModel = "whisper-large-v3"
	DefaultMaxTokens    = 2048
	DefaultSystemPrompt = "You are a helpful AI study assistant."

	// placeholderKey is the value shipped in the sample .env file.
	placeholderKey = "your_groq_api_key_here"
)

var (
	// ErrMissingAPIKey means no usable API key was configured.
	ErrMissingAPIKey = errors.New("GROQ_API_KEY is not set")

	// ErrGeneration wraps every chat completion failure.
	ErrGeneration = errors.New("generation failed")

	// ErrTranscription wraps every transcription failure.
	ErrTranscription = errors.New("transcription failed")
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles used in Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Config configures a Client.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	WhisperModel string
	MaxTokens    int
	Timeout      time.Duration
	// RequestsPerMinute defaults to 30, the Groq free tier limit.
	RequestsPerMinute int

	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client talks to the completion and transcription endpoints.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *log.Logger
}

// New returns ErrMissingAPIKey when the key is blank or still the sample
// placeholder.
func New(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" || key == placeholderKey {
		return nil, ErrMissingAPIKey
	}
	cfg.APIKey = key

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = DefaultWhisperModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("llm")
	}

	return &Client{
		cfg:     cfg,
		http:    hc,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 5),
		log:     logger,
	}, nil
}

// Model returns the chat model name.
func (c *Client) Model() string { return c.cfg.Model }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends a single prompt with a system prompt and returns the
// trimmed reply.
func (c *Client) Generate(ctx context.Context, prompt, systemPrompt string, temperature float64) (string, error) {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return c.Chat(ctx, []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: prompt},
	}, temperature, c.cfg.MaxTokens)
}

// Chat sends a full conversation. A non-positive maxTokens uses the
// configured default.
func (c *Client) Chat(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	start := time.Now()
	respBody, err := c.post(ctx, "/chat/completions", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrGeneration)
	}

	c.log.Debug("Completion",
		"model", c.cfg.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"took", time.Since(start))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Transcribe converts recorded speech to text with Whisper. filename is
// sent as the upload name; the API uses its extension to detect the
// format.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "audio.wav"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("%w: read audio: %w", ErrTranscription, err)
	}
	_ = mw.WriteField("model", c.cfg.WhisperModel)
	_ = mw.WriteField("response_format", "text")
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}

	body, err := c.post(ctx, "/audio/transcriptions", mw.FormDataContentType(), &buf)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Error.Message != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, ae.Error.Message)
		}
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return data, nil
}
