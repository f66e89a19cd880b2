// Package server exposes speech and the study tools over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/studybuddy-ai/studybuddy/internal/llm"
	"github.com/studybuddy-ai/studybuddy/internal/speech"
	"github.com/studybuddy-ai/studybuddy/internal/study"
)

// Speaker is the speech facade.
type Speaker interface {
	Speak(text string)
	Stop()
	RenderForTransport(ctx context.Context, text string) []byte
	Status() speech.Status
}

// Assistant is the language model client.
type Assistant interface {
	study.Generator
	study.Chatter
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Config configures the HTTP API.
type Config struct {
	// BrowserLimit caps characters rendered for client-side playback.
	BrowserLimit int
	// ServerLimit caps characters spoken on this machine per request.
	ServerLimit int
	// BodyLimit in bytes, for uploads.
	BodyLimit int

	Logger *log.Logger
}

// Server is the HTTP API.
type Server struct {
	app       *fiber.App
	speaker   Speaker
	assistant Assistant
	cfg       Config
	log       *log.Logger
	started   time.Time
}

// New builds the API. assistant may be nil when no API key is configured;
// the study routes then answer 503.
func New(cfg Config, speaker Speaker, assistant Assistant) *Server {
	if cfg.BrowserLimit <= 0 {
		cfg.BrowserLimit = 5000
	}
	if cfg.ServerLimit <= 0 {
		cfg.ServerLimit = 1500
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 25 << 20
	}
	lg := cfg.Logger
	if lg == nil {
		lg = log.Default().WithPrefix("http")
	}

	s := &Server{
		speaker:   speaker,
		assistant: assistant,
		cfg:       cfg,
		log:       lg,
		started:   time.Now(),
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "studybuddy",
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		Output: lg.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}).Writer(),
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := s.app.Group("/api")
	api.Get("/status", s.status)

	api.Post("/speak", s.speak)
	api.Post("/stop", s.stop)
	api.Post("/render", s.render)

	api.Post("/explain", s.requireAssistant, s.explain)
	api.Post("/summarize", s.requireAssistant, s.summarize)
	api.Post("/quiz", s.requireAssistant, s.quiz)
	api.Post("/quiz/grade", s.gradeQuiz)
	api.Post("/flashcards", s.requireAssistant, s.flashcards)
	api.Post("/chat", s.requireAssistant, s.chat)
	api.Post("/transcribe", s.requireAssistant, s.transcribe)
	api.Post("/pdf", s.pdf)
}

// App returns the fiber app, for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("Listening", "addr", "http://"+addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, study.ErrEmptyInput):
		code = fiber.StatusBadRequest
	case errors.Is(err, llm.ErrMissingAPIKey):
		code = fiber.StatusServiceUnavailable
	case errors.Is(err, llm.ErrGeneration), errors.Is(err, llm.ErrTranscription):
		code = fiber.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusGatewayTimeout
	}

	rid, _ := c.Locals("requestid").(string)
	if code >= fiber.StatusInternalServerError {
		s.log.Error("Request failed", "request_id", rid, "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(errorResponse{Error: err.Error(), RequestID: rid})
}

func (s *Server) requireAssistant(c *fiber.Ctx) error {
	if s.assistant == nil {
		return llm.ErrMissingAPIKey
	}
	return c.Next()
}
