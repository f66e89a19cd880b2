package server

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/studybuddy-ai/studybuddy/internal/llm"
	"github.com/studybuddy-ai/studybuddy/internal/study"
	"github.com/studybuddy-ai/studybuddy/internal/textproc"
)

type statusResponse struct {
	Speech    any    `json:"speech"`
	Assistant bool   `json:"assistant"`
	Uptime    string `json:"uptime"`
}

func (s *Server) status(c *fiber.Ctx) error {
	return c.JSON(statusResponse{
		Speech:    s.speaker.Status(),
		Assistant: s.assistant != nil,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	})
}

type speakRequest struct {
	Text string `json:"text"`
	// Raw skips markdown cleaning.
	Raw bool `json:"raw"`
}

func (s *Server) speechText(text string, raw bool, limit int) string {
	if !raw {
		text = textproc.CleanForSpeech(text)
	}
	return textproc.Truncate(text, limit)
}

func (s *Server) speak(c *fiber.Ctx) error {
	var req speakRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	text := s.speechText(req.Text, req.Raw, s.cfg.ServerLimit)
	s.speaker.Speak(text)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": text != ""})
}

func (s *Server) stop(c *fiber.Ctx) error {
	s.speaker.Stop()
	return c.JSON(fiber.Map{"stopped": true})
}

func (s *Server) render(c *fiber.Ctx) error {
	var req speakRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	audio := s.speaker.RenderForTransport(c.UserContext(), s.speechText(req.Text, req.Raw, s.cfg.BrowserLimit))
	if audio == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(audio)
}

type explainRequest struct {
	Topic string `json:"topic"`
	Level string `json:"level"`
}

type markdownResponse struct {
	Markdown string `json:"markdown"`
}

func (s *Server) explain(c *fiber.Ctx) error {
	var req explainRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	out, err := study.Explain(c.UserContext(), s.assistant, req.Topic, study.ParseLevel(req.Level))
	if err != nil {
		return err
	}
	return c.JSON(markdownResponse{Markdown: out})
}

type textRequest struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
	Type  string `json:"type"`
}

func (s *Server) summarize(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	out, err := study.Summarize(c.UserContext(), s.assistant, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(markdownResponse{Markdown: out})
}

func (s *Server) quiz(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Count > 20 {
		req.Count = 20
	}
	qs, err := study.Quiz(c.UserContext(), s.assistant, req.Text, req.Count, study.ParseQuizType(req.Type))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"questions": qs})
}

type gradeRequest struct {
	Questions []study.Question `json:"questions"`
	Answers   map[int]string   `json:"answers"`
}

func (s *Server) gradeQuiz(c *fiber.Ctx) error {
	var req gradeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(study.Grade(req.Questions, req.Answers))
}

func (s *Server) flashcards(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Count > 30 {
		req.Count = 30
	}
	cards, err := study.Flashcards(c.UserContext(), s.assistant, req.Text, req.Count)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"cards": cards})
}

type chatRequest struct {
	Message string        `json:"message"`
	History []llm.Message `json:"history"`
	// Speak reads the reply aloud on the server.
	Speak bool `json:"speak"`
}

func (s *Server) chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	reply, err := study.Reply(c.UserContext(), s.assistant, req.Message, req.History)
	if err != nil {
		return err
	}
	if req.Speak {
		s.speaker.Speak(s.speechText(reply, false, s.cfg.ServerLimit))
	}
	return c.JSON(fiber.Map{"reply": reply})
}

func (s *Server) transcribe(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := s.assistant.Transcribe(c.UserContext(), f, fh.Filename)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"text": text})
}

func (s *Server) pdf(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field \"file\" is required")
	}

	dir, err := os.MkdirTemp("", "studybuddy-pdf-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "upload.pdf")
	if err := c.SaveFile(fh, path); err != nil {
		return err
	}
	text, err := study.ExtractPDFText(c.UserContext(), path)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(fiber.Map{"text": text})
}
