package engines

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func newTestGoogle(t *testing.T, h http.HandlerFunc) *GoogleEngine {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGoogle(GoogleConfig{
		BaseURL:           srv.URL,
		Language:          "fr",
		RequestsPerMinute: 6000,
		Logger:            log.New(io.Discard),
	})
}

func TestGoogleRenderJoinsPartsInOrder(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	e := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mu.Lock()
		queries = append(queries, q.Get("q"))
		mu.Unlock()

		if q.Get("client") != "tw-ob" || q.Get("tl") != "fr" || q.Get("ie") != "UTF-8" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		// later parts answer first
		if q.Get("idx") == "0" {
			time.Sleep(20 * time.Millisecond)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		io.WriteString(w, "["+q.Get("idx")+"]")
	})

	text := strings.Repeat("Bonjour tout le monde, ceci est un test. ", 8)
	audio, err := e.Render(context.Background(), text)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	parts := splitParts(text, MaxPartLen)
	var want strings.Builder
	for i := range parts {
		want.WriteString("[" + strconv.Itoa(i) + "]")
	}
	if string(audio) != want.String() {
		t.Errorf("audio = %q, want %q", audio, want.String())
	}
	if len(queries) != len(parts) {
		t.Errorf("requests = %d, want %d", len(queries), len(parts))
	}
}

func TestGoogleRenderHTTPError(t *testing.T) {
	e := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := e.Render(context.Background(), "Hello.")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error %q should mention the status", err)
	}
}

func TestGoogleRenderEmptyBody(t *testing.T) {
	e := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {})

	if _, err := e.Render(context.Background(), "Hello."); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestGoogleRenderEmptyText(t *testing.T) {
	e := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := e.Render(context.Background(), "  "); err != ErrEmptyText {
		t.Errorf("err = %v, want ErrEmptyText", err)
	}
}

func TestGoogleRenderCancelled(t *testing.T) {
	e := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := e.Render(ctx, "Hello."); err == nil {
		t.Fatal("expected error after cancel")
	}
	if d := time.Since(start); d > time.Second {
		t.Errorf("Render took %v after cancel", d)
	}
}

func TestGoogleSlow(t *testing.T) {
	var speed string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		speed = r.URL.Query().Get("ttsspeed")
		io.WriteString(w, "mp3")
	}))
	defer srv.Close()

	e := NewGoogle(GoogleConfig{BaseURL: srv.URL, Slow: true, Logger: log.New(io.Discard)})
	if _, err := e.Render(context.Background(), "Hi"); err != nil {
		t.Fatal(err)
	}
	if speed != "0.3" {
		t.Errorf("ttsspeed = %q, want 0.3", speed)
	}
	if e.Language() != "en" {
		t.Errorf("default language = %q", e.Language())
	}
}
