package engines

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewRenderer(t *testing.T) {
	quiet := log.New(io.Discard)

	r, err := NewRenderer(Config{Renderer: BackendNone, Logger: quiet})
	if err != nil || r != nil {
		t.Errorf("none = %v, %v", r, err)
	}

	r, err = NewRenderer(Config{Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if r.Name() != "google" {
		t.Errorf("auto renderer = %q, want google", r.Name())
	}
	if _, ok := r.(*GoogleEngine); !ok {
		t.Errorf("expected an uncached engine, got %T", r)
	}

	r, err = NewRenderer(Config{Renderer: BackendGoogle, CacheBytes: 1 << 20, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*CachedRenderer); !ok {
		t.Errorf("expected cached renderer, got %T", r)
	}

	r, err = NewRenderer(Config{Renderer: BackendGoogle, DiskCacheBytes: 1 << 20, DiskCacheDir: t.TempDir(), Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	cr, ok := r.(*CachedRenderer)
	if !ok || cr.disk == nil || cr.store != nil {
		t.Errorf("expected a disk-only cache, got %T", r)
	} else if err := cr.Close(); err != nil {
		t.Error(err)
	}

	if _, err := NewRenderer(Config{Renderer: "festival"}); err == nil {
		t.Error("unknown renderer should fail")
	}
}

func TestNewDirect(t *testing.T) {
	quiet := log.New(io.Discard)

	d, err := NewDirect(Config{Direct: BackendNone, Logger: quiet})
	if err != nil || d != nil {
		t.Errorf("none = %v, %v", d, err)
	}

	// auto never fails, it just may find nothing
	if _, err := NewDirect(Config{Direct: BackendAuto, Logger: quiet}); err != nil {
		t.Errorf("auto failed: %v", err)
	}

	if _, err := NewDirect(Config{Direct: "robot"}); err == nil {
		t.Error("unknown direct backend should fail")
	}
}
