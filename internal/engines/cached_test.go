package engines

import (
	"context"
	"errors"
	"testing"

	"github.com/studybuddy-ai/studybuddy/internal/cache"
)

type countingRenderer struct {
	calls int
	err   error
}

func (r *countingRenderer) Name() string     { return "counting" }
func (r *countingRenderer) Language() string { return "en" }

func (r *countingRenderer) Render(ctx context.Context, text string) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("audio:" + text), nil
}

func TestCachedRenderer(t *testing.T) {
	next := &countingRenderer{}
	c := NewCached(next, cache.NewMemory(1024, 0))

	for i := 0; i < 3; i++ {
		audio, err := c.Render(context.Background(), "Hello.")
		if err != nil {
			t.Fatal(err)
		}
		if string(audio) != "audio:Hello." {
			t.Errorf("audio = %q", audio)
		}
	}
	if next.calls != 1 {
		t.Errorf("renders = %d, want 1", next.calls)
	}
	if s := c.Stats(); s.Hits != 2 {
		t.Errorf("hits = %d, want 2", s.Hits)
	}
	if c.Name() != "counting" {
		t.Errorf("Name = %q", c.Name())
	}
}

func TestCachedRendererDoesNotCacheFailures(t *testing.T) {
	next := &countingRenderer{err: errors.New("offline")}
	c := NewCached(next, cache.NewMemory(1024, 0))

	for i := 0; i < 2; i++ {
		if _, err := c.Render(context.Background(), "Hello."); err == nil {
			t.Fatal("expected error")
		}
	}
	if next.calls != 2 {
		t.Errorf("renders = %d, want 2", next.calls)
	}
}

func TestCachedRendererDiskTier(t *testing.T) {
	dir := t.TempDir()
	disk, err := cache.NewDisk(dir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	next := &countingRenderer{}
	c := NewCached(next, cache.NewMemory(1024, 0)).WithDisk(disk)
	if _, err := c.Render(context.Background(), "Hello."); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	// a fresh process only has the disk tier warm
	disk, err = cache.NewDisk(dir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer disk.Close() //nolint:errcheck
	c = NewCached(next, cache.NewMemory(1024, 0)).WithDisk(disk)
	audio, err := c.Render(context.Background(), "Hello.")
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "audio:Hello." {
		t.Errorf("audio = %q", audio)
	}
	if next.calls != 1 {
		t.Errorf("renders = %d, want 1", next.calls)
	}
	if s := c.Stats(); s.Items != 1 {
		t.Errorf("disk hit was not promoted to memory: %+v", s)
	}
}
