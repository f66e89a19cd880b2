package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDisk_RoundTripAndReopen(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}

	key := Key("google", "en", "Photosynthesis makes sugar.")
	clip := bytes.Repeat([]byte("ID3 frame "), 500)
	if err := d.Put(key, clip); err != nil {
		t.Fatal(err)
	}
	if d.Size() >= int64(len(clip)) {
		t.Errorf("stored %d bytes for a %d byte clip, want compression", d.Size(), len(clip))
	}
	got, ok := d.Get(key)
	if !ok || !bytes.Equal(got, clip) {
		t.Fatalf("Get = %d bytes, %v", len(got), ok)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewDisk(dir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close() //nolint:errcheck
	got, ok = reopened.Get(key)
	if !ok || !bytes.Equal(got, clip) {
		t.Error("clip did not survive reopening")
	}
	if s := reopened.Stats(); s.Items != 1 || s.Hits != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestDisk_EvictsLeastRecentlyUsed(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close() //nolint:errcheck

	clock := time.Unix(0, 0)
	d.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	clip := bytes.Repeat([]byte{7}, 2048)
	if err := d.Put("a", clip); err != nil {
		t.Fatal(err)
	}
	d.capacity = 2 * d.Size()

	if err := d.Put("b", clip); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Get("a"); !ok {
		t.Fatal("a missing")
	}
	if err := d.Put("c", clip); err != nil {
		t.Fatal(err)
	}

	if _, ok := d.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := d.Get(k); !ok {
			t.Errorf("%s missing", k)
		}
	}
	if _, err := os.Stat(filepath.Join(d.dir, "b"+diskExt)); !os.IsNotExist(err) {
		t.Errorf("evicted file still on disk: %v", err)
	}
	if d.Stats().Evictions != 1 {
		t.Errorf("evictions = %d", d.Stats().Evictions)
	}
}

func TestDisk_CorruptFileIsMiss(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close() //nolint:errcheck

	if err := d.Put("k", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(d.path("k"), []byte("not zstd"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Get("k"); ok {
		t.Error("corrupt clip returned")
	}
	if d.Size() != 0 {
		t.Errorf("size = %d after dropping corrupt clip", d.Size())
	}
}

func TestDisk_Clear(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close() //nolint:errcheck

	for _, k := range []string{"x", "y"} {
		if err := d.Put(k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(d.Keys()); got != 2 {
		t.Fatalf("keys = %d", got)
	}
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}
	if d.Size() != 0 || len(d.Keys()) != 0 {
		t.Error("cache not empty after Clear")
	}
}
