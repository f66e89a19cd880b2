package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const diskExt = ".mp3.zst"

// Disk keeps zstd-compressed clips in a directory so they survive
// restarts. The index is rebuilt from the directory listing on open.
type Disk struct {
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats

	now func() time.Time
}

type diskEntry struct {
	size       int64
	lastAccess time.Time
}

// NewDisk opens or creates a disk cache in dir bounded by capacity bytes
// of compressed data.
func NewDisk(dir string, capacity int64) (*Disk, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	d := &Disk{
		dir:      dir,
		capacity: capacity,
		encoder:  enc,
		decoder:  dec,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Capacity: capacity},
		now:      time.Now,
	}
	if err := d.load(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Disk) load() error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, diskExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		d.index[strings.TrimSuffix(name, diskExt)] = &diskEntry{
			size:       info.Size(),
			lastAccess: info.ModTime(),
		}
		d.size += info.Size()
	}
	for d.size > d.capacity && len(d.index) > 0 {
		d.evictOldest()
	}
	return nil
}

func (d *Disk) path(key string) string {
	return filepath.Join(d.dir, key+diskExt)
}

// Get returns the clip stored under key. Unreadable files are dropped.
func (d *Disk) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.index[key]
	if !ok {
		d.stats.Misses++
		return nil, false
	}
	data, err := os.ReadFile(d.path(key))
	if err == nil {
		data, err = d.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		d.remove(key)
		d.stats.Misses++
		return nil, false
	}

	e.lastAccess = d.now()
	d.stats.Hits++
	return data, true
}

// Put compresses value and stores it under key.
func (d *Disk) Put(key string, value []byte) error {
	data := d.encoder.EncodeAll(value, nil)
	n := int64(len(data))
	if n > d.capacity {
		return ErrItemTooLarge
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[key]; ok {
		d.remove(key)
	}
	for d.size+n > d.capacity && len(d.index) > 0 {
		d.evictOldest()
	}

	// write then rename so readers never see a partial clip
	tmp, err := os.CreateTemp(d.dir, "clip-*")
	if err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	d.index[key] = &diskEntry{size: n, lastAccess: d.now()}
	d.size += n
	return nil
}

// Delete removes key if present.
func (d *Disk) Delete(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remove(key)
}

// Clear removes every cached file.
func (d *Disk) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for key := range d.index {
		if err := os.Remove(d.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	d.index = make(map[string]*diskEntry)
	d.size = 0
	return errors.Join(errs...)
}

// Size returns the compressed bytes on disk.
func (d *Disk) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Stats returns a snapshot of the counters.
func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.stats
	s.Size = d.size
	s.Items = int64(len(d.index))
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Keys lists cached keys, least recently used first.
func (d *Disk) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	keys := make([]string, 0, len(d.index))
	for k := range d.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return d.index[keys[i]].lastAccess.Before(d.index[keys[j]].lastAccess)
	})
	return keys
}

// Close releases the compressor.
func (d *Disk) Close() error {
	d.decoder.Close()
	return d.encoder.Close()
}

// must be called with d.mu held
func (d *Disk) evictOldest() {
	var (
		oldest string
		at     time.Time
	)
	for k, e := range d.index {
		if oldest == "" || e.lastAccess.Before(at) {
			oldest, at = k, e.lastAccess
		}
	}
	if oldest != "" {
		d.remove(oldest)
		d.stats.Evictions++
		d.stats.LastEvict = d.now()
	}
}

// must be called with d.mu held
func (d *Disk) remove(key string) {
	e, ok := d.index[key]
	if !ok {
		return
	}
	_ = os.Remove(d.path(key))
	delete(d.index, key)
	d.size -= e.size
}
