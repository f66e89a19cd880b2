package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// MockContext implements Context without a device. Streams report playing
// for as long as their PCM would take at the context's sample rate.
type MockContext struct {
	mu         sync.Mutex
	ready      bool
	sampleRate int
	streams    []*MockStream

	// TimeScale multiplies simulated durations. Zero means 1.
	TimeScale float64

	// FailNewStream makes NewStream return this error.
	FailNewStream error
}

// NewMockContext creates a ready mock context.
func NewMockContext(sampleRate int) *MockContext {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	log.Debug("Creating mock audio context", "rate", sampleRate)
	return &MockContext{ready: true, sampleRate: sampleRate}
}

// NewStream implements Context.
func (c *MockContext) NewStream(r io.Reader) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return nil, errors.New("mock audio context not ready")
	}
	if c.FailNewStream != nil {
		return nil, c.FailNewStream
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	scale := c.TimeScale
	if scale == 0 {
		scale = 1
	}
	bytesPerSecond := float64(c.sampleRate * Channels * BytesPerSample)
	d := time.Duration(float64(len(data)) / bytesPerSecond * scale * float64(time.Second))

	s := &MockStream{size: len(data), duration: d, volume: 1}
	c.streams = append(c.streams, s)
	return s, nil
}

// Close implements Context.
func (c *MockContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.streams {
		_ = s.Close()
	}
	c.ready = false
	return nil
}

// IsReady implements Context.
func (c *MockContext) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// SampleRate implements Context.
func (c *MockContext) SampleRate() int { return c.sampleRate }

// Streams returns every stream created so far.
func (c *MockContext) Streams() []*MockStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*MockStream, len(c.streams))
	copy(out, c.streams)
	return out
}

// MockStream is a simulated playback.
type MockStream struct {
	mu       sync.Mutex
	size     int
	duration time.Duration
	volume   float64

	started   time.Time
	elapsed   time.Duration // accumulated while paused
	playing   bool
	completed atomic.Bool
	paused    atomic.Bool
	closed    atomic.Bool
}

// Play implements Stream.
func (s *MockStream) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing || s.closed.Load() {
		return
	}
	s.playing = true
	s.paused.Store(false)
	s.started = time.Now()
}

// Pause implements Stream.
func (s *MockStream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	s.elapsed += time.Since(s.started)
	s.playing = false
	if s.elapsed < s.duration {
		s.paused.Store(true)
	}
}

// IsPlaying implements Stream.
func (s *MockStream) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return false
	}
	if s.elapsed+time.Since(s.started) >= s.duration {
		s.playing = false
		s.elapsed = s.duration
		s.completed.Store(true)
		return false
	}
	return true
}

// SetVolume implements Stream.
func (s *MockStream) SetVolume(volume float64) {
	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()
}

// Volume returns the last volume set on the stream.
func (s *MockStream) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Err implements Stream.
func (s *MockStream) Err() error { return nil }

// Close implements Stream.
func (s *MockStream) Close() error {
	s.closed.Store(true)
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	return nil
}

// Size is the number of PCM bytes in the stream.
func (s *MockStream) Size() int { return s.size }

// Duration is the simulated playback length.
func (s *MockStream) Duration() time.Duration { return s.duration }

// Completed reports whether the stream played to the end.
func (s *MockStream) Completed() bool { return s.completed.Load() }

// Interrupted reports whether playback was paused before the end.
func (s *MockStream) Interrupted() bool { return s.paused.Load() }

// Closed reports whether Close was called.
func (s *MockStream) Closed() bool { return s.closed.Load() }
