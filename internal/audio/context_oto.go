//go:build !nocgo

package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
)

// OtoContext implements Context on top of the process-wide oto context.
type OtoContext struct {
	mu     sync.Mutex
	ctx    *oto.Context
	rate   int
	closed bool
}

// NewOtoContext opens the audio device at sampleRate, retrying as suited to
// the platform. Later calls reuse the first device regardless of the rate
// they ask for.
func NewOtoContext(sampleRate int, platform *PlatformInfo) (*OtoContext, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	otoOnce.Do(func() {
		otoCtx, otoErr = openOtoWithRetry(sampleRate, platform)
		otoRate = sampleRate
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != sampleRate {
		log.Debug("Reusing audio device", "requested_rate", sampleRate, "rate", otoRate)
	}
	return &OtoContext{ctx: otoCtx, rate: otoRate}, nil
}

func openOtoWithRetry(sampleRate int, platform *PlatformInfo) (*oto.Context, error) {
	if platform == nil {
		platform = DetectPlatform()
	}
	retries, delay := platform.retryPolicy()

	var lastErr error
	for i := 0; i < retries; i++ {
		if i > 0 {
			log.Debug("Retrying audio context initialization", "attempt", i+1, "of", retries)
			time.Sleep(delay)
		}
		ctx, err := openOto(sampleRate, platform)
		if err == nil {
			log.Info("Audio device ready", "rate", sampleRate, "attempt", i+1)
			return ctx, nil
		}
		lastErr = err
		log.Debug("Audio context initialization failed", "attempt", i+1, "error", err)
	}
	return nil, fmt.Errorf("failed to initialize audio context after %d attempts: %w", retries, lastErr)
}

func openOto(sampleRate int, platform *PlatformInfo) (*oto.Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   platform.BufferSize(),
	}
	log.Debug("Opening audio device",
		"platform", platform.OS,
		"subsystem", platform.AudioSubsystem,
		"rate", op.SampleRate,
		"buffer", op.BufferSize)

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}

	timeout := 5 * time.Second
	if platform.OS == PlatformDarwin {
		timeout = 10 * time.Second
	}
	select {
	case <-ready:
		return ctx, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("audio context initialization timeout after %v", timeout)
	}
}

// NewStream implements Context.
func (c *OtoContext) NewStream(r io.Reader) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.ctx == nil {
		return nil, errors.New("audio context not ready")
	}
	if err := c.ctx.Err(); err != nil {
		return nil, fmt.Errorf("audio device error: %w", err)
	}
	return &otoStream{player: c.ctx.NewPlayer(r)}, nil
}

// Close implements Context. The oto context itself lives until process
// exit; this only stops handing out streams.
func (c *OtoContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// IsReady implements Context.
func (c *OtoContext) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.ctx != nil
}

// SampleRate implements Context.
func (c *OtoContext) SampleRate() int { return c.rate }

type otoStream struct {
	player *oto.Player
}

func (s *otoStream) Play()                    { s.player.Play() }
func (s *otoStream) Pause()                   { s.player.Pause() }
func (s *otoStream) IsPlaying() bool          { return s.player.IsPlaying() }
func (s *otoStream) SetVolume(volume float64) { s.player.SetVolume(volume) }
func (s *otoStream) Err() error               { return s.player.Err() }
func (s *otoStream) Close() error             { return s.player.Close() }
