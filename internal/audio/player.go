package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// DefaultPollInterval bounds how long playback keeps going after its
// context is cancelled.
const DefaultPollInterval = 50 * time.Millisecond

// PlayerConfig configures a Player.
type PlayerConfig struct {
	// Type selects the output device. Ignored when Context is set.
	Type ContextType
	// SampleRate of the device; decoded audio is resampled to it.
	SampleRate int
	// Volume between 0 (muted) and 1. Values outside that range play at 1.
	Volume float64
	// PollInterval for completion and cancellation checks.
	PollInterval time.Duration
	// Context overrides device selection, mainly for tests.
	Context Context
	Logger  *log.Logger
}

// Player plays MP3 buffers on an audio Context. It is safe for concurrent
// use but plays one buffer per call; callers serialize playback.
type Player struct {
	cfg PlayerConfig
	log *log.Logger

	mu     sync.Mutex
	ctx    Context
	ctxErr error
	opened bool
}

// NewPlayer returns a Player. The device is opened lazily on first use so
// that a machine without audio only fails when something is played.
func NewPlayer(cfg PlayerConfig) *Player {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Volume < 0 || cfg.Volume > 1 {
		cfg.Volume = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("audio")
	}
	return &Player{cfg: cfg, log: logger}
}

func (p *Player) context() (Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.opened {
		p.opened = true
		if p.cfg.Context != nil {
			p.ctx = p.cfg.Context
		} else {
			p.ctx, p.ctxErr = NewContext(p.cfg.Type, p.cfg.SampleRate)
		}
	}
	return p.ctx, p.ctxErr
}

// Play decodes mp3Data and plays it to completion. When ctx is cancelled
// playback pauses within one poll interval and ctx.Err() is returned.
func (p *Player) Play(ctx context.Context, mp3Data []byte) error {
	if len(mp3Data) == 0 {
		return ErrEmptyAudio
	}
	actx, err := p.context()
	if err != nil {
		return fmt.Errorf("audio device: %w", err)
	}

	pcm, err := DecodeMP3Context(ctx, mp3Data, actx.SampleRate())
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stream, err := actx.NewStream(bytes.NewReader(pcm))
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	p.log.Debug("Playing audio",
		"mp3", humanize.Bytes(uint64(len(mp3Data))),
		"pcm", humanize.Bytes(uint64(len(pcm))))

	stream.SetVolume(p.cfg.Volume)
	stream.Play()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			stream.Pause()
			p.log.Debug("Playback aborted")
			return ctx.Err()
		case <-ticker.C:
			if err := stream.Err(); err != nil {
				return fmt.Errorf("playback: %w", err)
			}
			if !stream.IsPlaying() {
				return nil
			}
		}
	}
}

// Close releases the device if it was opened.
func (p *Player) Close() error {
	p.mu.Lock()
	actx := p.ctx
	p.mu.Unlock()
	if actx != nil {
		return actx.Close()
	}
	return nil
}
