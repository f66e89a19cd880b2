package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func TestDecodeMP3Silence(t *testing.T) {
	pcm, err := DecodeMP3(SilentMP3(20), 0)
	if err != nil {
		t.Fatalf("DecodeMP3 failed: %v", err)
	}
	if len(pcm) == 0 {
		t.Fatal("expected decoded PCM")
	}
	if len(pcm)%(Channels*BytesPerSample) != 0 {
		t.Errorf("PCM length %d is not a whole number of frames", len(pcm))
	}
}

func TestDecodeMP3Empty(t *testing.T) {
	if _, err := DecodeMP3(nil, 0); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestDecodeMP3Garbage(t *testing.T) {
	if _, err := DecodeMP3([]byte("definitely not audio"), 0); err == nil {
		t.Error("expected an error for non-MP3 input")
	}
}

func TestResample(t *testing.T) {
	const frames = 1000
	pcm := make([]byte, frames*Channels*BytesPerSample)
	for i := 0; i < frames; i++ {
		v := uint16(int16(i))
		binary.LittleEndian.PutUint16(pcm[i*4:], v)
		binary.LittleEndian.PutUint16(pcm[i*4+2:], v)
	}

	tests := []struct {
		name     string
		from, to int
		want     int
	}{
		{"same rate", 24000, 24000, frames},
		{"down", 48000, 24000, frames / 2},
		{"up", 22050, 44100, frames * 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Resample(pcm, tt.from, tt.to)
			if got := len(out) / (Channels * BytesPerSample); got != tt.want {
				t.Errorf("Resample(%d -> %d) produced %d frames, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}

	// A ramp stays monotonic after downsampling.
	out := Resample(pcm, 48000, 24000)
	prev := int16(-1)
	for i := 0; i < len(out)/4; i++ {
		v := int16(binary.LittleEndian.Uint16(out[i*4:]))
		if v < prev {
			t.Fatalf("sample %d = %d decreased from %d", i, v, prev)
		}
		prev = v
	}
}

func TestPlayerPlaysToCompletion(t *testing.T) {
	mock := NewMockContext(DefaultSampleRate)
	p := NewPlayer(PlayerConfig{Context: mock, PollInterval: 5 * time.Millisecond})

	if err := p.Play(context.Background(), SilentMP3(10)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	streams := mock.Streams()
	if len(streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(streams))
	}
	if !streams[0].Completed() {
		t.Error("expected stream to complete")
	}
	if !streams[0].Closed() {
		t.Error("expected stream to be closed after playback")
	}
}

func TestPlayerAbortsOnCancel(t *testing.T) {
	mock := NewMockContext(DefaultSampleRate)
	mock.TimeScale = 50 // ~13s of simulated audio
	p := NewPlayer(PlayerConfig{Context: mock, PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Play(ctx, SilentMP3(10)) }()

	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
			t.Errorf("playback took %v to stop", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not stop after cancel")
	}

	s := mock.Streams()[0]
	if s.Completed() {
		t.Error("aborted stream should not complete")
	}
	if !s.Interrupted() {
		t.Error("expected stream to be interrupted")
	}
}

func TestPlayerStreamFailure(t *testing.T) {
	mock := NewMockContext(DefaultSampleRate)
	mock.FailNewStream = errors.New("device busy")
	p := NewPlayer(PlayerConfig{Context: mock})

	if err := p.Play(context.Background(), SilentMP3(2)); err == nil {
		t.Fatal("expected an error when the stream cannot be created")
	}
}

func TestPlayerVolume(t *testing.T) {
	tests := []struct {
		name   string
		volume float64
		want   float64
	}{
		{"muted", 0, 0},
		{"half", 0.5, 0.5},
		{"full", 1, 1},
		{"negative falls back", -0.2, 1},
		{"too loud falls back", 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockContext(DefaultSampleRate)
			p := NewPlayer(PlayerConfig{Context: mock, Volume: tt.volume, PollInterval: 5 * time.Millisecond})
			if err := p.Play(context.Background(), SilentMP3(2)); err != nil {
				t.Fatal(err)
			}
			if got := mock.Streams()[0].Volume(); got != tt.want {
				t.Errorf("stream volume = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeMP3ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DecodeMP3Context(ctx, SilentMP3(400), 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPlayerCancelledBeforeStream(t *testing.T) {
	mock := NewMockContext(DefaultSampleRate)
	p := NewPlayer(PlayerConfig{Context: mock})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Play(ctx, SilentMP3(400)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if n := len(mock.Streams()); n != 0 {
		t.Errorf("created %d streams for a cancelled play", n)
	}
}

func TestPlayerCloseDuringFirstPlay(t *testing.T) {
	mock := NewMockContext(DefaultSampleRate)
	p := NewPlayer(PlayerConfig{Context: mock, PollInterval: 5 * time.Millisecond})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Play(context.Background(), SilentMP3(2))
	}()
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	<-done
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestParseContextType(t *testing.T) {
	tests := map[string]ContextType{
		"mock":       ContextMock,
		"production": ContextProduction,
		"auto":       ContextAuto,
		"":           ContextAuto,
	}
	for in, want := range tests {
		if got := ParseContextType(in); got != want {
			t.Errorf("ParseContextType(%q) = %v, want %v", in, got, want)
		}
	}
}
