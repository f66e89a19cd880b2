package audio

import "io"

// Output format shared by every context. go-mp3 always decodes to 16-bit
// little endian stereo, so the device is opened in the same layout and only
// the sample rate may need conversion.
const (
	DefaultSampleRate = 24000
	Channels          = 2
	BytesPerSample    = 2
)

// Context is an open audio output device.
type Context interface {
	// NewStream creates a paused stream reading PCM from r.
	NewStream(r io.Reader) (Stream, error)

	// Close releases the device.
	Close() error

	// IsReady reports whether streams can be created.
	IsReady() bool

	// SampleRate returns the device sample rate in Hz.
	SampleRate() int
}

// Stream is a single playback of a PCM reader.
type Stream interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)

	// Err returns an asynchronous playback error, if any.
	Err() error

	Close() error
}

// ContextType selects the Context implementation.
type ContextType int

const (
	// ContextProduction uses the real audio device via oto.
	ContextProduction ContextType = iota
	// ContextMock simulates playback without a device.
	ContextMock
	// ContextAuto picks mock in CI or without an audio device.
	ContextAuto
)

func (t ContextType) String() string {
	switch t {
	case ContextProduction:
		return "production"
	case ContextMock:
		return "mock"
	case ContextAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseContextType maps a config value to a ContextType.
func ParseContextType(s string) ContextType {
	switch s {
	case "production", "device", "oto":
		return ContextProduction
	case "mock", "none":
		return ContextMock
	default:
		return ContextAuto
	}
}
