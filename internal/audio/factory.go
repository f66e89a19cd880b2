package audio

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// NewContext creates the Context selected by t. Auto falls back to the mock
// whenever the device cannot be used, so callers always get a context.
func NewContext(t ContextType, sampleRate int) (Context, error) {
	switch t {
	case ContextProduction:
		return NewOtoContext(sampleRate, nil)

	case ContextMock:
		return NewMockContext(sampleRate), nil

	case ContextAuto:
		platform := DetectPlatform()
		if platform.ShouldUseMock() {
			reason := "no audio devices"
			switch {
			case platform.IsCI:
				reason = "CI environment"
			case platform.AudioSubsystem == AudioSubsystemNone:
				reason = "no audio subsystem"
			}
			log.Info("Using mock audio context", "reason", reason)
			return NewMockContext(sampleRate), nil
		}

		ctx, err := NewOtoContext(sampleRate, platform)
		if err != nil {
			log.Warn("Failed to open audio device, falling back to mock",
				"error", err,
				"platform", platform.OS)
			return NewMockContext(sampleRate), nil
		}
		return ctx, nil

	default:
		return nil, fmt.Errorf("unknown audio context type: %v", t)
	}
}
