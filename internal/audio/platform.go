package audio

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Platform is the operating system family.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

// AudioSubsystem is the sound server or driver detected on the host.
type AudioSubsystem string

const (
	AudioSubsystemALSA       AudioSubsystem = "alsa"
	AudioSubsystemPulseAudio AudioSubsystem = "pulseaudio"
	AudioSubsystemCoreAudio  AudioSubsystem = "coreaudio"
	AudioSubsystemWASAPI     AudioSubsystem = "wasapi"
	AudioSubsystemNone       AudioSubsystem = "none"
)

// PlatformInfo describes the host's audio capabilities.
type PlatformInfo struct {
	OS             Platform
	AudioSubsystem AudioSubsystem
	HasAudioDevice bool
	IsCI           bool
}

var ciVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
	"CIRCLECI",
	"DRONE",
}

// IsCI reports whether we run in CI or mock audio was requested.
func IsCI() bool {
	for _, v := range ciVars {
		if val := os.Getenv(v); val != "" && val != "false" {
			log.Debug("CI environment detected", "variable", v)
			return true
		}
	}
	if os.Getenv("STUDYBUDDY_MOCK_AUDIO") == "true" {
		log.Debug("Mock audio requested via environment variable")
		return true
	}
	return false
}

// DetectPlatform probes the host for an audio subsystem and devices.
func DetectPlatform() *PlatformInfo {
	info := &PlatformInfo{
		OS:   currentPlatform(),
		IsCI: IsCI(),
	}

	switch info.OS {
	case PlatformLinux:
		info.AudioSubsystem = detectLinuxAudio()
		info.HasAudioDevice = linuxHasDevices()
	case PlatformDarwin:
		info.AudioSubsystem = AudioSubsystemCoreAudio
		info.HasAudioDevice = true
	case PlatformWindows:
		info.AudioSubsystem = AudioSubsystemWASAPI
		info.HasAudioDevice = true
	default:
		info.AudioSubsystem = AudioSubsystemNone
	}

	log.Debug("Platform detected",
		"os", info.OS,
		"audio", info.AudioSubsystem,
		"has_device", info.HasAudioDevice,
		"is_ci", info.IsCI)
	return info
}

func currentPlatform() Platform {
	switch runtime.GOOS {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	case "windows":
		return PlatformWindows
	default:
		return PlatformUnknown
	}
}

func detectLinuxAudio() AudioSubsystem {
	if commandAvailable("pactl") {
		if out, err := exec.Command("pactl", "info").Output(); err == nil &&
			strings.Contains(string(out), "Server Name") {
			return AudioSubsystemPulseAudio
		}
	}
	if _, err := os.Stat("/proc/asound"); err == nil {
		return AudioSubsystemALSA
	}
	if commandAvailable("aplay") {
		return AudioSubsystemALSA
	}
	return AudioSubsystemNone
}

func linuxHasDevices() bool {
	if entries, err := os.ReadDir("/dev/snd"); err == nil {
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), "pcm") {
				return true
			}
		}
	}
	if b, err := os.ReadFile("/proc/asound/cards"); err == nil &&
		len(b) > 0 && !strings.Contains(string(b), "no soundcards") {
		return true
	}
	if commandAvailable("pactl") {
		if out, err := exec.Command("pactl", "list", "short", "sinks").Output(); err == nil && len(out) > 0 {
			return true
		}
	}
	return false
}

func commandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// ShouldUseMock reports whether playback should be simulated.
func (p *PlatformInfo) ShouldUseMock() bool {
	return p.IsCI || p.AudioSubsystem == AudioSubsystemNone || !p.HasAudioDevice
}

// BufferSize returns the device buffer length that avoids underruns on
// this platform.
func (p *PlatformInfo) BufferSize() time.Duration {
	switch p.OS {
	case PlatformDarwin:
		return 100 * time.Millisecond
	case PlatformWindows:
		return 80 * time.Millisecond
	case PlatformLinux:
		if p.AudioSubsystem == AudioSubsystemPulseAudio {
			return 60 * time.Millisecond
		}
		return 50 * time.Millisecond
	default:
		return 50 * time.Millisecond
	}
}

// CoreAudio and PulseAudio can race during startup, so they get retries.
func (p *PlatformInfo) retryPolicy() (int, time.Duration) {
	switch {
	case p.OS == PlatformDarwin:
		return 3, 200 * time.Millisecond
	case p.OS == PlatformWindows:
		return 2, 150 * time.Millisecond
	case p.AudioSubsystem == AudioSubsystemPulseAudio:
		return 2, 100 * time.Millisecond
	default:
		return 1, 0
	}
}

func (p *PlatformInfo) String() string {
	return fmt.Sprintf("Platform{OS: %s, Audio: %s, HasDevice: %v, IsCI: %v}",
		p.OS, p.AudioSubsystem, p.HasAudioDevice, p.IsCI)
}
