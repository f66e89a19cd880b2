package engines

import "errors"

var (
	// ErrUnavailable means the backend's binary or service cannot be used
	// on this machine.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrEmptyText is returned for text with nothing to speak.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyAudio means a backend finished without producing audio.
	ErrEmptyAudio = errors.New("backend produced no audio")
)
