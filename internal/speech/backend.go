package speech

import "context"

// DirectPlayer synthesizes and plays text in one step on the local device.
// Implementations must return promptly once ctx is cancelled.
type DirectPlayer interface {
	Name() string
	PlayDirect(ctx context.Context, text string) error
}

// Renderer synthesizes text into an encoded audio buffer (MP3).
type Renderer interface {
	Name() string
	Render(ctx context.Context, text string) ([]byte, error)
}

// Driver plays a rendered buffer on the local device, stopping early when
// ctx is cancelled.
type Driver interface {
	Play(ctx context.Context, audio []byte) error
}

// Lifecycle is implemented by backends that need re-initialization after
// an abort. The worker checks State before each use.
type Lifecycle interface {
	State() BackendState
	Reinit() error
}
