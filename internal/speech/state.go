package speech

// WorkerState is the position of the worker in its state machine.
type WorkerState int32

const (
	// StateIdle means no utterance is active.
	StateIdle WorkerState = iota
	// StateDequeuing means an utterance was just taken from the queue.
	StateDequeuing
	// StateSynthesizing means a backend is producing (or directly playing)
	// audio.
	StateSynthesizing
	// StatePlaying means the playback driver is playing a rendered buffer.
	StatePlaying
	// StateCancelling is entered when the cancellation signal is observed.
	// The worker drops the current utterance and returns to StateIdle.
	StateCancelling
)

func (s WorkerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDequeuing:
		return "dequeuing"
	case StateSynthesizing:
		return "synthesizing"
	case StatePlaying:
		return "playing"
	case StateCancelling:
		return "cancelling"
	default:
		return "unknown"
	}
}

// BackendState is the lifecycle of a direct playback backend. Native
// speech engines often need re-creating after an abort, which is modelled
// as NeedsReinit.
type BackendState int32

const (
	BackendReady BackendState = iota
	BackendNeedsReinit
	BackendUnavailable
)

func (s BackendState) String() string {
	switch s {
	case BackendReady:
		return "ready"
	case BackendNeedsReinit:
		return "needs-reinit"
	case BackendUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}
