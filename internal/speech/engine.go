package speech

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/studybuddy-ai/studybuddy/internal/textproc"
)

// DefaultPreemptDelay is how long Speak yields after stopping previous
// speech, giving the device time to release.
const DefaultPreemptDelay = 50 * time.Millisecond

// Config wires an Engine to its backends.
type Config struct {
	// Direct is the preferred backend. Optional.
	Direct DirectPlayer
	// Renderer is the fallback backend and the only one used by
	// RenderForTransport.
	Renderer Renderer
	// Driver plays Renderer output locally.
	Driver Driver

	// PreemptDelay defaults to DefaultPreemptDelay; negative disables it.
	PreemptDelay time.Duration
	// MaxChunkLen bounds chunk length in runes.
	MaxChunkLen int

	Logger *log.Logger
}

// Engine is the speech facade. Construct one per process and share it.
type Engine struct {
	cfg Config
	log *log.Logger

	queue  *queue
	signal *signal
	active atomic.Pointer[activeHandle]
	state  atomic.Int32

	mu      sync.Mutex
	worker  *worker
	spawned atomic.Int64
	closed  atomic.Bool
}

// activeHandle lets requestStop abort the step that is producing or
// playing audio. It is only valid while that step runs.
type activeHandle struct {
	utterance string
	abort     context.CancelFunc
}

// Status is a point-in-time view of the engine.
type Status struct {
	State       string `json:"state"`
	Pending     int    `json:"pending"`
	WorkerAlive bool   `json:"worker_alive"`
	Restarts    int64  `json:"restarts"`
	Direct      string `json:"direct,omitempty"`
	DirectState string `json:"direct_state,omitempty"`
	Renderer    string `json:"renderer,omitempty"`
}

// New returns an Engine. The worker starts on the first Speak or Stop.
func New(cfg Config) *Engine {
	if cfg.PreemptDelay == 0 {
		cfg.PreemptDelay = DefaultPreemptDelay
	}
	if cfg.MaxChunkLen <= 0 {
		cfg.MaxChunkLen = textproc.DefaultMaxChunk
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("speech")
	}
	return &Engine{
		cfg:    cfg,
		log:    logger,
		queue:  newQueue(),
		signal: newSignal(),
	}
}

// Speak stops any current speech and queues text. Blank text is ignored
// and does not start the worker.
func (e *Engine) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		e.log.Debug("Ignoring speech", "error", emptyInputError())
		return
	}
	if e.closed.Load() {
		e.log.Warn("Speak called on closed engine")
		return
	}

	gen := e.requestStop()
	if e.cfg.PreemptDelay > 0 {
		time.Sleep(e.cfg.PreemptDelay)
	}
	e.ensureWorker()

	u := Utterance{ID: uuid.NewString(), Text: text, gen: gen}
	e.queue.push(u)
	e.log.Debug("Utterance queued", "utterance", u.ID, "length", len(text))
}

// Stop cancels current and pending speech. It never blocks on playback and
// may be called from any goroutine, any number of times.
func (e *Engine) Stop() {
	e.ensureWorker()
	e.requestStop()
}

// RenderForTransport synthesizes text with the rendering backend and
// returns the encoded audio for playback elsewhere. It does not touch the
// queue or the worker. It returns nil for blank text or on failure.
func (e *Engine) RenderForTransport(ctx context.Context, text string) []byte {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if e.cfg.Renderer == nil {
		e.log.Error("Cannot render for transport", "error", synthesisError("", "", ErrNoBackend))
		return nil
	}

	start := time.Now()
	audio, err := e.cfg.Renderer.Render(ctx, text)
	if err != nil {
		e.log.Error("Render for transport failed",
			"error", synthesisError(e.cfg.Renderer.Name(), "", err))
		return nil
	}
	if len(audio) == 0 {
		return nil
	}
	e.log.Debug("Rendered for transport",
		"backend", e.cfg.Renderer.Name(),
		"size", humanize.Bytes(uint64(len(audio))),
		"took", time.Since(start))
	return audio
}

// requestStop raises the signal, empties the queue and aborts the active
// step. It returns the new cancellation generation.
func (e *Engine) requestStop() uint64 {
	gen := e.signal.set()
	dropped := e.queue.clear()
	if h := e.active.Load(); h != nil {
		h.abort()
		e.log.Debug("Aborted active step", "utterance", h.utterance)
	}
	if dropped > 0 {
		e.log.Debug("Stop requested", "gen", gen, "dropped", dropped)
	}
	return gen
}

// State returns the worker state.
func (e *Engine) State() WorkerState {
	return WorkerState(e.state.Load())
}

func (e *Engine) setState(s WorkerState) {
	e.state.Store(int32(s))
}

// Pending returns the number of queued utterances.
func (e *Engine) Pending() int {
	return e.queue.len()
}

// Idle reports whether nothing is queued or being spoken.
func (e *Engine) Idle() bool {
	return e.queue.empty(func() bool { return e.State() == StateIdle })
}

// WaitIdle blocks until the engine is idle or ctx is done.
func (e *Engine) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if e.Idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Status returns a snapshot for diagnostics.
func (e *Engine) Status() Status {
	e.mu.Lock()
	alive := e.worker != nil && e.worker.alive()
	e.mu.Unlock()

	st := Status{
		State:       e.State().String(),
		Pending:     e.Pending(),
		WorkerAlive: alive,
		Restarts:    e.Restarts(),
	}
	if e.cfg.Direct != nil {
		st.Direct = e.cfg.Direct.Name()
		if lc, ok := e.cfg.Direct.(Lifecycle); ok {
			st.DirectState = lc.State().String()
		}
	}
	if e.cfg.Renderer != nil {
		st.Renderer = e.cfg.Renderer.Name()
	}
	return st
}

// Restarts returns how many times the worker was respawned after dying.
func (e *Engine) Restarts() int64 {
	if n := e.spawned.Load(); n > 1 {
		return n - 1
	}
	return 0
}

// Close stops speech and terminates the worker without waiting for it.
// Later calls to Speak are ignored.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.requestStop()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.worker != nil {
		e.worker.terminate()
	}
	return nil
}
