package speech

import (
	"context"
	"fmt"
	"sync"

	"github.com/studybuddy-ai/studybuddy/internal/textproc"
)

// worker is one incarnation of the background consumer.
type worker struct {
	id   int64
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func (w *worker) alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

func (w *worker) terminate() {
	w.once.Do(func() { close(w.quit) })
}

// ensureWorker starts the worker if it was never started or has died.
func (e *Engine) ensureWorker() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return
	}
	if e.worker != nil && e.worker.alive() {
		return
	}
	if e.worker != nil {
		e.log.Warn("Speech worker is not running, restarting", "worker", e.worker.id)
	}

	w := &worker{
		id:   e.spawned.Add(1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	e.worker = w
	go e.run(w)
}

func (e *Engine) run(w *worker) {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			err := &Error{Code: CodeWorkerFault, Cause: fmt.Errorf("panic: %v", r)}
			e.log.Error("Speech worker terminated", "worker", w.id, "error", err)
		}
		e.setState(StateIdle)
	}()

	e.log.Debug("Speech worker started", "worker", w.id)
	for {
		select {
		case <-w.quit:
			e.log.Debug("Speech worker stopped", "worker", w.id)
			return
		default:
		}

		if e.signal.raised() {
			e.signal.clear()
			continue
		}

		u, ok := e.next(w)
		if !ok {
			continue
		}
		e.process(u)
		e.setState(StateIdle)
	}
}

// next blocks until an utterance is available, the signal is raised or the
// worker is told to quit.
func (e *Engine) next(w *worker) (Utterance, bool) {
	for {
		u, ok := e.queue.pop(func() { e.setState(StateDequeuing) })
		if ok {
			return u, true
		}
		select {
		case <-e.queue.wait():
		case <-e.signal.done():
			return Utterance{}, false
		case <-w.quit:
			return Utterance{}, false
		}
	}
}

// stale reports whether a stop was requested after u was queued.
func (e *Engine) stale(u Utterance) bool {
	return e.signal.generation() != u.gen
}

func (e *Engine) process(u Utterance) {
	defer e.recoverStep(u)

	if e.stale(u) {
		e.cancelled(u, "dequeue")
		return
	}
	e.signal.clear()

	chunks := textproc.SplitSentences(u.Text, e.cfg.MaxChunkLen)
	e.log.Debug("Speaking utterance", "utterance", u.ID, "chunks", len(chunks))

	direct := e.directReady()
	for i, chunk := range chunks {
		if e.stale(u) {
			e.cancelled(u, fmt.Sprintf("chunk %d", i))
			return
		}

		if direct {
			err := e.step(u, StateSynthesizing, func(ctx context.Context) error {
				return e.cfg.Direct.PlayDirect(ctx, chunk)
			})
			if e.stale(u) {
				e.cancelled(u, "direct")
				return
			}
			if err == nil {
				continue
			}
			e.log.Warn("Direct backend failed, falling back to renderer",
				"utterance", u.ID,
				"error", synthesisError(e.cfg.Direct.Name(), u.ID, err))
			direct = false
		}

		if !e.renderAndPlay(u, chunk) {
			return
		}
	}
}

// renderAndPlay speaks one chunk through the renderer and the driver. It
// returns false when the rest of the utterance should be dropped.
func (e *Engine) renderAndPlay(u Utterance, chunk string) bool {
	if e.cfg.Renderer == nil {
		e.log.Error("Dropping utterance", "utterance", u.ID, "error", synthesisError("", u.ID, ErrNoBackend))
		return false
	}

	var audio []byte
	err := e.step(u, StateSynthesizing, func(ctx context.Context) error {
		var err error
		audio, err = e.cfg.Renderer.Render(ctx, chunk)
		return err
	})
	if e.stale(u) {
		e.cancelled(u, "render")
		return false
	}
	if err != nil {
		e.log.Error("Dropping utterance", "utterance", u.ID,
			"error", synthesisError(e.cfg.Renderer.Name(), u.ID, err))
		return false
	}

	if e.cfg.Driver == nil {
		e.log.Error("Dropping utterance", "utterance", u.ID, "error", playbackError(u.ID, ErrNoBackend))
		return false
	}
	err = e.step(u, StatePlaying, func(ctx context.Context) error {
		return e.cfg.Driver.Play(ctx, audio)
	})
	if e.stale(u) {
		e.cancelled(u, "playback")
		return false
	}
	if err != nil {
		e.log.Error("Dropping utterance", "utterance", u.ID, "error", playbackError(u.ID, err))
		return false
	}
	return true
}

// step runs fn with an active handle installed. The generation is checked
// again after installing the handle so a stop that raced the install is
// never missed.
func (e *Engine) step(u Utterance, st WorkerState, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &activeHandle{utterance: u.ID, abort: cancel}
	e.active.Store(h)
	defer e.active.CompareAndSwap(h, nil)

	if e.stale(u) {
		return context.Canceled
	}
	e.setState(st)
	return fn(ctx)
}

// directReady reports whether the direct backend may be used for the next
// utterance, reinitialising it if a previous stop left it unusable.
func (e *Engine) directReady() bool {
	if e.cfg.Direct == nil {
		return false
	}
	lc, ok := e.cfg.Direct.(Lifecycle)
	if !ok {
		return true
	}

	switch lc.State() {
	case BackendReady:
		return true
	case BackendNeedsReinit:
		if err := lc.Reinit(); err != nil {
			e.log.Warn("Direct backend reinit failed", "backend", e.cfg.Direct.Name(), "error", err)
			return false
		}
		return lc.State() == BackendReady
	default:
		return false
	}
}

func (e *Engine) cancelled(u Utterance, at string) {
	e.setState(StateCancelling)
	e.log.Debug("Utterance cancelled", "utterance", u.ID, "at", at)
}

func (e *Engine) recoverStep(u Utterance) {
	if r := recover(); r != nil {
		e.log.Error("Recovered from panic while speaking", "utterance", u.ID, "panic", r)
	}
}
