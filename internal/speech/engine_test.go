package speech

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/studybuddy-ai/studybuddy/internal/audio"
)

type fakeDirect struct {
	mu        sync.Mutex
	texts     []string
	active    int
	maxActive int
	block     bool
	delay     time.Duration
	err       error
	panicOn   string
	started   chan string
}

func newFakeDirect() *fakeDirect {
	return &fakeDirect{started: make(chan string, 32)}
}

func (f *fakeDirect) Name() string { return "fake-direct" }

func (f *fakeDirect) PlayDirect(ctx context.Context, text string) error {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	block, delay, err, panicOn := f.block, f.delay, f.err, f.panicOn
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	select {
	case f.started <- text:
	default:
	}
	if panicOn != "" && strings.Contains(text, panicOn) {
		panic("boom")
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeDirect) spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *fakeDirect) peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

type lifecycleDirect struct {
	*fakeDirect
	lmu     sync.Mutex
	state   BackendState
	reinits int
}

func (l *lifecycleDirect) State() BackendState {
	l.lmu.Lock()
	defer l.lmu.Unlock()
	return l.state
}

func (l *lifecycleDirect) Reinit() error {
	l.lmu.Lock()
	defer l.lmu.Unlock()
	l.reinits++
	l.state = BackendReady
	return nil
}

type fakeRenderer struct {
	mu    sync.Mutex
	texts []string
	audio []byte
	err   error
}

func (f *fakeRenderer) Name() string { return "fake-renderer" }

func (f *fakeRenderer) Render(ctx context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

func (f *fakeRenderer) rendered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeDriver struct {
	mu     sync.Mutex
	played int
	block  bool
	err    error
}

func (f *fakeDriver) Play(ctx context.Context, audio []byte) error {
	f.mu.Lock()
	f.played++
	block, err := f.block, f.err
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeDriver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.played
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	e := New(cfg)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func waitIdle(t *testing.T, e *Engine, timeout time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := e.WaitIdle(ctx); err != nil {
		t.Fatalf("engine not idle after %v: state=%s pending=%d", timeout, e.State(), e.Pending())
	}
}

func waitStarted(t *testing.T, f *fakeDirect, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-f.started:
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("direct backend never started %q", want)
		}
	}
}

func TestSpeakEmptyDoesNotStartWorker(t *testing.T) {
	direct := newFakeDirect()
	var logs strings.Builder
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})
	e := newTestEngine(t, Config{Direct: direct, Logger: logger})

	for _, text := range []string{"", "   ", "\n\t"} {
		e.Speak(text)
	}

	st := e.Status()
	if st.WorkerAlive {
		t.Error("worker started for blank input")
	}
	if e.spawned.Load() != 0 {
		t.Errorf("spawned = %d, want 0", e.spawned.Load())
	}
	if len(direct.spoken()) != 0 {
		t.Errorf("backend called for blank input: %v", direct.spoken())
	}
	if n := strings.Count(logs.String(), string(CodeEmptyInput)); n != 3 {
		t.Errorf("logged %d empty-input errors, want 3:\n%s", n, logs.String())
	}
	if !errors.Is(emptyInputError(), ErrEmptyInput) {
		t.Error("empty input error does not match ErrEmptyInput")
	}
}

func TestSpeakDirect(t *testing.T) {
	direct := newFakeDirect()
	e := newTestEngine(t, Config{Direct: direct})

	e.Speak("  Hello world.  ")
	waitIdle(t, e, 2*time.Second)

	got := direct.spoken()
	if len(got) != 1 || got[0] != "Hello world." {
		t.Fatalf("spoken = %q, want [Hello world.]", got)
	}
	if e.State() != StateIdle {
		t.Errorf("state = %s, want idle", e.State())
	}
}

func TestSpeakChunksSentences(t *testing.T) {
	direct := newFakeDirect()
	e := newTestEngine(t, Config{Direct: direct})

	e.Speak("The first sentence is here. The second one follows.")
	waitIdle(t, e, 2*time.Second)

	got := direct.spoken()
	if len(got) != 2 {
		t.Fatalf("chunks = %q, want 2", got)
	}
	if got[0] != "The first sentence is here." {
		t.Errorf("chunk 0 = %q", got[0])
	}
}

func TestFallbackToRenderer(t *testing.T) {
	direct := newFakeDirect()
	direct.err = errors.New("engine init failed")
	renderer := &fakeRenderer{audio: audio.SilentMP3(2)}
	driver := &fakeDriver{}
	e := newTestEngine(t, Config{Direct: direct, Renderer: renderer, Driver: driver})

	e.Speak("One sentence here. Another sentence there.")
	waitIdle(t, e, 2*time.Second)

	// The direct backend is only tried once per utterance.
	if n := len(direct.spoken()); n != 1 {
		t.Errorf("direct calls = %d, want 1", n)
	}
	if got := renderer.rendered(); len(got) != 2 {
		t.Errorf("rendered = %q, want 2 chunks", got)
	}
	if driver.count() != 2 {
		t.Errorf("played = %d, want 2", driver.count())
	}
}

func TestRendererOnly(t *testing.T) {
	renderer := &fakeRenderer{audio: audio.SilentMP3(1)}
	driver := &fakeDriver{}
	e := newTestEngine(t, Config{Renderer: renderer, Driver: driver})

	e.Speak("Hello")
	waitIdle(t, e, 2*time.Second)

	if driver.count() != 1 {
		t.Errorf("played = %d, want 1", driver.count())
	}
}

func TestSynthesisFailureDropsUtterance(t *testing.T) {
	direct := newFakeDirect()
	direct.err = errors.New("no voice")
	renderer := &fakeRenderer{err: errors.New("network down")}
	driver := &fakeDriver{}
	e := newTestEngine(t, Config{Direct: direct, Renderer: renderer, Driver: driver})

	e.Speak("First sentence. Second sentence.")
	waitIdle(t, e, 2*time.Second)

	if got := renderer.rendered(); len(got) != 1 {
		t.Errorf("rendered = %q, want only the first chunk", got)
	}
	if driver.count() != 0 {
		t.Errorf("played = %d, want 0", driver.count())
	}

	// The engine keeps working after a dropped utterance.
	direct.mu.Lock()
	direct.err = nil
	direct.mu.Unlock()
	e.Speak("Recovered.")
	waitIdle(t, e, 2*time.Second)
	got := direct.spoken()
	if got[len(got)-1] != "Recovered." {
		t.Errorf("last spoken = %q, want Recovered.", got[len(got)-1])
	}
}

func TestStopWhileIdle(t *testing.T) {
	e := newTestEngine(t, Config{Direct: newFakeDirect()})

	e.Stop()
	e.Stop()
	waitIdle(t, e, time.Second)

	if !e.Status().WorkerAlive {
		t.Error("Stop should start the worker")
	}
}

func TestStopDuringDirectPlayback(t *testing.T) {
	direct := newFakeDirect()
	direct.block = true
	e := newTestEngine(t, Config{Direct: direct})

	e.Speak("This will be interrupted.")
	waitStarted(t, direct, "This will be interrupted.")

	start := time.Now()
	e.Stop()
	if d := time.Since(start); d > 100*time.Millisecond {
		t.Errorf("Stop blocked for %v", d)
	}
	waitIdle(t, e, 500*time.Millisecond)
}

func TestStopDuringDriverPlayback(t *testing.T) {
	renderer := &fakeRenderer{audio: audio.SilentMP3(1)}
	driver := &fakeDriver{block: true}
	e := newTestEngine(t, Config{Renderer: renderer, Driver: driver})

	e.Speak("Long audio.")
	deadline := time.Now().Add(2 * time.Second)
	for e.State() != StatePlaying {
		if time.Now().After(deadline) {
			t.Fatalf("never reached playing, state = %s", e.State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	e.Stop()
	waitIdle(t, e, 500*time.Millisecond)
}

func TestSpeakPreemptsPrevious(t *testing.T) {
	direct := newFakeDirect()
	direct.block = true
	e := newTestEngine(t, Config{Direct: direct})

	e.Speak("Alpha.")
	waitStarted(t, direct, "Alpha.")
	e.Speak("Bravo.")
	waitStarted(t, direct, "Bravo.")

	if p := direct.peak(); p != 1 {
		t.Errorf("concurrent playbacks = %d, want 1", p)
	}

	e.Stop()
	waitIdle(t, e, 500*time.Millisecond)

	got := direct.spoken()
	if got[len(got)-1] != "Bravo." {
		t.Errorf("last spoken = %q, want Bravo.", got[len(got)-1])
	}
}

func TestStopAfterSpeakDropsPending(t *testing.T) {
	direct := newFakeDirect()
	direct.delay = 20 * time.Millisecond
	e := newTestEngine(t, Config{Direct: direct, PreemptDelay: -1})

	e.Speak("Alpha.")
	e.Speak("Bravo.")
	e.Stop()

	waitIdle(t, e, time.Second)
	settled := len(direct.spoken())
	time.Sleep(50 * time.Millisecond)

	if got := len(direct.spoken()); got != settled {
		t.Errorf("backend called %d times after going idle", got-settled)
	}
	if settled > 2 {
		t.Errorf("backend called %d times, want at most 2", settled)
	}
	if e.Pending() != 0 {
		t.Errorf("pending = %d, want 0", e.Pending())
	}
}

func TestConcurrentStops(t *testing.T) {
	direct := newFakeDirect()
	direct.block = true
	e := newTestEngine(t, Config{Direct: direct})

	e.Speak("Stop me.")
	waitStarted(t, direct, "Stop me.")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Stop()
		}()
	}
	wg.Wait()
	waitIdle(t, e, time.Second)

	st := e.Status()
	if !st.WorkerAlive {
		t.Error("worker died after concurrent stops")
	}
	if st.Restarts != 0 {
		t.Errorf("restarts = %d, want 0", st.Restarts)
	}

	direct.mu.Lock()
	direct.block = false
	direct.mu.Unlock()
	e.Speak("Still working.")
	waitIdle(t, e, time.Second)
	got := direct.spoken()
	if got[len(got)-1] != "Still working." {
		t.Errorf("last spoken = %q", got[len(got)-1])
	}
}

func TestWorkerRespawn(t *testing.T) {
	direct := newFakeDirect()
	e := newTestEngine(t, Config{Direct: direct})

	e.Stop()
	e.mu.Lock()
	w := e.worker
	e.mu.Unlock()
	w.terminate()
	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit")
	}
	if e.Status().WorkerAlive {
		t.Fatal("worker reported alive after exit")
	}

	e.Speak("Back again.")
	waitIdle(t, e, 2*time.Second)

	if got := direct.spoken(); len(got) != 1 || got[0] != "Back again." {
		t.Errorf("spoken = %q", got)
	}
	if r := e.Restarts(); r != 1 {
		t.Errorf("restarts = %d, want 1", r)
	}
}

func TestPanicInStepIsRecovered(t *testing.T) {
	direct := newFakeDirect()
	direct.panicOn = "explode"
	e := newTestEngine(t, Config{Direct: direct})

	e.Speak("Please explode.")
	waitIdle(t, e, 2*time.Second)

	e.Speak("Calm again.")
	waitIdle(t, e, 2*time.Second)

	got := direct.spoken()
	if got[len(got)-1] != "Calm again." {
		t.Errorf("last spoken = %q", got[len(got)-1])
	}
	if e.Restarts() != 0 {
		t.Errorf("restarts = %d, want 0", e.Restarts())
	}
}

func TestStaleUtteranceIsDropped(t *testing.T) {
	direct := newFakeDirect()
	e := newTestEngine(t, Config{Direct: direct})

	e.Stop()
	gen := e.signal.generation()
	e.signal.set()
	e.queue.push(Utterance{ID: "old", Text: "Too late.", gen: gen})
	waitIdle(t, e, time.Second)

	if got := direct.spoken(); len(got) != 0 {
		t.Errorf("stale utterance spoken: %q", got)
	}
}

func TestLifecycleReinit(t *testing.T) {
	direct := &lifecycleDirect{fakeDirect: newFakeDirect(), state: BackendNeedsReinit}
	e := newTestEngine(t, Config{Direct: direct})

	e.Speak("Fresh engine.")
	waitIdle(t, e, 2*time.Second)

	if direct.reinits != 1 {
		t.Errorf("reinits = %d, want 1", direct.reinits)
	}
	if got := direct.spoken(); len(got) != 1 {
		t.Errorf("spoken = %q", got)
	}
}

func TestUnavailableDirectUsesRenderer(t *testing.T) {
	direct := &lifecycleDirect{fakeDirect: newFakeDirect(), state: BackendUnavailable}
	renderer := &fakeRenderer{audio: audio.SilentMP3(1)}
	driver := &fakeDriver{}
	e := newTestEngine(t, Config{Direct: direct, Renderer: renderer, Driver: driver})

	e.Speak("Hello.")
	waitIdle(t, e, 2*time.Second)

	if n := len(direct.spoken()); n != 0 {
		t.Errorf("unavailable backend called %d times", n)
	}
	if driver.count() != 1 {
		t.Errorf("played = %d, want 1", driver.count())
	}
	if st := e.Status(); st.DirectState != "unavailable" {
		t.Errorf("direct state = %q", st.DirectState)
	}
}

func TestRenderForTransport(t *testing.T) {
	renderer := &fakeRenderer{audio: audio.SilentMP3(4)}
	e := newTestEngine(t, Config{Renderer: renderer})
	ctx := context.Background()

	if b := e.RenderForTransport(ctx, "   "); b != nil {
		t.Errorf("blank input returned %d bytes", len(b))
	}

	b := e.RenderForTransport(ctx, "Hello")
	if len(b) == 0 {
		t.Fatal("expected audio for Hello")
	}
	pcm, err := audio.DecodeMP3(b, audio.DefaultSampleRate)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pcm) == 0 {
		t.Error("decoded audio is empty")
	}

	if e.Status().WorkerAlive {
		t.Error("RenderForTransport must not start the worker")
	}

	renderer.err = errors.New("quota exceeded")
	if b := e.RenderForTransport(ctx, "Hello"); b != nil {
		t.Error("expected nil on renderer failure")
	}
}

func TestRenderForTransportWithoutRenderer(t *testing.T) {
	e := newTestEngine(t, Config{Direct: newFakeDirect()})
	if b := e.RenderForTransport(context.Background(), "Hello"); b != nil {
		t.Error("expected nil without a renderer")
	}
}

func TestSpeakAfterClose(t *testing.T) {
	direct := newFakeDirect()
	e := newTestEngine(t, Config{Direct: direct})
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	e.Speak("Ignored.")
	time.Sleep(100 * time.Millisecond)
	if got := direct.spoken(); len(got) != 0 {
		t.Errorf("spoken after close: %q", got)
	}
}

func TestErrorIs(t *testing.T) {
	cause := errors.New("boom")
	err := error(synthesisError("google", "u1", cause))
	if !errors.Is(err, ErrSynthesis) {
		t.Error("synthesis error should match ErrSynthesis")
	}
	if errors.Is(err, ErrPlayback) {
		t.Error("synthesis error should not match ErrPlayback")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "google") {
		t.Errorf("message %q should name the backend", err.Error())
	}
	if !errors.Is(playbackError("u1", cause), ErrPlayback) {
		t.Error("playback error should match ErrPlayback")
	}
}
