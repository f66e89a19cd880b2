// Package speech implements the server-side speech playback engine.
//
// An Engine owns a FIFO queue of utterances, a cancellation signal and a
// single background worker that drains the queue one utterance at a time.
// Each utterance is split into sentence chunks. A chunk is first offered to
// the direct backend, which synthesizes and plays in one step; if that fails
// the rest of the utterance goes through the rendering backend and the
// playback driver.
//
// Stop raises the cancellation signal, clears the queue and aborts whatever
// step is active, so audio ceases within the backend's abort latency. Speak
// always stops first, which guarantees a new utterance never overlaps the
// previous one.
//
// Failures below the facade are logged and absorbed. The worker recovers
// from panics inside a step and is respawned by the next Speak or Stop if it
// dies outside one. Delivery is at most once.
package speech
