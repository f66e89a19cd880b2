// Package engines provides the synthesis backends used by the speech
// engine: a local platform voice that plays directly, and renderers that
// return MP3 audio (Google Translate TTS over HTTP, or the gtts-cli tool).
package engines
