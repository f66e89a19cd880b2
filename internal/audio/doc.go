// Package audio plays rendered speech on the local output device.
//
// Audio goes through a Context, which is either backed by oto or by a mock
// that simulates playback timing for tests and headless machines. Player
// decodes MP3 buffers and plays them, aborting within one poll interval when
// its context is cancelled.
package audio
