package audio

// SilentMP3 returns n MPEG-1 Layer III frames of mono silence at 128 kbps
// and 44.1 kHz. It is a real, decodable MP3 used by tests and by the
// `studybuddy doctor` audio check.
func SilentMP3(n int) []byte {
	// 144 * 128000 / 44100, no padding.
	const frameSize = 417
	header := []byte{0xFF, 0xFB, 0x90, 0xC4}

	out := make([]byte, 0, n*frameSize)
	for i := 0; i < n; i++ {
		frame := make([]byte, frameSize)
		copy(frame, header)
		out = append(out, frame...)
	}
	return out
}
