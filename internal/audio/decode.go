package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// ErrEmptyAudio is returned for zero-length buffers.
var ErrEmptyAudio = errors.New("audio data is empty")

// DecodeMP3 decodes an MP3 buffer into 16-bit stereo PCM at targetRate.
func DecodeMP3(data []byte, targetRate int) ([]byte, error) {
	return DecodeMP3Context(context.Background(), data, targetRate)
}

// DecodeMP3Context is DecodeMP3 that stops decoding once ctx is done and
// returns ctx.Err().
func DecodeMP3Context(ctx context.Context, data []byte, targetRate int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}
	pcm, err := io.ReadAll(&ctxReader{ctx: ctx, r: dec})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("mp3 decode: %w", ErrEmptyAudio)
	}
	if targetRate > 0 && dec.SampleRate() != targetRate {
		pcm = Resample(pcm, dec.SampleRate(), targetRate)
	}
	return pcm, nil
}

// ctxReader fails reads once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Resample converts interleaved 16-bit stereo PCM from one rate to another
// using linear interpolation. Speech does not need anything better.
func Resample(pcm []byte, from, to int) []byte {
	const frameSize = Channels * BytesPerSample
	if from == to || from <= 0 || to <= 0 {
		return pcm
	}
	inFrames := len(pcm) / frameSize
	if inFrames == 0 {
		return nil
	}
	outFrames := int(int64(inFrames) * int64(to) / int64(from))
	out := make([]byte, outFrames*frameSize)

	sample := func(frame, ch int) float64 {
		off := frame*frameSize + ch*BytesPerSample
		return float64(int16(binary.LittleEndian.Uint16(pcm[off:])))
	}

	ratio := float64(from) / float64(to)
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		frac := pos - float64(j)
		k := j + 1
		if k >= inFrames {
			k = inFrames - 1
		}
		for ch := 0; ch < Channels; ch++ {
			v := sample(j, ch)*(1-frac) + sample(k, ch)*frac
			binary.LittleEndian.PutUint16(out[i*frameSize+ch*BytesPerSample:], uint16(int16(v)))
		}
	}
	return out
}
