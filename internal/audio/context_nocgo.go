//go:build nocgo

package audio

import (
	"errors"
	"io"
)

var errNoDevice = errors.New("audio not available in nocgo build")

// OtoContext is unavailable in builds without cgo.
type OtoContext struct{}

// NewOtoContext always fails in nocgo builds; the factory falls back to the
// mock context.
func NewOtoContext(sampleRate int, platform *PlatformInfo) (*OtoContext, error) {
	return nil, errNoDevice
}

func (c *OtoContext) NewStream(r io.Reader) (Stream, error) { return nil, errNoDevice }
func (c *OtoContext) Close() error                          { return nil }
func (c *OtoContext) IsReady() bool                         { return false }
func (c *OtoContext) SampleRate() int                       { return DefaultSampleRate }
