// Package stub implements a deterministic camera backend for development
// and tests. It produces synthetic frames without touching hardware and can
// be configured to refuse access or fail frame reads.
package stub

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/camera"
)

// Config configures the stub camera behavior.
type Config struct {
	// DenyAccess makes every Open fail with camera.ErrAccessDenied.
	DenyAccess bool

	// FailFrames makes every Frame read fail.
	FailFrames bool

	// FrameWidth and FrameHeight size the synthetic frames.
	FrameWidth  int
	FrameHeight int
}

// DefaultConfig returns sensible defaults for testing.
func DefaultConfig() *Config {
	return &Config{
		FrameWidth:  640,
		FrameHeight: 480,
	}
}

// Camera is a test implementation producing synthetic frames.
type Camera struct {
	mu      sync.Mutex
	config  *Config
	opens   int
	streams []*Stream
}

// New creates a new stub camera with the given config.
func New(config *Config) *Camera {
	if config == nil {
		config = DefaultConfig()
	}
	return &Camera{config: config}
}

// Open starts a synthetic stream, or refuses when configured to.
func (c *Camera) Open(ctx context.Context, opts camera.Options) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.opens++
	if c.config.DenyAccess {
		return nil, camera.ErrAccessDenied
	}

	w, h := c.config.FrameWidth, c.config.FrameHeight
	if opts.FrameWidth > 0 {
		w = opts.FrameWidth
	}
	if opts.FrameHeight > 0 {
		h = opts.FrameHeight
	}

	s := &Stream{width: w, height: h, failFrames: c.config.FailFrames}
	c.streams = append(c.streams, s)
	return s, nil
}

// Allow flips the stub back to granting access, emulating a user who
// changes their mind after a denial.
func (c *Camera) Allow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.DenyAccess = false
}

// Opens returns how many times Open was called, counting refusals.
func (c *Camera) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

// ActiveStreams returns how many opened streams have not been closed.
func (c *Camera) ActiveStreams() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := 0
	for _, s := range c.streams {
		if !s.isClosed() {
			active++
		}
	}
	return active
}

// Stream produces synthetic gradient frames.
type Stream struct {
	mu         sync.Mutex
	width      int
	height     int
	frames     int
	failFrames bool
	closed     bool
}

// Frame returns the next synthetic frame.
func (s *Stream) Frame(ctx context.Context) (camera.Frame, error) {
	if err := ctx.Err(); err != nil {
		return camera.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return camera.Frame{}, camera.ErrStreamClosed
	}
	if s.failFrames {
		return camera.Frame{}, errors.New("stub frame read failed")
	}

	s.frames++
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	// A shifting gradient so consecutive frames differ.
	shift := uint8(s.frames % 256)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x) + shift,
				G: uint8(y),
				B: shift,
				A: 255,
			})
		}
	}

	return camera.Frame{Image: img, At: time.Now()}, nil
}

// Close marks the stream released.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
