// Package camera defines the interface for live camera capture.
//
// A backend acquires the device when a session enters camera mode and must
// release it on every exit path. The gesturespeak UI only ever holds one
// stream at a time; backends are free to assume single-stream use.
package camera

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrAccessDenied reports that the host refused access to the camera.
// The session surfaces it as a retryable permission failure.
var ErrAccessDenied = errors.New("camera access denied")

// ErrStreamClosed reports a frame read from a released stream.
var ErrStreamClosed = errors.New("camera stream closed")

// Facing is the preferred camera orientation.
type Facing string

const (
	// FacingEnvironment prefers the rear-facing camera.
	FacingEnvironment Facing = "environment"

	// FacingUser prefers the front-facing camera.
	FacingUser Facing = "user"
)

// Options controls stream acquisition.
type Options struct {
	// Facing selects the preferred camera orientation.
	Facing Facing

	// FrameWidth and FrameHeight request a capture resolution.
	// Zero keeps the device's native resolution.
	FrameWidth  int
	FrameHeight int
}

// Frame is a single decoded video frame.
type Frame struct {
	// Image holds the frame pixels.
	Image image.Image

	// At is the host clock time the frame was read.
	At time.Time
}

// Stream is an acquired live camera stream.
type Stream interface {
	// Frame reads the current frame from the stream.
	Frame(ctx context.Context) (Frame, error)

	// Close releases the underlying device. Safe to call more than once.
	Close() error
}

// Camera acquires live streams from a capture device.
type Camera interface {
	// Open requests camera access and starts a live stream.
	// A refusal by the host is reported as ErrAccessDenied.
	Open(ctx context.Context, opts Options) (Stream, error)
}
