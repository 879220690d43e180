// Package device implements the camera backend on a real capture device
// through OpenCV (gocv). The facing preference maps onto configured V4L2
// device indexes since the kernel exposes no orientation metadata.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/camera"
)

// Camera opens video capture devices by index.
type Camera struct {
	rearDevice  int
	frontDevice int
}

// New creates a device camera with the given rear/front device indexes.
func New(rearDevice, frontDevice int) *Camera {
	return &Camera{rearDevice: rearDevice, frontDevice: frontDevice}
}

// Open acquires the capture device matching the facing preference.
func (c *Camera) Open(ctx context.Context, opts camera.Options) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deviceID := c.rearDevice
	if opts.Facing == camera.FacingUser {
		deviceID = c.frontDevice
	}

	cap, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		// The OS refuses opens for busy or unauthorized devices; both
		// present to the user as a denied permission.
		return nil, fmt.Errorf("opening capture device %d: %w", deviceID, camera.ErrAccessDenied)
	}
	if !cap.IsOpened() {
		_ = cap.Close()
		return nil, fmt.Errorf("capture device %d not opened: %w", deviceID, camera.ErrAccessDenied)
	}

	if opts.FrameWidth > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(opts.FrameWidth))
	}
	if opts.FrameHeight > 0 {
		cap.Set(gocv.VideoCaptureFrameHeight, float64(opts.FrameHeight))
	}

	slog.Info("capture device opened", "device", deviceID, "facing", opts.Facing)

	return &stream{cap: cap, mat: gocv.NewMat(), deviceID: deviceID}, nil
}

type stream struct {
	mu       sync.Mutex
	cap      *gocv.VideoCapture
	mat      gocv.Mat
	deviceID int
	closed   bool
}

// Frame reads and decodes the current frame from the device.
func (s *stream) Frame(ctx context.Context) (camera.Frame, error) {
	if err := ctx.Err(); err != nil {
		return camera.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return camera.Frame{}, camera.ErrStreamClosed
	}
	if ok := s.cap.Read(&s.mat); !ok || s.mat.Empty() {
		return camera.Frame{}, fmt.Errorf("reading frame from device %d failed", s.deviceID)
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return camera.Frame{}, fmt.Errorf("converting frame: %w", err)
	}

	return camera.Frame{Image: img, At: time.Now()}, nil
}

// Close releases the capture device and frame buffer.
func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	slog.Info("capture device released", "device", s.deviceID)

	matErr := s.mat.Close()
	if err := s.cap.Close(); err != nil {
		return fmt.Errorf("closing capture device %d: %w", s.deviceID, err)
	}
	if matErr != nil {
		return fmt.Errorf("closing frame buffer: %w", matErr)
	}
	return nil
}
