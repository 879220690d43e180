package stub

import (
	"context"
	"errors"
	"testing"

	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/camera"
)

func TestOpenAndFrame(t *testing.T) {
	t.Parallel()

	c := New(&Config{FrameWidth: 64, FrameHeight: 48})

	stream, err := c.Open(context.Background(), camera.Options{Facing: camera.FacingEnvironment})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	frame, err := stream.Frame(context.Background())
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if frame.Image == nil || frame.At.IsZero() {
		t.Fatal("expected a timestamped frame")
	}
	b := frame.Image.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("expected 64x48 frame, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestOptionsOverrideFrameSize(t *testing.T) {
	t.Parallel()

	c := New(nil)
	stream, err := c.Open(context.Background(), camera.Options{FrameWidth: 32, FrameHeight: 16})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	frame, err := stream.Frame(context.Background())
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if b := frame.Image.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("expected 32x16 frame, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDenyAndAllow(t *testing.T) {
	t.Parallel()

	c := New(&Config{DenyAccess: true})

	if _, err := c.Open(context.Background(), camera.Options{}); !errors.Is(err, camera.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	c.Allow()
	stream, err := c.Open(context.Background(), camera.Options{})
	if err != nil {
		t.Fatalf("Open after Allow failed: %v", err)
	}
	defer stream.Close()

	if c.Opens() != 2 {
		t.Errorf("expected 2 open attempts, got %d", c.Opens())
	}
}

func TestClosedStream(t *testing.T) {
	t.Parallel()

	c := New(nil)
	stream, err := c.Open(context.Background(), camera.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := stream.Frame(context.Background()); !errors.Is(err, camera.ErrStreamClosed) {
		t.Errorf("expected ErrStreamClosed, got %v", err)
	}
	if c.ActiveStreams() != 0 {
		t.Errorf("expected no active streams, got %d", c.ActiveStreams())
	}
}

func TestFailFrames(t *testing.T) {
	t.Parallel()

	c := New(&Config{FailFrames: true, FrameWidth: 8, FrameHeight: 8})
	stream, err := c.Open(context.Background(), camera.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Frame(context.Background()); err == nil {
		t.Error("expected configured frame failure")
	}
}
