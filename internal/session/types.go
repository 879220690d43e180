// Package session implements the capture-and-playback state machine behind
// the gesturespeak UI.
//
// All state is transient and in-memory, scoped to one UI session: the
// active input mode, the camera permission and stream, the captured image,
// the translation result, and the voice settings. The Controller serializes
// every mutation, standing in for the single event-loop thread the browser
// page runs on.
package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/snapshot"
)

// Mode is the selected input method. Camera and text are mutually
// exclusive.
type Mode string

const (
	// ModeCamera captures sign language frames from a live camera.
	ModeCamera Mode = "camera"

	// ModeText accepts typed input.
	ModeText Mode = "text"
)

// Permission is the camera permission state.
type Permission string

const (
	PermissionUnrequested Permission = "unrequested"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
)

// Source tells which input path produced a translation result.
type Source string

const (
	SourceImage Source = "image"
	SourceText  Source = "text"
)

// Capture is a still image taken from the live preview.
type Capture struct {
	ID   string
	JPEG []byte
	At   time.Time
}

// Filename returns the capture's timestamped download filename.
func (c *Capture) Filename() string {
	return snapshot.Filename(c.At)
}

// Result is one completed translation.
type Result struct {
	Text   string    `json:"text"`
	Source Source    `json:"source"`
	At     time.Time `json:"at"`
}

// SupportedLanguages is the fixed set of voice languages the UI offers.
var SupportedLanguages = []string{"en", "es", "fr", "de", "it"}

// Settings are the voice parameters for speech playback. They persist
// across translations within a session and take effect on the next
// playback start.
type Settings struct {
	Language string  `json:"language"`
	Pitch    float64 `json:"pitch"`
	Rate     float64 `json:"rate"`
	Volume   float64 `json:"volume"`
}

// DefaultSettings returns the initial voice settings.
func DefaultSettings() Settings {
	return Settings{
		Language: "en",
		Pitch:    1.0,
		Rate:     0.75,
		Volume:   1.0,
	}
}

// Validate rejects settings outside the supported ranges.
func (s Settings) Validate() error {
	if !slices.Contains(SupportedLanguages, s.Language) {
		return fmt.Errorf("unsupported language %q", s.Language)
	}
	if s.Pitch < 0.5 || s.Pitch > 2.0 {
		return fmt.Errorf("pitch must be within [0.5, 2.0], got %g", s.Pitch)
	}
	if s.Rate < 0.5 || s.Rate > 1.5 {
		return fmt.Errorf("rate must be within [0.5, 1.5], got %g", s.Rate)
	}
	if s.Volume < 0 || s.Volume > 1 {
		return fmt.Errorf("volume must be within [0, 1], got %g", s.Volume)
	}
	return nil
}

// CaptureInfo is the capture metadata exposed in state snapshots; the
// image bytes travel separately through the export endpoints.
type CaptureInfo struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	At       time.Time `json:"at"`
	Bytes    int       `json:"bytes"`
}

// State is a point-in-time snapshot of the whole session, as published to
// UI clients.
type State struct {
	Mode       Mode         `json:"mode"`
	Permission Permission   `json:"permission"`
	Streaming  bool         `json:"streaming"`
	Capture    *CaptureInfo `json:"capture,omitempty"`
	Processing bool         `json:"processing"`
	TextInput  string       `json:"text_input,omitempty"`
	Result     *Result      `json:"result,omitempty"`
	Speaking   bool         `json:"speaking"`
	Settings   Settings     `json:"settings"`
}
