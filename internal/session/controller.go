package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/camera"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/events"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/snapshot"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/speech"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/translation"
)

// Speaker is the playback surface the controller drives. *speech.Player
// implements it.
type Speaker interface {
	Speak(ctx context.Context, text string, opts speech.Options) (*speech.Result, error)
	Stop()
	Speaking() bool
	Close() error
}

// Config tunes a Controller.
type Config struct {
	// Facing is the preferred camera orientation.
	Facing camera.Facing

	// FrameWidth and FrameHeight request a capture resolution; zero
	// keeps the device native size.
	FrameWidth  int
	FrameHeight int

	// JPEGQuality is the snapshot encoding quality (1-100).
	JPEGQuality int

	// Settings are the initial voice settings. Invalid or zero settings
	// fall back to the defaults.
	Settings Settings
}

// Controller owns the session state machine. Every mutation runs under one
// lock; host-facility calls (camera open, frame read, synthesis) happen
// outside it and re-validate the state on completion, since the session may
// have moved on while the call was pending.
type Controller struct {
	camera     camera.Camera
	translator translation.Translator
	speaker    Speaker
	pub        events.Publisher

	facing      camera.Facing
	frameWidth  int
	frameHeight int
	jpegQuality int

	mu         sync.Mutex
	mode       Mode
	permission Permission
	stream     camera.Stream
	capture    *Capture
	processing bool
	textInput  string
	result     *Result
	settings   Settings

	// gen invalidates in-flight async completions. Reset and mode
	// switches bump it; completions carrying an older value are dropped.
	gen uint64
}

// New creates a session controller. pub may be nil to discard events.
func New(cfg Config, cam camera.Camera, translator translation.Translator, speaker Speaker, pub events.Publisher) *Controller {
	if pub == nil {
		pub = events.Discard{}
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}
	if cfg.Facing == "" {
		cfg.Facing = camera.FacingEnvironment
	}
	if cfg.Settings.Validate() != nil {
		cfg.Settings = DefaultSettings()
	}

	c := &Controller{
		camera:      cam,
		translator:  translator,
		speaker:     speaker,
		pub:         pub,
		facing:      cfg.Facing,
		frameWidth:  cfg.FrameWidth,
		frameHeight: cfg.FrameHeight,
		jpegQuality: cfg.JPEGQuality,
		mode:        ModeCamera,
		permission:  PermissionUnrequested,
		settings:    cfg.Settings,
	}

	// Playback completes on its own schedule; mirror the speaking flag
	// into the event feed as it flips.
	if l, ok := speaker.(interface{ SetStateListener(func(bool)) }); ok {
		l.SetStateListener(func(bool) { c.publish(events.ReasonSpeech) })
	}

	return c
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	st := State{
		Mode:       c.mode,
		Permission: c.permission,
		Streaming:  c.stream != nil && c.capture == nil,
		Processing: c.processing,
		TextInput:  c.textInput,
		Settings:   c.settings,
	}
	if c.speaker != nil {
		st.Speaking = c.speaker.Speaking()
	}
	if c.capture != nil {
		st.Capture = &CaptureInfo{
			ID:       c.capture.ID,
			Filename: c.capture.Filename(),
			At:       c.capture.At,
			Bytes:    len(c.capture.JPEG),
		}
	}
	if c.result != nil {
		r := *c.result
		st.Result = &r
	}
	return st
}

// SetMode switches the input mode. Switching away from camera mode
// releases the stream; any in-flight speech is cancelled and the captured
// image cleared. Re-selecting the current mode is a no-op.
func (c *Controller) SetMode(mode Mode) error {
	if mode != ModeCamera && mode != ModeText {
		return fmt.Errorf("unknown mode %q", mode)
	}

	c.mu.Lock()
	if c.mode == mode {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	c.mode = mode
	stream := c.stream
	c.stream = nil
	c.capture = nil
	c.processing = false
	c.mu.Unlock()

	releaseStream(stream)
	if c.speaker != nil {
		c.speaker.Stop()
	}

	slog.Info("mode switched", "mode", mode)
	c.publish(events.ReasonModeChanged)
	return nil
}

// EnableCamera requests camera access and starts the live preview. In the
// denied state it doubles as the retry action: every call re-issues the
// permission request. A no-op when the preview is already live.
func (c *Controller) EnableCamera(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != ModeCamera {
		c.mu.Unlock()
		return ErrWrongMode
	}
	if c.stream != nil {
		c.mu.Unlock()
		return nil
	}
	opts := camera.Options{
		Facing:      c.facing,
		FrameWidth:  c.frameWidth,
		FrameHeight: c.frameHeight,
	}
	c.mu.Unlock()

	stream, err := c.camera.Open(ctx, opts)

	c.mu.Lock()
	if err != nil {
		c.permission = PermissionDenied
		c.mu.Unlock()
		slog.Warn("camera access denied", "error", err)
		c.publish(events.ReasonPermission)
		return fmt.Errorf("enabling camera: %w", err)
	}
	if c.mode != ModeCamera || c.stream != nil {
		// The mode flipped while the open was pending; the session no
		// longer wants this stream.
		c.mu.Unlock()
		releaseStream(stream)
		return nil
	}
	c.permission = PermissionGranted
	c.stream = stream
	c.mu.Unlock()

	slog.Info("camera stream acquired", "facing", opts.Facing)
	c.publish(events.ReasonPermission)
	return nil
}

// Capture grabs the current preview frame, stores it as the captured
// image, and starts the image translation step. Fails non-fatally when no
// preview is live or a translation is already processing.
func (c *Controller) Capture(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != ModeCamera {
		c.mu.Unlock()
		return ErrWrongMode
	}
	if c.stream == nil {
		c.mu.Unlock()
		return ErrNoStream
	}
	if c.processing {
		c.mu.Unlock()
		return ErrTranslationInFlight
	}
	stream := c.stream
	quality := c.jpegQuality
	c.mu.Unlock()

	frame, err := stream.Frame(ctx)
	if err != nil {
		return fmt.Errorf("capturing frame: %w", err)
	}
	data, err := snapshot.Encode(frame.Image, quality)
	if err != nil {
		return fmt.Errorf("encoding capture: %w", err)
	}
	shot := &Capture{ID: uuid.NewString(), JPEG: data, At: frame.At}

	c.mu.Lock()
	if c.mode != ModeCamera || c.stream != stream {
		// The stream was torn down while the frame was in flight.
		c.mu.Unlock()
		return ErrNoStream
	}
	if c.processing {
		// A concurrent capture won the race while the frame was being
		// encoded; only one translation may run.
		c.mu.Unlock()
		return ErrTranslationInFlight
	}
	c.capture = shot
	c.processing = true
	gen := c.gen
	c.mu.Unlock()

	slog.Info("frame captured", "capture_id", shot.ID, "bytes", len(data))
	c.publish(events.ReasonCapture)

	// The simulated recognition delay is not cancellable; staleness is
	// handled by the generation check when it completes.
	go c.runImageTranslation(gen, shot)
	return nil
}

// runImageTranslation waits out the mock translation and applies the
// outcome unless the session moved on in the meantime.
func (c *Controller) runImageTranslation(gen uint64, shot *Capture) {
	text, err := c.translator.TranslateImage(context.Background(), shot.JPEG)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		slog.Debug("dropping stale translation result", "capture_id", shot.ID)
		return
	}
	c.processing = false
	if err != nil {
		slog.Warn("image translation failed", "capture_id", shot.ID, "error", err)
		c.result = &Result{Text: translation.ErrorPlaceholder, Source: SourceImage, At: time.Now()}
	} else {
		c.result = &Result{Text: text, Source: SourceImage, At: time.Now()}
	}
	c.mu.Unlock()

	c.publish(events.ReasonTranslation)
}

// Discard clears the captured image; the live preview resumes if the
// stream is still held. Not allowed while the capture is being translated.
func (c *Controller) Discard() error {
	c.mu.Lock()
	if c.capture == nil {
		c.mu.Unlock()
		return ErrNoCapture
	}
	if c.processing {
		c.mu.Unlock()
		return ErrTranslationInFlight
	}
	c.capture = nil
	c.mu.Unlock()

	c.publish(events.ReasonCaptureDiscard)
	return nil
}

// CaptureData returns the captured image for download.
func (c *Controller) CaptureData() (*Capture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture == nil {
		return nil, ErrNoCapture
	}
	cp := *c.capture
	return &cp, nil
}

// ExportTo writes the captured image into dir under its timestamped
// filename and returns the written path.
func (c *Controller) ExportTo(dir string) (string, error) {
	shot, err := c.CaptureData()
	if err != nil {
		return "", err
	}
	path, err := snapshot.Export(dir, shot.At, shot.JPEG)
	if err != nil {
		return "", err
	}
	slog.Info("capture exported", "path", path)
	return path, nil
}

// TranslateText runs the text input path: trimmed input becomes the
// result verbatim, synchronously. Whitespace-only input changes nothing
// and reports translation.ErrEmptyInput.
func (c *Controller) TranslateText(text string) error {
	c.mu.Lock()
	if c.mode != ModeText {
		c.mu.Unlock()
		return ErrWrongMode
	}
	c.mu.Unlock()

	out, err := c.translator.TranslateText(text)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.mode != ModeText {
		c.mu.Unlock()
		return ErrWrongMode
	}
	c.textInput = text
	c.result = &Result{Text: out, Source: SourceText, At: time.Now()}
	c.mu.Unlock()

	c.publish(events.ReasonTranslation)
	return nil
}

// Speak starts speech playback of the current translation result with the
// current settings. The returned audio lets API clients play it
// themselves; playback state is tracked by the speaker.
func (c *Controller) Speak(ctx context.Context) (*speech.Result, error) {
	c.mu.Lock()
	result := c.result
	settings := c.settings
	c.mu.Unlock()

	if result == nil || result.Text == "" {
		return nil, ErrNoResult
	}
	if c.speaker == nil {
		return nil, nil
	}

	audio, err := c.speaker.Speak(ctx, result.Text, speech.Options{
		Language: settings.Language,
		Rate:     settings.Rate,
		Pitch:    settings.Pitch,
		Volume:   settings.Volume,
	})
	if err != nil {
		return nil, fmt.Errorf("starting playback: %w", err)
	}
	return audio, nil
}

// StopSpeaking cancels any in-flight utterance.
func (c *Controller) StopSpeaking() {
	if c.speaker != nil {
		c.speaker.Stop()
	}
}

// UpdateSettings replaces the voice settings. They apply from the next
// playback start; an in-flight utterance keeps its parameters.
func (c *Controller) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()

	c.publish(events.ReasonSettingsChanged)
	return nil
}

// Settings returns the current voice settings.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Reset clears the translation result, the typed-text buffer, and the
// captured image together, and stops playback. The camera stream and
// permission state survive so the preview resumes directly.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.gen++
	c.capture = nil
	c.result = nil
	c.textInput = ""
	c.processing = false
	c.mu.Unlock()

	if c.speaker != nil {
		c.speaker.Stop()
	}
	c.publish(events.ReasonReset)
}

// Close tears the session down: the stream is released and playback
// stopped regardless of state.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.gen++
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	releaseStream(stream)
	if c.speaker != nil {
		return c.speaker.Close()
	}
	return nil
}

func (c *Controller) publish(reason events.Reason) {
	c.pub.Publish(events.New(reason, c.State()))
}

func releaseStream(s camera.Stream) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		slog.Warn("releasing camera stream", "error", err)
	}
}
