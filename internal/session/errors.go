package session

import "errors"

var (
	// ErrWrongMode reports an operation issued outside its input mode.
	ErrWrongMode = errors.New("operation not available in current mode")

	// ErrNoStream reports a capture attempt with no live preview.
	ErrNoStream = errors.New("no active camera stream")

	// ErrTranslationInFlight reports a second translation trigger while
	// one is still processing.
	ErrTranslationInFlight = errors.New("translation already in progress")

	// ErrNoCapture reports a discard or export with nothing captured.
	ErrNoCapture = errors.New("no captured image")

	// ErrNoResult reports a playback start with no translation result.
	ErrNoResult = errors.New("no translation result")
)
