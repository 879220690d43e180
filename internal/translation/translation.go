// Package translation defines the interface for the sign-language
// translation step.
//
// The shipped implementation is a mock: no recognition model runs behind
// it. The interface exists so a real recognizer can slot in later without
// touching the session state machine.
package translation

import (
	"context"
	"errors"
)

// ErrEmptyInput reports text input that is empty after trimming.
var ErrEmptyInput = errors.New("empty translation input")

// Translator produces translation text from captured images or typed input.
type Translator interface {
	// TranslateImage translates a captured sign-language image. It may
	// take noticeable time; implementations honour ctx cancellation.
	TranslateImage(ctx context.Context, jpegData []byte) (string, error)

	// TranslateText passes typed input through the translation step.
	// Whitespace-only input is rejected with ErrEmptyInput.
	TranslateText(text string) (string, error)
}
