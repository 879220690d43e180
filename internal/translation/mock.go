package translation

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Placeholder is the fixed translation produced by the mock image path.
const Placeholder = "Hello! How are you? (Sample Sign Language Translation)"

// ErrorPlaceholder replaces the result when the image path fails.
const ErrorPlaceholder = "Translation failed. Please try again."

// MockConfig configures the mock translator behavior.
type MockConfig struct {
	// ProcessingDelay simulates recognition and translation time on the
	// image path.
	ProcessingDelay time.Duration

	// Placeholder overrides the fixed translation string.
	Placeholder string

	// Fail makes every image translation fail, for testing the error
	// path.
	Fail bool
}

// DefaultMockConfig returns the production defaults: a two second
// simulated delay and the built-in sample translation.
func DefaultMockConfig() *MockConfig {
	return &MockConfig{
		ProcessingDelay: 2 * time.Second,
		Placeholder:     Placeholder,
	}
}

// Mock is a Translator that simulates recognition with a fixed delay and a
// constant result.
type Mock struct {
	config *MockConfig
}

// NewMock creates a mock translator with the given config.
func NewMock(config *MockConfig) *Mock {
	if config == nil {
		config = DefaultMockConfig()
	}
	if config.Placeholder == "" {
		config.Placeholder = Placeholder
	}
	return &Mock{config: config}
}

// TranslateImage waits out the simulated processing delay and returns the
// placeholder translation.
func (m *Mock) TranslateImage(ctx context.Context, jpegData []byte) (string, error) {
	if len(jpegData) == 0 {
		return "", errors.New("no image data")
	}

	if m.config.ProcessingDelay > 0 {
		select {
		case <-time.After(m.config.ProcessingDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.config.Fail {
		return "", errors.New("mock translation failure")
	}
	return m.config.Placeholder, nil
}

// TranslateText echoes trimmed typed input as its own translation.
func (m *Mock) TranslateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyInput
	}
	return trimmed, nil
}
