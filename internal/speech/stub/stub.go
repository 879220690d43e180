// Package stub implements a deterministic speech synthesizer for
// development and tests. It produces silent WAV audio whose duration tracks
// the text length and speaking rate.
package stub

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/speech"
)

// Config configures the stub synthesizer behavior.
type Config struct {
	// ProcessingDelay simulates TTS processing time.
	ProcessingDelay time.Duration

	// SampleRate for generated audio.
	SampleRate int

	// Fail makes every synthesis fail, for testing the error path.
	Fail bool
}

// DefaultConfig returns sensible defaults for testing.
func DefaultConfig() *Config {
	return &Config{
		ProcessingDelay: 10 * time.Millisecond,
		SampleRate:      22050,
	}
}

// Synthesizer is a test implementation that returns deterministic audio.
type Synthesizer struct {
	config *Config
}

// New creates a new stub synthesizer with the given config.
func New(config *Config) *Synthesizer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Synthesizer{config: config}
}

// Synthesize generates silent audio sized for the text and rate.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts speech.Options) (*speech.Result, error) {
	if text == "" {
		return nil, errors.New("empty text for synthesis")
	}

	// Simulate processing delay
	if s.config.ProcessingDelay > 0 {
		select {
		case <-time.After(s.config.ProcessingDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.config.Fail {
		return nil, errors.New("stub synthesis failure")
	}

	// Estimate duration based on text length (rough: 150 words/min at
	// rate 1.0), stretched by the inverse of the speaking rate.
	wordCount := len(text) / 5 // approximate words
	if wordCount < 1 {
		wordCount = 1
	}
	duration := time.Duration(wordCount) * 400 * time.Millisecond
	if opts.Rate > 0 {
		duration = time.Duration(float64(duration) / opts.Rate)
	}

	sampleCount := int(duration.Seconds() * float64(s.config.SampleRate))
	pcm := make([]byte, sampleCount*2) // 16-bit silence

	return &speech.Result{
		Audio:       wrapWAV(pcm, s.config.SampleRate),
		ContentType: "audio/wav",
		SampleRate:  s.config.SampleRate,
		Channels:    1,
	}, nil
}

// Close is a no-op.
func (s *Synthesizer) Close() error { return nil }

// wrapWAV builds a minimal mono 16-bit WAV container around pcm.
func wrapWAV(pcm []byte, sampleRate int) []byte {
	buf := &bytes.Buffer{}
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
