// Package speech defines the interface for text-to-speech synthesis and
// the playback manager that speaks translation results.
//
// Synthesis and playback are split: a Synthesizer turns text into WAV
// audio, a Sink gets the audio heard. The Player coordinates both and
// enforces the single-utterance invariant.
package speech

import (
	"context"
	"time"
)

// Options controls synthesis of one utterance.
type Options struct {
	// Language is the ISO-639-1 code (e.g., "en", "fr", "es") to select
	// the voice.
	Language string

	// Voice overrides automatic language-based voice selection.
	Voice string

	// Rate scales speaking speed. 1.0 is the voice's natural rate.
	Rate float64

	// Pitch scales the voice pitch. 1.0 is unchanged.
	Pitch float64

	// Volume scales loudness in [0, 1].
	Volume float64
}

// Result holds the output of TTS synthesis.
type Result struct {
	// Audio is the synthesized audio as a WAV file.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/wav").
	ContentType string

	// SampleRate is the audio sample rate in Hz (e.g., 22050).
	SampleRate int

	// Channels is the number of audio channels (typically 1).
	Channels int
}

// wavHeaderSize is the fixed RIFF/fmt/data header length produced by the
// backends in this module.
const wavHeaderSize = 44

// Duration returns the playing time of the synthesized audio, assuming
// 16-bit samples. Zero when the result is malformed.
func (r *Result) Duration() time.Duration {
	if r == nil || r.SampleRate <= 0 || r.Channels <= 0 || len(r.Audio) <= wavHeaderSize {
		return 0
	}
	byteRate := r.SampleRate * r.Channels * 2
	dataLen := len(r.Audio) - wavHeaderSize
	return time.Duration(dataLen) * time.Second / time.Duration(byteRate)
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize generates audio from the given text with the given
	// voice options.
	Synthesize(ctx context.Context, text string, opts Options) (*Result, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// Sink plays synthesized audio. Play blocks until the audio has finished
// or ctx is cancelled.
type Sink interface {
	Play(ctx context.Context, res *Result) error
}

// SimulatedSink holds an utterance "speaking" for the audio's real
// duration without producing sound. It backs deployments where the browser
// client plays the audio itself.
type SimulatedSink struct{}

// Play waits out the audio duration or the context, whichever ends first.
func (SimulatedSink) Play(ctx context.Context, res *Result) error {
	d := res.Duration()
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
