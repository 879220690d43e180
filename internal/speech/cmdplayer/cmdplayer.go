// Package cmdplayer implements the speech Sink by piping WAV audio into a
// local player binary (aplay, ffplay, paplay — anything that reads a WAV
// stream from stdin).
package cmdplayer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/speech"
)

// Sink plays audio by running a configured command per utterance.
type Sink struct {
	command []string
}

// New creates a command sink. command holds the binary and its fixed
// arguments, e.g. ["aplay", "-q"].
func New(command []string) (*Sink, error) {
	if len(command) == 0 {
		return nil, errors.New("empty player command")
	}
	return &Sink{command: command}, nil
}

// Play feeds the WAV bytes to the player process and waits for it to exit.
// Cancelling ctx kills the process, cutting playback immediately.
func (s *Sink) Play(ctx context.Context, res *speech.Result) error {
	cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...)
	cmd.Stdin = bytes.NewReader(res.Audio)

	slog.Debug("playing utterance", "command", s.command[0], "audio_bytes", len(res.Audio))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running %s: %w", s.command[0], err)
	}
	return nil
}
