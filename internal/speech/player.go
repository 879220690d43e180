package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Player speaks translation results through a Synthesizer and a Sink.
//
// Invariant: at most one utterance is active at a time. Starting a new
// utterance cancels the previous one first, and any failure along the way
// reduces to the not-speaking state rather than propagating fatally.
type Player struct {
	mu       sync.Mutex
	synth    Synthesizer
	sink     Sink
	onChange func(speaking bool)
	current  *utterance
}

type utterance struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPlayer creates a playback manager. synth may be nil when the
// environment has no voice output; Speak is then a no-op. A nil sink
// defaults to SimulatedSink.
func NewPlayer(synth Synthesizer, sink Sink) *Player {
	if sink == nil {
		sink = SimulatedSink{}
	}
	return &Player{synth: synth, sink: sink}
}

// SetStateListener registers a callback invoked whenever the speaking flag
// changes. Must be called before the first Speak.
func (p *Player) SetStateListener(fn func(speaking bool)) {
	p.onChange = fn
}

// Speak synthesizes text with the given options and plays it. Empty text
// or a missing synthesizer is a no-op. Any in-flight utterance is cancelled
// before the new one starts. Synthesis errors are returned; playback errors
// only reset the speaking state.
//
// The returned Result carries the synthesized audio so callers can hand it
// to clients that play audio themselves. Playback continues in the
// background after Speak returns.
func (p *Player) Speak(ctx context.Context, text string, opts Options) (*Result, error) {
	if text == "" || p.synth == nil {
		return nil, nil
	}

	// Detach from the caller's cancellation: playback outlives the
	// request that started it. Stop and replacement cancel uctx.
	uctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	u := &utterance{cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	prev := p.current
	p.current = u
	p.mu.Unlock()

	// Cancel any in-flight utterance and wait until its playback has
	// fully wound down, so two utterances never reach the sink at once.
	if prev != nil {
		prev.cancel()
		<-prev.done
	}
	p.notify(true)

	res, err := p.synth.Synthesize(uctx, text, opts)
	if err != nil {
		p.finish(u)
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}

	go func() {
		defer p.finish(u)
		if err := p.sink.Play(uctx, res); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("speech playback failed", "error", err)
		}
	}()

	return res, nil
}

// Stop cancels any in-flight utterance immediately. Safe to call when
// nothing is speaking.
func (p *Player) Stop() {
	p.mu.Lock()
	u := p.current
	p.current = nil
	p.mu.Unlock()

	if u != nil {
		u.cancel()
		<-u.done
		p.notify(false)
	}
}

// Speaking reports whether an utterance is currently active.
func (p *Player) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Close stops playback and releases the synthesizer.
func (p *Player) Close() error {
	p.Stop()
	if p.synth == nil {
		return nil
	}
	return p.synth.Close()
}

// finish clears the speaking state if u is still the active utterance.
// A later Speak or Stop may already have replaced it. Runs exactly once
// per utterance: either on the synthesis error path or when the playback
// goroutine exits.
func (p *Player) finish(u *utterance) {
	u.cancel()
	defer close(u.done)

	p.mu.Lock()
	still := p.current == u
	if still {
		p.current = nil
	}
	p.mu.Unlock()

	if still {
		p.notify(false)
	}
}

func (p *Player) notify(speaking bool) {
	if p.onChange != nil {
		p.onChange(speaking)
	}
}
