package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSynth struct {
	mu      sync.Mutex
	calls   []Options
	err     error
	audioMs int
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, opts Options) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	n := 22050 * 2 * f.audioMs / 1000
	return &Result{
		Audio:       make([]byte, 44+n),
		ContentType: "audio/wav",
		SampleRate:  22050,
		Channels:    1,
	}, nil
}

func (f *fakeSynth) Close() error { return nil }

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// trackSink records playback concurrency. With block set, Play holds until
// its context is cancelled.
type trackSink struct {
	mu        sync.Mutex
	active    int
	maxActive int
	plays     int
	block     bool
	err       error
}

func (s *trackSink) Play(ctx context.Context, res *Result) error {
	s.mu.Lock()
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.plays++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	if s.err != nil {
		return s.err
	}
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (s *trackSink) stats() (maxActive, plays int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxActive, s.plays
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestPlayer_SpeakAndComplete(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{audioMs: 1}
	sink := &trackSink{}
	p := NewPlayer(synth, sink)

	var mu sync.Mutex
	var transitions []bool
	p.SetStateListener(func(speaking bool) {
		mu.Lock()
		transitions = append(transitions, speaking)
		mu.Unlock()
	})

	res, err := p.Speak(context.Background(), "hello", Options{Language: "en", Rate: 0.75, Pitch: 1, Volume: 1})
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if res == nil || len(res.Audio) == 0 {
		t.Fatal("expected synthesized audio")
	}

	waitFor(t, time.Second, func() bool { return !p.Speaking() })

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) < 2 || !transitions[0] || transitions[len(transitions)-1] {
		t.Errorf("expected speaking transitions true→false, got %v", transitions)
	}
}

func TestPlayer_SingleUtterance(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{audioMs: 1}
	sink := &trackSink{block: true}
	p := NewPlayer(synth, sink)

	// Sweep the settings ranges; no combination may ever stack a second
	// concurrent utterance.
	for _, lang := range []string{"en", "es", "fr", "de", "it"} {
		for _, pitch := range []float64{0.5, 1.0, 2.0} {
			for _, rate := range []float64{0.5, 0.75, 1.5} {
				opts := Options{Language: lang, Pitch: pitch, Rate: rate, Volume: 1}
				if _, err := p.Speak(context.Background(), "hello", opts); err != nil {
					t.Fatalf("Speak(%v) failed: %v", opts, err)
				}
			}
		}
	}

	if !p.Speaking() {
		t.Error("expected an utterance to be active")
	}

	maxActive, _ := sink.stats()
	if maxActive > 1 {
		t.Errorf("expected at most one concurrent utterance, saw %d", maxActive)
	}

	p.Stop()
	waitFor(t, time.Second, func() bool { return !p.Speaking() })
}

func TestPlayer_EmptyTextIsNoop(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{}
	p := NewPlayer(synth, &trackSink{})

	res, err := p.Speak(context.Background(), "", Options{Language: "en"})
	if err != nil || res != nil {
		t.Errorf("expected no-op, got res=%v err=%v", res, err)
	}
	if synth.callCount() != 0 {
		t.Error("synthesizer must not be called for empty text")
	}
	if p.Speaking() {
		t.Error("no utterance should be active")
	}
}

func TestPlayer_NoSynthesizerIsNoop(t *testing.T) {
	t.Parallel()

	p := NewPlayer(nil, nil)

	res, err := p.Speak(context.Background(), "hello", Options{Language: "en"})
	if err != nil || res != nil {
		t.Errorf("expected no-op, got res=%v err=%v", res, err)
	}
	if p.Speaking() {
		t.Error("no utterance should be active")
	}
}

func TestPlayer_StopWithoutUtterance(t *testing.T) {
	t.Parallel()

	p := NewPlayer(&fakeSynth{}, &trackSink{})
	p.Stop() // must not panic or flip state
	if p.Speaking() {
		t.Error("no utterance should be active")
	}
}

func TestPlayer_SynthesisErrorResetsState(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{err: errors.New("voice output unavailable")}
	p := NewPlayer(synth, &trackSink{})

	if _, err := p.Speak(context.Background(), "hello", Options{Language: "en"}); err == nil {
		t.Fatal("expected synthesis error")
	}
	if p.Speaking() {
		t.Error("failed synthesis must leave the player not speaking")
	}
}

func TestPlayer_PlaybackErrorResetsState(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{audioMs: 1}
	sink := &trackSink{err: errors.New("audio device gone")}
	p := NewPlayer(synth, sink)

	if _, err := p.Speak(context.Background(), "hello", Options{Language: "en"}); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	waitFor(t, time.Second, func() bool { return !p.Speaking() })
}

func TestResult_Duration(t *testing.T) {
	t.Parallel()

	res := &Result{
		Audio:      make([]byte, 44+22050*2), // one second of mono 16-bit
		SampleRate: 22050,
		Channels:   1,
	}
	if d := res.Duration(); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}

	var nilRes *Result
	if d := nilRes.Duration(); d != 0 {
		t.Errorf("expected 0 for nil result, got %v", d)
	}
	if d := (&Result{Audio: []byte("short")}).Duration(); d != 0 {
		t.Errorf("expected 0 for malformed result, got %v", d)
	}
}
