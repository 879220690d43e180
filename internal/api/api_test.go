package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	camerastub "github.com/Shivein-Kumar/gesturespeak-fusion/internal/camera/stub"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/session"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/speech"
	speechstub "github.com/Shivein-Kumar/gesturespeak-fusion/internal/speech/stub"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/translation"
)

type testEnv struct {
	server *httptest.Server
	cam    *camerastub.Camera
	ctrl   *session.Controller
}

func newTestEnv(t *testing.T, camConfig *camerastub.Config) *testEnv {
	t.Helper()

	cam := camerastub.New(camConfig)
	translator := translation.NewMock(&translation.MockConfig{ProcessingDelay: 5 * time.Millisecond})
	synth := speechstub.New(nil)
	player := speech.NewPlayer(synth, speech.SimulatedSink{})
	ctrl := session.New(session.Config{JPEGQuality: 90}, cam, translator, player, nil)

	srv := New(0, ctrl, nil, t.TempDir())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = ctrl.Close()
	})

	return &testEnv{server: ts, cam: cam, ctrl: ctrl}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request: %v", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, e.server.URL+path, rd)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	return resp, data
}

func (e *testEnv) state(t *testing.T) session.State {
	t.Helper()
	resp, data := e.do(t, http.MethodGet, "/api/state", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/state returned %d: %s", resp.StatusCode, data)
	}
	var st session.State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	return st
}

func TestState_InitialSnapshot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	st := env.state(t)

	if st.Mode != session.ModeCamera {
		t.Errorf("expected initial camera mode, got %q", st.Mode)
	}
	if st.Permission != session.PermissionUnrequested {
		t.Errorf("expected unrequested permission, got %q", st.Permission)
	}
	if st.Settings != session.DefaultSettings() {
		t.Errorf("expected default settings, got %+v", st.Settings)
	}
}

func TestSetMode(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp, data := env.do(t, http.MethodPost, "/api/mode", map[string]string{"mode": "text"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	if st := env.state(t); st.Mode != session.ModeText {
		t.Errorf("expected text mode, got %q", st.Mode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/mode", map[string]string{"mode": "voice"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown mode, got %d", resp.StatusCode)
	}
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/mode", map[string]string{"mode": "text"})

	resp, data := env.do(t, http.MethodPost, "/api/translate", map[string]string{"text": "  good morning  "})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}

	var st session.State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if st.Result == nil || st.Result.Text != "good morning" {
		t.Errorf("expected trimmed result, got %+v", st.Result)
	}
}

func TestTranslate_EmptyInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/mode", map[string]string{"mode": "text"})

	resp, _ := env.do(t, http.MethodPost, "/api/translate", map[string]string{"text": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for whitespace-only input, got %d", resp.StatusCode)
	}
}

func TestTranslate_WrongMode(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodPost, "/api/translate", map[string]string{"text": "hello"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 in camera mode, got %d", resp.StatusCode)
	}
}

func TestCaptureFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodPost, "/api/capture", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 without a live preview, got %d", resp.StatusCode)
	}

	resp, data := env.do(t, http.MethodPost, "/api/camera/enable", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enable camera returned %d: %s", resp.StatusCode, data)
	}

	resp, data = env.do(t, http.MethodPost, "/api/capture", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("capture returned %d: %s", resp.StatusCode, data)
	}
	var st session.State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if st.Capture == nil || !st.Processing {
		t.Fatalf("expected held capture with processing set, got %+v", st)
	}
	if !strings.HasPrefix(st.Capture.Filename, "sign_language_capture_") {
		t.Errorf("unexpected capture filename %q", st.Capture.Filename)
	}

	deadline := time.Now().Add(time.Second)
	for env.state(t).Result == nil {
		if time.Now().After(deadline) {
			t.Fatal("translation never landed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := env.state(t).Result.Text; got != translation.Placeholder {
		t.Errorf("expected placeholder, got %q", got)
	}

	resp, _ = env.do(t, http.MethodDelete, "/api/capture", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("discard returned %d", resp.StatusCode)
	}
	if st := env.state(t); st.Capture != nil || !st.Streaming {
		t.Errorf("expected preview back after discard, got %+v", st)
	}
}

func TestCamera_Denied(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &camerastub.Config{DenyAccess: true, FrameWidth: 32, FrameHeight: 24})

	resp, _ := env.do(t, http.MethodPost, "/api/camera/enable", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for a denied camera, got %d", resp.StatusCode)
	}
	if st := env.state(t); st.Permission != session.PermissionDenied {
		t.Errorf("expected denied permission in state, got %q", st.Permission)
	}

	// Retry after the user changes their mind.
	env.cam.Allow()
	resp, _ = env.do(t, http.MethodPost, "/api/camera/enable", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on retry, got %d", resp.StatusCode)
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/api/capture/export", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 without a capture, got %d", resp.StatusCode)
	}

	env.do(t, http.MethodPost, "/api/camera/enable", nil)
	env.do(t, http.MethodPost, "/api/capture", nil)

	resp, data := env.do(t, http.MethodGet, "/api/capture/export", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download returned %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}
	cd := resp.Header.Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, "sign_language_capture_") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Error("downloaded body is not a JPEG")
	}
}

func TestSpeech(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodPost, "/api/speech", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 without a result, got %d", resp.StatusCode)
	}

	env.do(t, http.MethodPost, "/api/mode", map[string]string{"mode": "text"})
	env.do(t, http.MethodPost, "/api/translate", map[string]string{"text": "hello"})

	resp, data := env.do(t, http.MethodPost, "/api/speech", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("speech returned %d: %s", resp.StatusCode, data)
	}
	var sr struct {
		Speaking    bool   `json:"speaking"`
		Audio       string `json:"audio"`
		ContentType string `json:"content_type"`
	}
	if err := json.Unmarshal(data, &sr); err != nil {
		t.Fatalf("decoding speech response: %v", err)
	}
	if !sr.Speaking || sr.Audio == "" || sr.ContentType != "audio/wav" {
		t.Errorf("expected playable audio in response, got %+v", sr)
	}

	resp, _ = env.do(t, http.MethodDelete, "/api/speech", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop returned %d", resp.StatusCode)
	}
	if st := env.state(t); st.Speaking {
		t.Error("expected playback stopped")
	}
}

func TestSettings(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	good := session.Settings{Language: "fr", Pitch: 1.2, Rate: 1.0, Volume: 0.5}
	resp, data := env.do(t, http.MethodPut, "/api/settings", good)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	if st := env.state(t); st.Settings != good {
		t.Errorf("settings not applied: %+v", st.Settings)
	}

	bad := session.Settings{Language: "en", Pitch: 9, Rate: 1, Volume: 1}
	resp, _ = env.do(t, http.MethodPut, "/api/settings", bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range pitch, got %d", resp.StatusCode)
	}
	if st := env.state(t); st.Settings != good {
		t.Errorf("rejected settings must not apply: %+v", st.Settings)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/mode", map[string]string{"mode": "text"})
	env.do(t, http.MethodPost, "/api/translate", map[string]string{"text": "hello"})

	resp, _ := env.do(t, http.MethodPost, "/api/reset", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset returned %d", resp.StatusCode)
	}

	st := env.state(t)
	if st.Result != nil || st.TextInput != "" {
		t.Errorf("expected cleared session, got %+v", st)
	}
	if st.Mode != session.ModeText {
		t.Errorf("reset must not change the mode, got %q", st.Mode)
	}
}

func TestErrorBodyShape(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp, data := env.do(t, http.MethodPost, "/api/capture", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	var er struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &er); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if er.Error == "" {
		t.Error("expected a populated error message")
	}
}
