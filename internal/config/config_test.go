package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gesturespeak.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.APIPort != 8080 {
		t.Errorf("expected default api port 8080, got %d", cfg.Server.APIPort)
	}
	if cfg.Camera.Backend != "device" || cfg.Camera.Facing != "environment" {
		t.Errorf("unexpected camera defaults: %+v", cfg.Camera)
	}
	if cfg.Capture.JPEGQuality != 90 {
		t.Errorf("expected default jpeg quality 90, got %d", cfg.Capture.JPEGQuality)
	}
	if cfg.Translation.DelayMs != 2000 {
		t.Errorf("expected default delay 2000ms, got %d", cfg.Translation.DelayMs)
	}
	if cfg.Speech.Backend != "piper" || cfg.Speech.Player != "simulate" {
		t.Errorf("unexpected speech defaults: %+v", cfg.Speech)
	}
	if d := cfg.Speech.Defaults; d.Language != "en" || d.Pitch != 1.0 || d.Rate != 0.75 || d.Volume != 1.0 {
		t.Errorf("unexpected voice defaults: %+v", d)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  api_port: 9090
camera:
  backend: stub
  stub_deny: true
translation:
  delay_ms: 50
speech:
  backend: stub
  defaults:
    rate: 1.25
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.APIPort != 9090 {
		t.Errorf("expected api port 9090, got %d", cfg.Server.APIPort)
	}
	if cfg.Camera.Backend != "stub" || !cfg.Camera.StubDeny {
		t.Errorf("camera overrides not applied: %+v", cfg.Camera)
	}
	if cfg.Translation.DelayMs != 50 {
		t.Errorf("expected delay 50ms, got %d", cfg.Translation.DelayMs)
	}
	if cfg.Speech.Defaults.Rate != 1.25 {
		t.Errorf("expected rate 1.25, got %g", cfg.Speech.Defaults.Rate)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.HealthPort != 8081 {
		t.Errorf("expected default health port, got %d", cfg.Server.HealthPort)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GESTURESPEAK_SERVER_API_PORT", "7070")
	t.Setenv("GESTURESPEAK_SPEECH_BACKEND", "none")

	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.APIPort != 7070 {
		t.Errorf("expected env api port 7070, got %d", cfg.Server.APIPort)
	}
	if cfg.Speech.Backend != "none" {
		t.Errorf("expected env speech backend none, got %q", cfg.Speech.Backend)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown camera backend",
			content: "camera:\n  backend: hologram\n",
			wantErr: "camera backend",
		},
		{
			name:    "unknown speech backend",
			content: "speech:\n  backend: espeak\n",
			wantErr: "speech backend",
		},
		{
			name:    "unknown player",
			content: "speech:\n  player: jukebox\n",
			wantErr: "speech player",
		},
		{
			name:    "jpeg quality out of range",
			content: "capture:\n  jpeg_quality: 150\n",
			wantErr: "jpeg_quality",
		},
		{
			name:    "negative delay",
			content: "translation:\n  delay_ms: -1\n",
			wantErr: "delay_ms",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}
