// Gesturespeak is the backend daemon for a sign-language-to-text/speech
// translation UI. It captures camera frames or accepts typed text, produces
// a translation (currently mocked), and speaks the result through a local
// TTS backend, exposing an HTTP API plus a WebSocket event feed to the
// browser frontend.
//
// Usage:
//
//	gesturespeak [flags]
//	gesturespeak --config /path/to/gesturespeak.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/api"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/camera"
	cameradevice "github.com/Shivein-Kumar/gesturespeak-fusion/internal/camera/device"
	camerastub "github.com/Shivein-Kumar/gesturespeak-fusion/internal/camera/stub"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/config"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/events"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/grpcprobe"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/health"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/session"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/speech"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/speech/cmdplayer"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/speech/piper"
	speechstub "github.com/Shivein-Kumar/gesturespeak-fusion/internal/speech/stub"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/translation"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/gesturespeak.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("gesturespeak %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("gesturespeak starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the camera backend.
	var cam camera.Camera
	switch cfg.Camera.Backend {
	case "device":
		cam = cameradevice.New(cfg.Camera.RearDevice, cfg.Camera.FrontDevice)
		slog.Info("using device camera",
			"rear_device", cfg.Camera.RearDevice,
			"front_device", cfg.Camera.FrontDevice)
	case "stub":
		cam = camerastub.New(&camerastub.Config{
			DenyAccess:  cfg.Camera.StubDeny,
			FrameWidth:  640,
			FrameHeight: 480,
		})
		slog.Info("using stub camera", "deny_access", cfg.Camera.StubDeny)
	}

	// The translation step is a mock: fixed delay, fixed result.
	translator := translation.NewMock(&translation.MockConfig{
		ProcessingDelay: time.Duration(cfg.Translation.DelayMs) * time.Millisecond,
		Placeholder:     cfg.Translation.Placeholder,
	})

	// Initialize the speech backend.
	var synth speech.Synthesizer
	switch cfg.Speech.Backend {
	case "piper":
		synth = piper.New(cfg.Speech.Piper)
		slog.Info("using piper speech backend", "endpoint", cfg.Speech.Piper.Endpoint)
	case "stub":
		synth = speechstub.New(nil)
		slog.Info("using stub speech backend")
	case "none":
		slog.Info("speech output disabled")
	}

	var sink speech.Sink
	if cfg.Speech.Player == "command" {
		sink, err = cmdplayer.New(cfg.Speech.PlayerCommand)
		if err != nil {
			slog.Error("invalid player command", "error", err)
			os.Exit(1)
		}
		slog.Info("using command audio player", "command", cfg.Speech.PlayerCommand)
	}
	player := speech.NewPlayer(synth, sink)

	hub := events.NewHub()

	ctrl := session.New(session.Config{
		Facing:      camera.Facing(cfg.Camera.Facing),
		FrameWidth:  cfg.Camera.FrameWidth,
		FrameHeight: cfg.Camera.FrameHeight,
		JPEGQuality: cfg.Capture.JPEGQuality,
		Settings: session.Settings{
			Language: cfg.Speech.Defaults.Language,
			Pitch:    cfg.Speech.Defaults.Pitch,
			Rate:     cfg.Speech.Defaults.Rate,
			Volume:   cfg.Speech.Defaults.Volume,
		},
	}, cam, translator, player, hub)

	apiServer := api.New(cfg.Server.APIPort, ctrl, hub, cfg.Capture.ExportDir)
	healthServer := health.New(cfg.Server.HealthPort)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return healthServer.ListenAndServe(gctx) })
	g.Go(func() error { return apiServer.Listen(gctx) })

	var probe *grpcprobe.Server
	if cfg.Server.GRPCEnabled {
		probe = grpcprobe.New(cfg.Server.GRPCPort)
		g.Go(func() error { return probe.Listen(gctx) })
	}

	healthServer.SetReady(true)
	if probe != nil {
		probe.SetReady(true)
	}
	slog.Info("gesturespeak ready",
		"api_port", cfg.Server.APIPort,
		"health_port", cfg.Server.HealthPort)

	err = g.Wait()

	// Teardown releases the camera stream and stops playback
	// unconditionally.
	if closeErr := ctrl.Close(); closeErr != nil {
		slog.Error("session close error", "error", closeErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("gesturespeak failed", "error", err)
		os.Exit(1)
	}
	slog.Info("gesturespeak stopped")
}
