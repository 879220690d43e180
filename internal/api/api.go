// Package api exposes the session state machine over HTTP for the
// gesturespeak web UI.
//
// The surface is a small JSON REST API plus a WebSocket event feed; every
// operation maps one-to-one onto a controller method. Failures are never
// fatal: each maps to a 4xx/5xx with a JSON error body and the session
// stays retryable.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/camera"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/events"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/session"
	"github.com/Shivein-Kumar/gesturespeak-fusion/internal/translation"
)

// Server serves the UI-facing HTTP API.
type Server struct {
	port      int
	ctrl      *session.Controller
	hub       *events.Hub
	exportDir string
	server    *http.Server
}

// New creates an API server around a session controller. hub may be nil
// to disable the WebSocket feed.
func New(port int, ctrl *session.Controller, hub *events.Hub, exportDir string) *Server {
	return &Server{port: port, ctrl: ctrl, hub: hub, exportDir: exportDir}
}

// Handler builds the API route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/mode", s.handleSetMode)
	mux.HandleFunc("POST /api/camera/enable", s.handleEnableCamera)
	mux.HandleFunc("POST /api/capture", s.handleCapture)
	mux.HandleFunc("DELETE /api/capture", s.handleDiscard)
	mux.HandleFunc("GET /api/capture/export", s.handleDownload)
	mux.HandleFunc("POST /api/capture/export", s.handleExport)
	mux.HandleFunc("POST /api/translate", s.handleTranslate)
	mux.HandleFunc("POST /api/speech", s.handleSpeak)
	mux.HandleFunc("DELETE /api/speech", s.handleStopSpeech)
	mux.HandleFunc("PUT /api/settings", s.handleSettings)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.ServeWS)
	}

	// Swagger UI — serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

// Listen starts the HTTP server. It blocks until ctx is cancelled.
func (s *Server) Listen(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("api listening", "port", s.port)

	go func() {
		<-ctx.Done()
		slog.Info("api shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (s *Server) Close() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

type modeRequest struct {
	Mode session.Mode `json:"mode"`
}

type translateRequest struct {
	Text string `json:"text"`
}

type speechResponse struct {
	Speaking    bool   `json:"speaking"`
	Audio       string `json:"audio,omitempty"` // base64 WAV for client-side playback
	ContentType string `json:"content_type,omitempty"`
}

type exportResponse struct {
	Path string `json:"path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleState returns the session snapshot.
//
// @Summary  Current session state
// @Tags     session
// @Produce  json
// @Success  200 {object} session.State
// @Router   /api/state [get]
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleSetMode switches the input mode.
//
// @Summary  Switch input mode
// @Tags     session
// @Accept   json
// @Produce  json
// @Param    mode body modeRequest true "camera or text"
// @Success  200 {object} session.State
// @Failure  400 {object} errorResponse
// @Router   /api/mode [post]
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ctrl.SetMode(req.Mode); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleEnableCamera requests camera access (also the retry action after a
// denial).
//
// @Summary  Enable the camera / retry permission
// @Tags     camera
// @Produce  json
// @Success  200 {object} session.State
// @Failure  409 {object} errorResponse "not in camera mode"
// @Failure  503 {object} errorResponse "camera access denied"
// @Router   /api/camera/enable [post]
func (s *Server) handleEnableCamera(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.EnableCamera(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleCapture snapshots the live preview and starts the mock
// translation.
//
// @Summary  Capture a frame and translate it
// @Tags     camera
// @Produce  json
// @Success  200 {object} session.State "processing flag set until the translation lands"
// @Failure  409 {object} errorResponse "no live preview or translation in flight"
// @Router   /api/capture [post]
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Capture(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleDiscard drops the captured image and resumes the preview.
//
// @Summary  Discard the captured image
// @Tags     camera
// @Produce  json
// @Success  200 {object} session.State
// @Failure  409 {object} errorResponse
// @Router   /api/capture [delete]
func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Discard(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleDownload streams the captured JPEG as a browser download.
//
// @Summary  Download the captured image
// @Tags     camera
// @Produce  image/jpeg
// @Success  200 {file} binary
// @Failure  409 {object} errorResponse
// @Router   /api/capture/export [get]
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	shot, err := s.ctrl.CaptureData()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", shot.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(shot.JPEG)
}

// handleExport saves the captured JPEG into the server-side export
// directory.
//
// @Summary  Export the captured image server-side
// @Tags     camera
// @Produce  json
// @Success  200 {object} exportResponse
// @Failure  409 {object} errorResponse
// @Router   /api/capture/export [post]
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	path, err := s.ctrl.ExportTo(s.exportDir)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{Path: path})
}

// handleTranslate runs the typed-text translation path.
//
// @Summary  Translate typed text
// @Tags     translation
// @Accept   json
// @Produce  json
// @Param    text body translateRequest true "input text"
// @Success  200 {object} session.State
// @Failure  400 {object} errorResponse "empty input"
// @Failure  409 {object} errorResponse "not in text mode"
// @Router   /api/translate [post]
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ctrl.TranslateText(req.Text); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleSpeak starts playback of the current result. The response carries
// the synthesized audio for clients that play it themselves.
//
// @Summary  Speak the translation result
// @Tags     speech
// @Produce  json
// @Success  200 {object} speechResponse
// @Failure  409 {object} errorResponse "no result to speak"
// @Failure  500 {object} errorResponse "synthesis failed"
// @Router   /api/speech [post]
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	audio, err := s.ctrl.Speak(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := speechResponse{Speaking: audio != nil}
	if audio != nil {
		resp.Audio = base64.StdEncoding.EncodeToString(audio.Audio)
		resp.ContentType = audio.ContentType
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStopSpeech cancels any in-flight utterance.
//
// @Summary  Stop speech playback
// @Tags     speech
// @Produce  json
// @Success  200 {object} session.State
// @Router   /api/speech [delete]
func (s *Server) handleStopSpeech(w http.ResponseWriter, r *http.Request) {
	s.ctrl.StopSpeaking()
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleSettings replaces the voice settings.
//
// @Summary  Update voice settings
// @Tags     speech
// @Accept   json
// @Produce  json
// @Param    settings body session.Settings true "language, pitch, rate, volume"
// @Success  200 {object} session.State
// @Failure  400 {object} errorResponse "out-of-range settings"
// @Router   /api/settings [put]
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req session.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ctrl.UpdateSettings(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleReset clears the session's result, text buffer, and capture.
//
// @Summary  Reset the session
// @Tags     session
// @Produce  json
// @Success  200 {object} session.State
// @Router   /api/reset [post]
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reset()
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

// statusFor maps controller errors onto HTTP statuses: bad input is 400,
// state conflicts are 409, a denied camera is 503 (retryable), anything
// else 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, translation.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrWrongMode),
		errors.Is(err, session.ErrNoStream),
		errors.Is(err, session.ErrTranslationInFlight),
		errors.Is(err, session.ErrNoCapture),
		errors.Is(err, session.ErrNoResult):
		return http.StatusConflict
	case errors.Is(err, camera.ErrAccessDenied):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
