// Package events carries session state changes to connected UI clients.
//
// The session controller publishes an event for every state transition;
// the hub fans them out over WebSocket so browsers can mirror the state
// machine without polling.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Reason names the transition that produced an event.
type Reason string

const (
	ReasonModeChanged     Reason = "mode_changed"
	ReasonPermission      Reason = "permission"
	ReasonCapture         Reason = "capture"
	ReasonCaptureDiscard  Reason = "capture_discarded"
	ReasonProcessing      Reason = "processing"
	ReasonTranslation     Reason = "translation"
	ReasonSpeech          Reason = "speech"
	ReasonSettingsChanged Reason = "settings_changed"
	ReasonReset           Reason = "reset"
)

// Event is one state change notification.
type Event struct {
	ID     string    `json:"id"`
	Reason Reason    `json:"reason"`
	At     time.Time `json:"at"`

	// State is the full session state snapshot after the transition.
	State any `json:"state"`
}

// New builds an event around a state snapshot.
func New(reason Reason, state any) Event {
	return Event{
		ID:     uuid.NewString(),
		Reason: reason,
		At:     time.Now().UTC(),
		State:  state,
	}
}

// Publisher receives session events. The hub implements it; tests use
// in-memory recorders.
type Publisher interface {
	Publish(Event)
}

// Discard is a Publisher that drops every event.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(Event) {}
