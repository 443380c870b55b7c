// Package protocol defines the events exchanged between board participants
// and the relay, and the JSON envelope they travel in.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event names sent by a participant to the relay.
const (
	AddBox      = "add-box"
	MoveBox     = "move-box"
	MoveBoxes   = "move-boxes"
	ResizeBox   = "resize-box"
	DeleteBoxes = "delete-boxes"
)

// Event names the relay uses when fanning an edit out to the other participants.
const (
	BoxAdded     = "box-added"
	BoxMoved     = "box-moved"
	BoxesMoved   = "boxes-moved"
	BoxResized   = "box-resized"
	BoxesDeleted = "boxes-deleted"
)

var relayed = map[string]string{
	AddBox:      BoxAdded,
	MoveBox:     BoxMoved,
	MoveBoxes:   BoxesMoved,
	ResizeBox:   BoxResized,
	DeleteBoxes: BoxesDeleted,
}

// Relayed returns the name under which the relay re-broadcasts an inbound
// event. ok is false for names the relay does not handle.
func Relayed(name string) (out string, ok bool) {
	out, ok = relayed[name]
	return out, ok
}

var ErrMissingEvent = errors.New("envelope has no event name")

// Envelope is the unit carried in a single websocket text frame.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload under the given event name.
func NewEnvelope(event string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return Envelope{Event: event, Payload: raw}, nil
}

// Encode marshals the envelope for the wire.
func (e Envelope) Encode() ([]byte, error) {
	if e.Event == "" {
		return nil, ErrMissingEvent
	}
	return json.Marshal(e)
}

// Decode parses a wire frame. The payload is kept raw so the relay can
// forward it without interpreting it.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.Event == "" {
		return Envelope{}, ErrMissingEvent
	}
	return e, nil
}

// Emitter sends a locally produced edit towards the other participants.
// Delivery is best effort; implementations log and drop on failure.
type Emitter interface {
	Emit(event string, payload any)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(event string, payload any)

func (f EmitterFunc) Emit(event string, payload any) { f(event, payload) }

// Discard is an Emitter for participants with no connection.
var Discard Emitter = EmitterFunc(func(string, any) {})
