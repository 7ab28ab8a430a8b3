// Package pushchannel carries auction events between the bid view and the
// server over a bidirectional push transport.
package pushchannel

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	ErrClosed          = errors.New("push channel closed")
	ErrSendBufferFull  = errors.New("push channel send buffer full")
	ErrUnknownEvent    = errors.New("unknown event")
	ErrInvalidEnvelope = errors.New("invalid envelope")
)

// Handler receives the raw payload of one inbound event
type Handler func(data json.RawMessage)

// Channel is a named-event push connection
type Channel interface {
	Emit(event string, payload any) error
	On(event string, h Handler)
	Close() error
}

// Envelope is the JSON frame carried by message-oriented transports
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode builds the frame for event
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Decode parses a frame
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event name", ErrInvalidEnvelope)
	}
	return env, nil
}

// Dispatcher routes inbound events to registered handlers. Transports call
// Dispatch from a single goroutine, so handlers see events in arrival order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func (d *Dispatcher) On(event string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers == nil {
		d.handlers = make(map[string][]Handler)
	}
	d.handlers[event] = append(d.handlers[event], h)
}

// Dispatch runs every handler for env.Event. Events nobody listens to are
// dropped with ErrUnknownEvent.
func (d *Dispatcher) Dispatch(env Envelope) error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[env.Event]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		log.Debug().Str("event", env.Event).Msg("no handler for event, ignoring")
		return ErrUnknownEvent
	}
	for _, h := range handlers {
		h(env.Data)
	}
	return nil
}
