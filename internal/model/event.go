// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"

	"nano-bridge/internal/protocol"
)

// EventType represents the type of event
type EventType string

const (
	EventConnected      EventType = "CONNECTED"
	EventConnectFailed  EventType = "CONNECT_FAILED"
	EventDisconnected   EventType = "DISCONNECTED"
	EventTransportError EventType = "TRANSPORT_ERROR"
	EventTeardownError  EventType = "TEARDOWN_ERROR"
	EventReply          EventType = "REPLY"
	EventMalformedLine  EventType = "MALFORMED_LINE"
)

// Severity levels carried by events
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// BridgeEvent is published by the bridge for the host. It replaces
// console warnings: nothing is ever thrown at block callers.
type BridgeEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	Severity  string    `json:"severity"`
	Port      string    `json:"port,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Reply     *Reading  `json:"reply,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Reading is a single decoded reply
type Reading struct {
	Kind  string `json:"kind"`
	Pin   *int   `json:"pin,omitempty"`
	Value int    `json:"value"`
}

// NewEvent creates an event stamped with a fresh id and time
func NewEvent(eventType EventType, severity string) BridgeEvent {
	return BridgeEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Severity:  severity,
		Timestamp: time.Now(),
	}
}

// WithError attaches an error message
func (e BridgeEvent) WithError(err error) BridgeEvent {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// EventReporter receives bridge events. Implementations must not block.
type EventReporter interface {
	Report(event BridgeEvent)
}

// ReporterFunc adapts a function to EventReporter
type ReporterFunc func(event BridgeEvent)

// Report implements EventReporter
func (f ReporterFunc) Report(event BridgeEvent) {
	f(event)
}

// MultiReporter fans one event out to several reporters
type MultiReporter []EventReporter

// Report implements EventReporter
func (m MultiReporter) Report(event BridgeEvent) {
	for _, r := range m {
		if r != nil {
			r.Report(event)
		}
	}
}

// BridgeStatus is a point-in-time view of the bridge
type BridgeStatus struct {
	Connected   bool        `json:"connected"`
	Port        string      `json:"port,omitempty"`
	ConnectedAt *time.Time  `json:"connected_at,omitempty"`
	Analog      map[int]int `json:"analog"`
	Digital     map[int]int `json:"digital"`
	Pulse       int         `json:"pulse"`

	Transport *protocol.PortStats `json:"transport,omitempty"`
}
