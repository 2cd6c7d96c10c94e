package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// ProtocolVersion identifies the bridge contract version exposed via /health.
	ProtocolVersion = "1.0.0"
	// EventSchemaVersion is the currently supported inbound event version.
	EventSchemaVersion = 1

	// TypeSelect switches the selected employee.
	TypeSelect = "select"
	// TypeToggle clicks the comments button of a rendered post.
	TypeToggle = "toggle"
)

// Event is a single scripted interaction posted to /events.
type Event struct {
	Version    int       `json:"version"`
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	Value      string    `json:"value,omitempty"`
	PostID     int       `json:"post_id,omitempty"`
	ServerTime time.Time `json:"server_time"`
}

// Normalize applies defaults and canonical formatting before validation.
// Events without an id get a generated one.
func (e *Event) Normalize() {
	if e == nil {
		return
	}
	if e.Version == 0 {
		e.Version = EventSchemaVersion
	}
	e.EventID = strings.TrimSpace(e.EventID)
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	e.Value = strings.TrimSpace(e.Value)
}

// StampServerTime overwrites ServerTime with the supplied clock reading (UTC).
func (e *Event) StampServerTime(now time.Time) {
	if e == nil {
		return
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	e.ServerTime = now.UTC()
}

// Validate enforces baseline schema requirements for incoming events.
func (e Event) Validate() error {
	if e.Version != EventSchemaVersion {
		return fmt.Errorf("version %d not supported", e.Version)
	}
	if e.EventID == "" {
		return errors.New("event_id is required")
	}
	switch e.Type {
	case TypeSelect:
	case TypeToggle:
		if e.PostID <= 0 {
			return errors.New("post_id must be positive for toggle events")
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("type %q not supported", e.Type)
	}
	return nil
}

// Processor consumes validated events.
type Processor interface {
	HandleEvent(context.Context, Event) error
}

// ProcessorFunc adapts a function into a Processor.
type ProcessorFunc func(context.Context, Event) error

// HandleEvent executes f(ctx, e).
func (f ProcessorFunc) HandleEvent(ctx context.Context, e Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, e)
}

// Viewer renders the current display area for /view.
type Viewer interface {
	Outline() string
}

// Logger records bridge status information. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type eventResponse struct {
	Status     string    `json:"status"`
	EventID    string    `json:"event_id"`
	ServerTime time.Time `json:"server_time"`
}
