package publishers

import (
	"encoding/json"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/oklog/ulid/v2"
	"github.com/samvad-hq/samvad-webhelpers/pkg/webhelper"
)

const (
	// EventType is the CloudEvents type of a completed request.
	EventType = "io.samvad.webhelper.request.completed"
	// EventSource is the CloudEvents source of every event.
	EventSource = "samvad-webhelpers"
)

// Event describes one completed webhelper call.
type Event struct {
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Success    bool      `json:"success"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent builds an Event from a call outcome.
func NewEvent(o webhelper.Outcome) Event {
	evt := Event{
		ID:         ulid.Make().String(),
		Method:     o.Method,
		URL:        o.URL,
		StatusCode: o.StatusCode,
		DurationMs: o.Duration.Milliseconds(),
		Success:    o.Err == nil,
		OccurredAt: time.Now().UTC(),
	}
	if o.Err != nil {
		evt.Error = o.Err.Error()
	}
	return evt
}

// CloudEvent wraps the event in a CloudEvents envelope.
func (e Event) CloudEvent() (cloudevents.Event, error) {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	ce := cloudevents.NewEvent()
	ce.SetID(e.ID)
	ce.SetType(EventType)
	ce.SetSource(EventSource)
	ce.SetSubject(e.Method + " " + e.URL)
	ce.SetTime(e.OccurredAt)
	if err := ce.SetData(cloudevents.ApplicationJSON, e); err != nil {
		return cloudevents.Event{}, fmt.Errorf("set event data: %w", err)
	}
	return ce, nil
}

// encodeEvent returns the structured-mode CloudEvents JSON for e.
func encodeEvent(e Event) ([]byte, error) {
	ce, err := e.CloudEvent()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(ce)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return payload, nil
}
