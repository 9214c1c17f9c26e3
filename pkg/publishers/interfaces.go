package publishers

import (
	"context"

	"github.com/samvad-hq/samvad-webhelpers/pkg/webhelper"
)

// Publisher sends events to a downstream sink (HTTP, SQS, SNS, Pub/Sub).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Closer is implemented by publishers holding client connections.
type Closer interface {
	Close() error
}

// Logger extends the client's logging surface with warnings for events that
// could not be delivered.
type Logger interface {
	webhelper.Logger
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
