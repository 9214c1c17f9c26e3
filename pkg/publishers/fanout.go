package publishers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-webhelpers/pkg/webhelper"
)

const hookPublishTimeout = 10 * time.Second

// Fanout dispatches events to all configured publishers.
type Fanout struct {
	publishers []Publisher
}

// NewFanout builds a dispatcher that fans out events across publishers.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p == nil {
			continue
		}
		cp = append(cp, p)
	}
	return &Fanout{publishers: cp}
}

// Publish forwards the event to every registered publisher.
// It returns the number of publishers that successfully handled the event.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var errs []error
	successful := 0
	for _, p := range f.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
		} else {
			successful++
		}
	}
	return successful, errors.Join(errs...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close closes every publisher holding a connection.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.publishers {
		if c, ok := p.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Hook announces every completed webhelper call. Delivery does not inherit
// the call's cancellation, so cancelled calls are reported too. Failures are
// logged and never affect the call.
func (f *Fanout) Hook(log Logger) webhelper.AfterHook {
	log = ensureLogger(log)
	return func(ctx context.Context, o webhelper.Outcome) {
		if f.Size() == 0 {
			return
		}
		evt := NewEvent(o)
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookPublishTimeout)
		defer cancel()

		n, err := f.Publish(pubCtx, evt)
		if err != nil {
			log.WarnObj("request event publish failed", "publish_error", map[string]any{
				"event_id":  evt.ID,
				"delivered": n,
				"error":     err.Error(),
			})
			return
		}
		log.DebugObj("request event published", "publish_result", map[string]any{
			"event_id":  evt.ID,
			"delivered": n,
		})
	}
}
