package notify

import (
	"context"
	"time"
)

// Severity levels recognised by downstream notification surfaces.
const (
	SeverityInfo  = "info"
	SeverityError = "error"
)

// Notification captures the canonical data we emit for transient user
// notifications (toasts). Every session operation, successful or failed,
// produces exactly one of these.
type Notification struct {
	ID          string
	Title       string
	Description string
	Severity    string
	OccurredAt  time.Time
}

// Sink describes a destination capable of consuming notifications.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, n Notification) error

// Send implements the Sink interface.
func (f SinkFunc) Send(ctx context.Context, n Notification) error {
	if f == nil {
		return nil
	}
	return f(ctx, n)
}
