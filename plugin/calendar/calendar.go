// Package calendar adapts the external calendar capability. It translates a
// completed event request into the provider's create call and maps provider
// responses into the dialogue core's error vocabulary.
package calendar

import (
	"context"
	"time"

	"github.com/schedsense/schedsense/ai/dialogue"
)

// CreatedEvent is the provider's confirmation of a created event.
type CreatedEvent struct {
	ID       string
	HTMLLink string
	Title    string
	Start    time.Time
	End      time.Time
}

// Event is a calendar entry as listed by the provider.
type Event struct {
	ID        string
	Title     string
	Start     time.Time
	End       time.Time
	Attendees []string
	HTMLLink  string
}

// Service is the calendar capability boundary. Implementations must return
// the typed errors from this package (AuthError, RemoteError, RejectedError)
// so callers can distinguish retryable from user-correctable failures.
type Service interface {
	// CreateEvent creates an event and returns the provider's confirmation,
	// including a reference link.
	CreateEvent(ctx context.Context, req *dialogue.EventRequest) (*CreatedEvent, error)

	// ListUpcoming returns events starting within the next given number of
	// days, ordered by start time.
	ListUpcoming(ctx context.Context, days, maxResults int) ([]*Event, error)
}
