package calendar

import "fmt"

// AuthError means the calendar credentials are invalid or expired. It is
// user-actionable (re-run authentication) and is never conflated with
// validation problems.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("calendar authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RemoteError is a transient provider failure. Retrying the same payload is
// safe.
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("calendar provider unavailable: %v", e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// RejectedError is a provider-side semantic rejection of the payload, for
// example a malformed attendee address. Not retryable without user
// correction.
type RejectedError struct {
	Err error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("calendar rejected the event: %v", e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }
