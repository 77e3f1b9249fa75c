package dialogue

import (
	"fmt"
	"strings"
)

// ValidationError reports a slot value that could not be accepted. It is
// user-correctable: the dialogue stays open and the manager asks for a
// restated value for the named field.
type ValidationError struct {
	Field  Field
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IncompleteRequestError reports a ToEventRequest call while required fields
// are still unset. Given correct state-machine use this cannot happen; it is
// an internal invariant violation, not a user-facing condition.
type IncompleteRequestError struct {
	Missing []Field
}

func (e *IncompleteRequestError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("event request is incomplete: missing %s", strings.Join(names, ", "))
}
