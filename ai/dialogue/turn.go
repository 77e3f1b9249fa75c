// Package dialogue holds the slot-filling core of the scheduling assistant:
// the slot model for a partially specified event request, the typed
// conversation transcript, and the validation rules that decide when a
// request is complete.
package dialogue

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation transcript. Insertion order is
// significant; the transcript is append-only within a session lifetime.
type Turn struct {
	Role Role
	Text string
}

// UserTurn creates a user transcript turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// AssistantTurn creates an assistant transcript turn.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text}
}
