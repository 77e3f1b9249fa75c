package agent

import (
	"fmt"
	"time"

	"github.com/schedsense/schedsense/ai/dialogue"
	"github.com/schedsense/schedsense/plugin/calendar"
)

const (
	msgInternalError = "Something went wrong on my side. Let's start over: what would you like to schedule?"

	msgCalendarAuth = "I couldn't access your calendar because the authorization was rejected. " +
		"Please re-authenticate, then ask me to try again. Your event details are saved."

	msgCalendarRejected = "The calendar rejected the event as submitted. " +
		"Please check the details, attendee email addresses in particular, and tell me what to change."

	msgCalendarRemote = "The calendar service didn't respond, so nothing was created. " +
		"Your event details are saved; say \"try again\" and I'll retry."
)

// fieldQuestions are the fixed prompts for each slot. Asking happens one
// field at a time in priority order, so a stalled conversation always repeats
// the same question.
var fieldQuestions = map[dialogue.Field]string{
	dialogue.FieldTitle:     "What should the event be called?",
	dialogue.FieldStart:     "When should it start?",
	dialogue.FieldDuration:  "How long should it run, in minutes?",
	dialogue.FieldAttendees: "Who should be invited? Say \"nobody\" if it's just for you.",
}

// questionReply builds the prompt for the next missing field. A merged update
// gets a short acknowledgement; a conversational extractor message is passed
// through with the pending question re-appended so the dialogue never stalls.
func questionReply(message string, merged bool, next dialogue.Field) string {
	q := fieldQuestions[next]
	switch {
	case merged:
		return "Got it. " + q
	case message != "":
		return message + "\n\n" + q
	default:
		return q
	}
}

// correctionReply asks the user to restate a value that failed validation.
func correctionReply(verr *dialogue.ValidationError) string {
	switch verr.Field {
	case dialogue.FieldStart:
		return fmt.Sprintf("I couldn't read %q as a date and time. %s", verr.Value, fieldQuestions[dialogue.FieldStart])
	case dialogue.FieldDuration:
		return "The duration has to be a positive number of minutes. " + fieldQuestions[dialogue.FieldDuration]
	default:
		return fmt.Sprintf("I couldn't accept that value for the %s (%s). Could you restate it?", verr.Field, verr.Reason)
	}
}

// recoveryReply is used when extraction itself failed. If a question is
// pending it is repeated; a complete slot set means a retry is all that is
// needed.
func recoveryReply(slots *dialogue.SlotSet) string {
	if missing := slots.MissingRequiredFields(); len(missing) > 0 {
		return "Sorry, I didn't catch that. " + fieldQuestions[missing[0]]
	}
	return "Sorry, I hit a problem processing that. Your event details are complete; say \"go ahead\" and I'll create it."
}

// confirmationReply announces the created event with a reference link.
func confirmationReply(req *dialogue.EventRequest, created *calendar.CreatedEvent, loc *time.Location) string {
	when := req.Start.In(loc).Format("Monday, January 2 at 15:04")
	minutes := int(req.End.Sub(req.Start).Minutes())

	text := fmt.Sprintf("Done! I've scheduled %q on %s for %d minutes", req.Title, when, minutes)
	if len(req.Attendees) > 0 {
		text += fmt.Sprintf(" with %d invitee(s)", len(req.Attendees))
	}
	text += "."
	if created.HTMLLink != "" {
		text += "\n" + created.HTMLLink
	}
	return text
}
