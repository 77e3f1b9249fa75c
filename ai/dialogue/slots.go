package dialogue

import (
	"strconv"
	"strings"
	"time"
)

// Field is one required slot of a scheduling request.
type Field string

const (
	FieldTitle     Field = "title"
	FieldStart     Field = "start"
	FieldDuration  Field = "duration"
	FieldAttendees Field = "attendees"
)

// fieldPriority is the fixed order in which missing fields are asked for.
// The user is asked one thing at a time, in this order, stable across retries.
var fieldPriority = []Field{FieldTitle, FieldStart, FieldDuration, FieldAttendees}

// SlotStatus is the lifecycle status of a slot set.
type SlotStatus string

const (
	SlotStatusIncomplete SlotStatus = "incomplete"
	SlotStatusReady      SlotStatus = "ready"
	SlotStatusCreated    SlotStatus = "created"
	SlotStatusFailed     SlotStatus = "failed"
)

// startLayouts are the accepted start-time formats. Offset-less layouts are
// interpreted in the configured default location.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// SlotSet holds the fields required to create a calendar event. Zero values
// mean "unset" except for attendees, where an explicitly decided empty list
// is distinguished from "not asked yet" by AttendeesDecided.
type SlotSet struct {
	Title            string
	Start            *time.Time
	DurationMinutes  int
	Attendees        []string
	AttendeesDecided bool
	Status           SlotStatus
}

// NewSlotSet returns an empty, incomplete slot set.
func NewSlotSet() *SlotSet {
	return &SlotSet{Status: SlotStatusIncomplete}
}

// SlotUpdate carries newly extracted field values. Nil pointers mean "no new
// value for this field"; a non-nil pointer is an explicit (possibly revised)
// value. NoAttendees records that the user decided the event has no invitees.
type SlotUpdate struct {
	Title           *string
	Start           *string
	DurationMinutes *int
	Attendees       []string
	NoAttendees     bool
}

// IsEmpty reports whether the update carries no field values at all.
func (u SlotUpdate) IsEmpty() bool {
	return u.Title == nil && u.Start == nil && u.DurationMinutes == nil &&
		u.Attendees == nil && !u.NoAttendees
}

// ParseStart parses a start-time string. Layouts without a UTC offset are
// interpreted in loc.
func ParseStart(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range startLayouts {
		var t time.Time
		var err error
		if strings.Contains(layout, "Z07:00") {
			t, err = time.Parse(layout, value)
		} else {
			t, err = time.ParseInLocation(layout, value, loc)
		}
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Merge applies an update onto the slot set. An already-set field is never
// cleared; an explicitly provided value overwrites (user corrections). An
// unparseable start or a non-positive duration fails with ValidationError and
// leaves the slot set unchanged.
func (s *SlotSet) Merge(upd SlotUpdate, loc *time.Location) error {
	// Validate before mutating so a rejected update has no partial effect.
	var start *time.Time
	if upd.Start != nil {
		parsed, err := ParseStart(*upd.Start, loc)
		if err != nil {
			return &ValidationError{Field: FieldStart, Value: *upd.Start, Reason: "not a recognizable date and time"}
		}
		start = &parsed
	}
	if upd.DurationMinutes != nil && *upd.DurationMinutes <= 0 {
		return &ValidationError{Field: FieldDuration, Value: strconv.Itoa(*upd.DurationMinutes), Reason: "duration must be positive"}
	}

	if upd.Title != nil {
		if title := strings.TrimSpace(*upd.Title); title != "" {
			s.Title = title
		}
	}
	if start != nil {
		s.Start = start
	}
	if upd.DurationMinutes != nil {
		s.DurationMinutes = *upd.DurationMinutes
	}
	if upd.NoAttendees {
		s.Attendees = []string{}
		s.AttendeesDecided = true
	} else if upd.Attendees != nil {
		attendees := make([]string, 0, len(upd.Attendees))
		for _, a := range upd.Attendees {
			if a = strings.TrimSpace(a); a != "" {
				attendees = append(attendees, a)
			}
		}
		s.Attendees = attendees
		s.AttendeesDecided = true
	}

	if s.Status == SlotStatusIncomplete || s.Status == SlotStatusReady {
		if len(s.MissingRequiredFields()) == 0 {
			s.Status = SlotStatusReady
		} else {
			s.Status = SlotStatusIncomplete
		}
	}
	return nil
}

// MissingRequiredFields returns the unset required fields in priority order.
// An empty result means the slot set can become READY.
func (s *SlotSet) MissingRequiredFields() []Field {
	var missing []Field
	for _, f := range fieldPriority {
		switch f {
		case FieldTitle:
			if s.Title == "" {
				missing = append(missing, f)
			}
		case FieldStart:
			if s.Start == nil {
				missing = append(missing, f)
			}
		case FieldDuration:
			if s.DurationMinutes == 0 {
				missing = append(missing, f)
			}
		case FieldAttendees:
			if !s.AttendeesDecided {
				missing = append(missing, f)
			}
		}
	}
	return missing
}

// EventRequest is the structured payload handed to the calendar adapter.
type EventRequest struct {
	Title     string
	Start     time.Time
	End       time.Time
	Attendees []string
}

// ToEventRequest produces the calendar creation payload. It fails with
// IncompleteRequestError while any required field is unset; the complement of
// MissingRequiredFields being empty.
func (s *SlotSet) ToEventRequest() (*EventRequest, error) {
	if missing := s.MissingRequiredFields(); len(missing) > 0 {
		return nil, &IncompleteRequestError{Missing: missing}
	}
	return &EventRequest{
		Title:     s.Title,
		Start:     *s.Start,
		End:       s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute),
		Attendees: append([]string(nil), s.Attendees...),
	}, nil
}
