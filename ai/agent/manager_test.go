package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schedsense/schedsense/ai/dialogue"
	"github.com/schedsense/schedsense/ai/extractor"
	"github.com/schedsense/schedsense/plugin/calendar"
	"github.com/schedsense/schedsense/store"
)

// scriptedExtractor returns prepared results in order, one per turn.
type scriptedExtractor struct {
	results []*extractor.Result
	errs    []error
	calls   int
}

func (s *scriptedExtractor) Extract(_ context.Context, _ []dialogue.Turn, _ []dialogue.Field) (*extractor.Result, error) {
	i := s.calls
	s.calls++
	if i >= len(s.results) {
		return nil, errors.New("scripted extractor exhausted")
	}
	if s.errs != nil && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.results[i], nil
}

type fakeCalendar struct {
	createErr error
	created   []*dialogue.EventRequest
}

func (f *fakeCalendar) CreateEvent(_ context.Context, req *dialogue.EventRequest) (*calendar.CreatedEvent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &calendar.CreatedEvent{
		ID:       "evt-1",
		HTMLLink: "https://calendar.example.com/evt-1",
		Title:    req.Title,
		Start:    req.Start,
		End:      req.End,
	}, nil
}

func (f *fakeCalendar) ListUpcoming(_ context.Context, _, _ int) ([]*calendar.Event, error) {
	return nil, nil
}

func newTestManager(t *testing.T, ex Extractor, cal calendar.Service) (*Manager, *store.SessionStore) {
	t.Helper()
	st := store.NewSessionStore(time.Hour)
	t.Cleanup(st.Shutdown)
	return NewManager(st, ex, cal, time.UTC, nil), st
}

func update(u dialogue.SlotUpdate) *extractor.Result {
	return &extractor.Result{Update: &u}
}

func message(text string) *extractor.Result {
	return &extractor.Result{Message: text}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestHandleMessageSlotFillingFlow(t *testing.T) {
	ex := &scriptedExtractor{results: []*extractor.Result{
		// "meet tomorrow at 3pm" carries a start but no title: the title
		// question comes first regardless of what arrived first.
		update(dialogue.SlotUpdate{Start: strPtr("2026-09-01T15:00:00")}),
		update(dialogue.SlotUpdate{Title: strPtr("Design sync")}),
		update(dialogue.SlotUpdate{DurationMinutes: intPtr(30)}),
		update(dialogue.SlotUpdate{NoAttendees: true}),
	}}
	cal := &fakeCalendar{}
	mgr, st := newTestManager(t, ex, cal)
	ctx := context.Background()

	r := mgr.HandleMessage(ctx, "s1", "meet tomorrow at 3pm")
	require.Contains(t, r.Text, "What should the event be called?")
	require.False(t, r.Created)

	r = mgr.HandleMessage(ctx, "s1", "call it Design sync")
	require.Contains(t, r.Text, "How long should it run")

	r = mgr.HandleMessage(ctx, "s1", "half an hour")
	require.Contains(t, r.Text, "Who should be invited")

	r = mgr.HandleMessage(ctx, "s1", "nobody")
	require.True(t, r.Created)
	require.Equal(t, "https://calendar.example.com/evt-1", r.EventLink)
	require.Contains(t, r.Text, "Design sync")

	require.Len(t, cal.created, 1)
	require.Equal(t, time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC), cal.created[0].End)

	// The request is finished: slots are reset, transcript survives.
	sess, ok := st.Get("s1")
	require.True(t, ok)
	require.Equal(t, store.StateDone, sess.State)
	require.Equal(t, dialogue.SlotStatusIncomplete, sess.Slots.Status)
	require.Len(t, sess.Transcript, 8)
	require.Equal(t, dialogue.RoleAssistant, sess.Transcript[len(sess.Transcript)-1].Role)
}

func TestHandleMessageValidationKeepsDialogueOpen(t *testing.T) {
	ex := &scriptedExtractor{results: []*extractor.Result{
		update(dialogue.SlotUpdate{Title: strPtr("Planning")}),
		update(dialogue.SlotUpdate{Start: strPtr("whenever works")}),
		update(dialogue.SlotUpdate{Start: strPtr("2026-09-02T09:00:00")}),
	}}
	mgr, st := newTestManager(t, ex, &fakeCalendar{})
	ctx := context.Background()

	mgr.HandleMessage(ctx, "s1", "schedule Planning")
	r := mgr.HandleMessage(ctx, "s1", "whenever works")
	require.Contains(t, r.Text, "couldn't read")
	require.Contains(t, r.Text, "When should it start?")

	sess, _ := st.Get("s1")
	require.Nil(t, sess.Slots.Start)
	require.Equal(t, store.StateAwaitingInput, sess.State)

	r = mgr.HandleMessage(ctx, "s1", "tomorrow at 9")
	require.Contains(t, r.Text, "How long should it run")
	require.NotNil(t, sess.Slots.Start)
}

func TestHandleMessageIrrelevantMessageReasksQuestion(t *testing.T) {
	ex := &scriptedExtractor{results: []*extractor.Result{
		update(dialogue.SlotUpdate{Title: strPtr("Review")}),
		message("I'm a scheduling assistant, so no weather forecasts from me."),
	}}
	mgr, _ := newTestManager(t, ex, &fakeCalendar{})
	ctx := context.Background()

	mgr.HandleMessage(ctx, "s1", "schedule Review")
	r := mgr.HandleMessage(ctx, "s1", "what's the weather like?")
	require.Contains(t, r.Text, "no weather forecasts")
	require.Contains(t, r.Text, "When should it start?")
}

func TestHandleMessageExtractionErrorStaysInDialogue(t *testing.T) {
	ex := &scriptedExtractor{
		results: []*extractor.Result{
			update(dialogue.SlotUpdate{Title: strPtr("Sync")}),
			nil,
		},
		errs: []error{nil, &extractor.ExtractionError{Err: errors.New("provider down")}},
	}
	mgr, st := newTestManager(t, ex, &fakeCalendar{})
	ctx := context.Background()

	mgr.HandleMessage(ctx, "s1", "schedule Sync")
	r := mgr.HandleMessage(ctx, "s1", "tomorrow")
	require.Contains(t, r.Text, "When should it start?")

	sess, _ := st.Get("s1")
	require.Equal(t, store.StateAwaitingInput, sess.State)
	require.Equal(t, "Sync", sess.Slots.Title)
}

func TestHandleMessageCalendarFailureRetainsSlots(t *testing.T) {
	full := dialogue.SlotUpdate{
		Title:           strPtr("Launch call"),
		Start:           strPtr("2026-09-03T10:00:00"),
		DurationMinutes: intPtr(60),
		Attendees:       []string{"ada@example.com"},
	}
	ex := &scriptedExtractor{results: []*extractor.Result{
		update(full),
		message("retrying"),
	}}
	cal := &fakeCalendar{createErr: &calendar.RemoteError{Err: errors.New("timeout")}}
	mgr, st := newTestManager(t, ex, cal)
	ctx := context.Background()

	r := mgr.HandleMessage(ctx, "s1", "launch call sep 3 10am 1h with ada@example.com")
	require.False(t, r.Created)
	require.Contains(t, r.Text, "try again")

	sess, _ := st.Get("s1")
	require.Equal(t, store.StateError, sess.State)
	require.Equal(t, dialogue.SlotStatusFailed, sess.Slots.Status)
	require.Equal(t, "Launch call", sess.Slots.Title)

	// Retry goes straight back to creation: no questions are re-asked.
	cal.createErr = nil
	r = mgr.HandleMessage(ctx, "s1", "try again")
	require.True(t, r.Created)
	require.Len(t, cal.created, 1)
	require.NotContains(t, r.Text, "?")
}

func TestHandleMessageAuthErrorIsDistinct(t *testing.T) {
	full := dialogue.SlotUpdate{
		Title:           strPtr("Board meeting"),
		Start:           strPtr("2026-09-04T09:00:00"),
		DurationMinutes: intPtr(90),
		NoAttendees:     true,
	}
	ex := &scriptedExtractor{results: []*extractor.Result{update(full)}}
	cal := &fakeCalendar{createErr: &calendar.AuthError{Err: errors.New("token expired")}}
	mgr, _ := newTestManager(t, ex, cal)

	r := mgr.HandleMessage(context.Background(), "s1", "board meeting sep 4, 9am, 90 minutes, just me")
	require.False(t, r.Created)
	require.True(t, strings.Contains(r.Text, "re-authenticate"), "auth failures must be user-actionable: %s", r.Text)
}

func TestHandleMessageNewRequestAfterDone(t *testing.T) {
	first := dialogue.SlotUpdate{
		Title:           strPtr("A"),
		Start:           strPtr("2026-09-05T08:00:00"),
		DurationMinutes: intPtr(15),
		NoAttendees:     true,
	}
	ex := &scriptedExtractor{results: []*extractor.Result{
		update(first),
		update(dialogue.SlotUpdate{Start: strPtr("2026-09-06T08:00:00")}),
	}}
	mgr, st := newTestManager(t, ex, &fakeCalendar{})
	ctx := context.Background()

	r := mgr.HandleMessage(ctx, "s1", "A, sep 5 8am, 15 min, just me")
	require.True(t, r.Created)

	// The next message opens a fresh request in the same session.
	r = mgr.HandleMessage(ctx, "s1", "another one on the 6th at 8")
	require.False(t, r.Created)
	require.Contains(t, r.Text, "What should the event be called?")

	sess, _ := st.Get("s1")
	require.Equal(t, store.StateAwaitingInput, sess.State)
}
