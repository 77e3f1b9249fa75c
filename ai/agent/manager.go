// Package agent drives the scheduling conversation. The Manager owns the
// per-turn state machine: it feeds each user message through the extractor,
// merges the result into the session's slot state, and either asks for the
// highest-priority missing field or hands the completed request to the
// calendar.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/schedsense/schedsense/ai/dialogue"
	"github.com/schedsense/schedsense/ai/extractor"
	"github.com/schedsense/schedsense/ai/internal/strutil"
	"github.com/schedsense/schedsense/ai/metrics"
	"github.com/schedsense/schedsense/plugin/calendar"
	"github.com/schedsense/schedsense/store"
)

// Extractor is the completion capability the manager consumes. It returns
// either a slot update or a conversational message, never both.
type Extractor interface {
	Extract(ctx context.Context, transcript []dialogue.Turn, missing []dialogue.Field) (*extractor.Result, error)
}

// Reply is the manager's answer to one user message.
type Reply struct {
	SessionID string
	Text      string
	Created   bool
	EventLink string
}

// Manager coordinates sessions, extraction, and calendar creation. One
// Manager serves all sessions; per-session ordering comes from the session
// lock.
type Manager struct {
	store    *store.SessionStore
	ex       Extractor
	calendar calendar.Service
	loc      *time.Location
	metrics  *metrics.PrometheusExporter
}

// NewManager wires the dialogue manager. metrics may be nil.
func NewManager(st *store.SessionStore, ex Extractor, cal calendar.Service, loc *time.Location, m *metrics.PrometheusExporter) *Manager {
	if loc == nil {
		loc = time.Local
	}
	return &Manager{store: st, ex: ex, calendar: cal, loc: loc, metrics: m}
}

// HandleMessage processes one user message and always produces a reply; every
// failure mode maps to a conversational answer rather than an error. Slot
// state survives transient failures, so a complete request can be retried
// without re-answering questions.
func (m *Manager) HandleMessage(ctx context.Context, sessionID, text string) *Reply {
	started := time.Now()

	sess := m.store.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()
	sess.Touch()
	m.metrics.SetActiveSessions(m.store.Len())

	// A finished request leaves the session in the done state; the next
	// message opens a fresh request on the same transcript.
	if sess.State == store.StateDone {
		sess.State = store.StateAwaitingInput
	}

	sess.Append(dialogue.UserTurn(text))
	slog.Debug("user message",
		"session_id", sessionID,
		"preview", strutil.Truncate(text, 80),
	)

	res, err := m.ex.Extract(ctx, sess.Transcript, sess.Slots.MissingRequiredFields())
	if err != nil {
		m.metrics.RecordExtraction("error")
		slog.Warn("extraction failed, staying in dialogue",
			"session_id", sessionID,
			"error", err,
		)
		return m.finish(sess, started, "extraction_error", recoveryReply(sess.Slots))
	}
	if res.Stats != nil {
		m.metrics.RecordLLMTokens(res.Stats.PromptTokens, res.Stats.CompletionTokens)
	}

	merged := false
	if res.Update != nil && !res.Update.IsEmpty() {
		m.metrics.RecordExtraction("update")
		if err := sess.Slots.Merge(*res.Update, m.loc); err != nil {
			var verr *dialogue.ValidationError
			if errors.As(err, &verr) {
				sess.State = store.StateAwaitingInput
				return m.finish(sess, started, "validation_error", correctionReply(verr))
			}
			slog.Error("slot merge failed", "session_id", sessionID, "error", err)
			sess.State = store.StateError
			return m.finish(sess, started, "internal_error", msgInternalError)
		}
		merged = true
	} else {
		m.metrics.RecordExtraction("message")
	}

	if missing := sess.Slots.MissingRequiredFields(); len(missing) > 0 {
		sess.State = store.StateAwaitingInput
		return m.finish(sess, started, "question", questionReply(res.Message, merged, missing[0]))
	}

	return m.createEvent(ctx, sess, started)
}

// createEvent runs the completion half of the state machine: the slot set is
// full, so build the request and call the calendar. The slot set is kept on
// failure and reset only after confirmed creation.
func (m *Manager) createEvent(ctx context.Context, sess *store.Session, started time.Time) *Reply {
	sess.State = store.StateComplete

	req, err := sess.Slots.ToEventRequest()
	if err != nil {
		// Unreachable when the missing-fields check above holds; treat as an
		// internal fault, not a user problem.
		slog.Error("complete slot set failed to build event request",
			"session_id", sess.ID,
			"error", err,
		)
		sess.State = store.StateError
		return m.finish(sess, started, "internal_error", msgInternalError)
	}

	sess.State = store.StateCreating
	created, err := m.calendar.CreateEvent(ctx, req)
	if err != nil {
		sess.Slots.Status = dialogue.SlotStatusFailed
		sess.State = store.StateError

		var (
			authErr     *calendar.AuthError
			rejectedErr *calendar.RejectedError
		)
		switch {
		case errors.As(err, &authErr):
			m.metrics.RecordEventCreation("auth_error")
			slog.Error("calendar auth failure", "session_id", sess.ID, "error", err)
			return m.finish(sess, started, "creation_failed", msgCalendarAuth)
		case errors.As(err, &rejectedErr):
			m.metrics.RecordEventCreation("rejected")
			slog.Warn("calendar rejected event", "session_id", sess.ID, "error", err)
			return m.finish(sess, started, "creation_failed", msgCalendarRejected)
		default:
			m.metrics.RecordEventCreation("remote_error")
			slog.Warn("calendar unavailable", "session_id", sess.ID, "error", err)
			return m.finish(sess, started, "creation_failed", msgCalendarRemote)
		}
	}

	m.metrics.RecordEventCreation("created")
	slog.Info("event created",
		"session_id", sess.ID,
		"event_id", created.ID,
		"title", req.Title,
		"start", req.Start,
	)

	sess.Slots.Status = dialogue.SlotStatusCreated
	text := confirmationReply(req, created, m.loc)

	// The request is finished; clear slot state so the session can take the
	// next one. The transcript stays for conversational continuity.
	sess.ResetSlots()
	sess.State = store.StateDone

	reply := m.finish(sess, started, "created", text)
	reply.Created = true
	reply.EventLink = created.HTMLLink
	return reply
}

// finish appends the assistant turn, records metrics, and builds the reply.
// Every HandleMessage path exits through here so the transcript always ends
// with the assistant.
func (m *Manager) finish(sess *store.Session, started time.Time, outcome, text string) *Reply {
	sess.Append(dialogue.AssistantTurn(text))
	m.metrics.RecordTurn(outcome, time.Since(started))
	slog.Info("chat turn",
		"session_id", sess.ID,
		"state", sess.State,
		"outcome", outcome,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return &Reply{SessionID: sess.ID, Text: text}
}
