// Package extractor adapts the text-completion capability into the dialogue
// core's vocabulary: given the transcript and the fields still missing from
// the current request, it returns either a partial slot update or a
// natural-language message with no update. It issues exactly one completion
// call per invocation.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/schedsense/schedsense/ai/core/llm"
	"github.com/schedsense/schedsense/ai/dialogue"
)

const extractToolName = "update_event_details"

// extractToolSchema mirrors dialogue.SlotUpdate. The model is steered to
// extract only what the user actually said; re-deriving state is the
// dialogue manager's job.
const extractToolSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "Event title, only if the user stated or revised it"},
    "start_time": {"type": "string", "description": "Start date and time in ISO 8601 (YYYY-MM-DDTHH:MM:SS), resolved against the time context"},
    "duration_minutes": {"type": "integer", "description": "Event duration in minutes"},
    "attendees": {"type": "array", "items": {"type": "string"}, "description": "Attendee email addresses"},
    "no_attendees": {"type": "boolean", "description": "True if the user said nobody else should be invited"}
  }
}`

// ExtractionError reports that the completion capability failed or produced
// output that cannot be mapped to a slot update. It is never surfaced to the
// end user as a hard failure; the manager treats it as "needs clarification".
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one extraction: either Update is non-nil (a
// partial slot update, possibly multi-field), or Message carries the model's
// conversational reply with no update.
type Result struct {
	Update *dialogue.SlotUpdate
	Message string
	Stats   *llm.CallStats
}

// Extractor wraps the completion service. A weighted semaphore bounds the
// number of in-flight completion calls across all sessions.
type Extractor struct {
	llm llm.Service
	loc *time.Location
	sem *semaphore.Weighted
}

// New creates an Extractor. maxConcurrent bounds concurrent completion calls.
func New(service llm.Service, loc *time.Location, maxConcurrent int64) *Extractor {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Extractor{
		llm: service,
		loc: loc,
		sem: semaphore.NewWeighted(maxConcurrent),
	}
}

// Extract runs one completion call over the transcript with a hint naming the
// still-missing fields.
func (e *Extractor) Extract(ctx context.Context, transcript []dialogue.Turn, missing []dialogue.Field) (*Result, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, &ExtractionError{Err: err}
	}
	defer e.sem.Release(1)

	messages := make([]llm.Message, 0, len(transcript)+1)
	messages = append(messages, llm.SystemPrompt(e.systemPrompt(missing)))
	for _, turn := range transcript {
		messages = append(messages, llm.Message{Role: string(turn.Role), Content: turn.Text})
	}

	tools := []llm.ToolDescriptor{{
		Name:        extractToolName,
		Description: "Record event details the user has provided. Call with every field the latest message specifies; omit fields the user did not mention.",
		Parameters:  extractToolSchema,
	}}

	resp, stats, err := e.llm.ChatWithTools(ctx, messages, tools)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	for _, call := range resp.ToolCalls {
		if call.Function.Name != extractToolName {
			continue
		}
		update, err := parseUpdate(call.Function.Arguments)
		if err != nil {
			return nil, &ExtractionError{Err: err}
		}
		return &Result{Update: update, Stats: stats}, nil
	}

	return &Result{Message: strings.TrimSpace(resp.Content), Stats: stats}, nil
}

func (e *Extractor) systemPrompt(missing []dialogue.Field) string {
	var b strings.Builder
	b.WriteString("You are the extraction component of a scheduling assistant.\n\n")
	b.WriteString("CURRENT TIME CONTEXT:\n")
	b.WriteString(BuildTimeContext(time.Now(), e.loc).FormatAsJSONBlock())
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Resolve relative dates (today, tomorrow, next Monday) against the time context above.\n")
	b.WriteString("- Scheduled times must be in the present or future, never the past.\n")
	b.WriteString("- When the latest user message provides event details, call " + extractToolName + " with exactly those fields. Multiple fields in one message are fine.\n")
	b.WriteString("- Never invent values the user did not state. Do not repeat fields that are already settled unless the user revised them.\n")
	b.WriteString("- If the message contains no scheduling details, reply briefly in plain text instead of calling the tool.\n")

	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = string(f)
		}
		fmt.Fprintf(&b, "\nStill missing for the current request: %s.\n", strings.Join(names, ", "))
	} else {
		b.WriteString("\nAll required fields are settled; only extract corrections.\n")
	}
	return b.String()
}

// parseUpdate maps the tool-call arguments onto a SlotUpdate. Arguments that
// are not valid JSON of the expected shape are an extraction failure.
func parseUpdate(arguments string) (*dialogue.SlotUpdate, error) {
	var raw struct {
		Title           *string  `json:"title"`
		StartTime       *string  `json:"start_time"`
		DurationMinutes *int     `json:"duration_minutes"`
		Attendees       []string `json:"attendees"`
		NoAttendees     bool     `json:"no_attendees"`
	}
	if err := json.Unmarshal([]byte(arguments), &raw); err != nil {
		return nil, fmt.Errorf("unmappable tool arguments: %w", err)
	}

	update := &dialogue.SlotUpdate{
		DurationMinutes: raw.DurationMinutes,
		Attendees:       raw.Attendees,
		NoAttendees:     raw.NoAttendees,
	}
	if raw.Title != nil && strings.TrimSpace(*raw.Title) != "" {
		update.Title = raw.Title
	}
	if raw.StartTime != nil && strings.TrimSpace(*raw.StartTime) != "" {
		update.Start = raw.StartTime
	}
	return update, nil
}
