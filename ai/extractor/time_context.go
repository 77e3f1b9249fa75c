package extractor

import (
	"encoding/json"
	"time"
)

// TimeContext is structured time metadata injected into the extraction
// prompt so the model can resolve relative dates ("tomorrow", "next Monday")
// against the server's clock. JSON parses more reliably than free-form text.
type TimeContext struct {
	Current  CurrentTime   `json:"current"`
	Relative RelativeDates `json:"relative"`
}

// CurrentTime is the current time information.
type CurrentTime struct {
	Date     string `json:"date"`     // 2026-08-28
	Time     string `json:"time"`     // 15:04:05
	Weekday  string `json:"weekday"`  // Friday
	Timezone string `json:"timezone"` // Europe/Berlin
}

// RelativeDates lists commonly referenced relative dates.
type RelativeDates struct {
	Today            string `json:"today"`
	Tomorrow         string `json:"tomorrow"`
	DayAfterTomorrow string `json:"day_after_tomorrow"`
	ThisWeekEnd      string `json:"this_week_end"` // Sunday of this week
	NextWeekStart    string `json:"next_week_start"`
}

// BuildTimeContext creates the time context for the given location, anchored
// at now.
func BuildTimeContext(now time.Time, loc *time.Location) *TimeContext {
	now = now.In(loc)

	// ISO week: Monday=1, Sunday=7.
	weekday := now.Weekday()
	var daysSinceMonday int
	if weekday == time.Sunday {
		daysSinceMonday = 6
	} else {
		daysSinceMonday = int(weekday - time.Monday)
	}
	thisWeekMonday := now.AddDate(0, 0, -daysSinceMonday)

	const day = "2006-01-02"
	return &TimeContext{
		Current: CurrentTime{
			Date:     now.Format(day),
			Time:     now.Format("15:04:05"),
			Weekday:  now.Format("Monday"),
			Timezone: loc.String(),
		},
		Relative: RelativeDates{
			Today:            now.Format(day),
			Tomorrow:         now.AddDate(0, 0, 1).Format(day),
			DayAfterTomorrow: now.AddDate(0, 0, 2).Format(day),
			ThisWeekEnd:      thisWeekMonday.AddDate(0, 0, 6).Format(day),
			NextWeekStart:    thisWeekMonday.AddDate(0, 0, 7).Format(day),
		},
	}
}

// FormatAsJSONBlock formats the time context as a JSON code block.
func (tc *TimeContext) FormatAsJSONBlock() string {
	data, err := json.MarshalIndent(tc, "", "  ")
	if err != nil {
		return "```json\n{}\n```"
	}
	return "```json\n" + string(data) + "\n```"
}
