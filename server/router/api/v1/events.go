package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/schedsense/schedsense/plugin/calendar"
)

type eventView struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Attendees []string `json:"attendees,omitempty"`
	HTMLLink  string   `json:"html_link,omitempty"`
}

type upcomingResponse struct {
	Events []eventView `json:"events"`
}

// UpcomingEvents lists calendar events starting within the next days
// (default 7, capped at 60).
func (s *APIV1Service) UpcomingEvents(c echo.Context) error {
	days := 7
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "days must be a positive integer"})
		}
		days = parsed
	}
	if days > 60 {
		days = 60
	}

	events, err := s.Calendar.ListUpcoming(c.Request().Context(), days, 50)
	if err != nil {
		var authErr *calendar.AuthError
		var remoteErr *calendar.RemoteError
		switch {
		case errors.As(err, &authErr):
			return c.JSON(http.StatusBadGateway, errorResponse{Error: "calendar authorization failed"})
		case errors.As(err, &remoteErr):
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "calendar temporarily unavailable"})
		default:
			return c.JSON(http.StatusBadGateway, errorResponse{Error: "calendar request failed"})
		}
	}

	views := make([]eventView, 0, len(events))
	loc := s.Profile.Location()
	for _, ev := range events {
		views = append(views, eventView{
			ID:        ev.ID,
			Title:     ev.Title,
			Start:     ev.Start.In(loc).Format(time.RFC3339),
			End:       ev.End.In(loc).Format(time.RFC3339),
			Attendees: ev.Attendees,
			HTMLLink:  ev.HTMLLink,
		})
	}
	return c.JSON(http.StatusOK, upcomingResponse{Events: views})
}
