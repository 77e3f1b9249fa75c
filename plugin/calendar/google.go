package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/schedsense/schedsense/ai/dialogue"
)

const (
	credentialsFile = "credentials.json"

	// Timeout for a single provider call. A timeout maps to RemoteError and
	// must leave the caller's slot state untouched.
	requestTimeout = 15 * time.Second
)

// GoogleClient implements Service against the Google Calendar API.
type GoogleClient struct {
	service    *calendarapi.Service
	calendarID string
}

// NewGoogleClient creates an authenticated Google Calendar client from a
// previously stored token file. Token acquisition is the auth command's job;
// here a missing or unreadable token is a hard startup error.
func NewGoogleClient(ctx context.Context, clientID, clientSecret, tokenFile, calendarID string) (*GoogleClient, error) {
	config, err := OAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token from %s: %w (run the 'auth' command first)", tokenFile, err)
	}

	service, err := calendarapi.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleClient{service: service, calendarID: calendarID}, nil
}

// CreateEvent inserts the event on the configured calendar and returns the
// provider's reference link.
func (c *GoogleClient) CreateEvent(ctx context.Context, req *dialogue.EventRequest) (*CreatedEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	event := &calendarapi.Event{
		Summary: req.Title,
		Start: &calendarapi.EventDateTime{
			DateTime: req.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendarapi.EventDateTime{
			DateTime: req.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}
	for _, email := range req.Attendees {
		event.Attendees = append(event.Attendees, &calendarapi.EventAttendee{Email: email})
	}

	created, err := c.service.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		mapped := mapGoogleError(err)
		var authErr *AuthError
		if errors.As(mapped, &authErr) {
			// Auth failures also go to the operational channel.
			slog.Error("calendar credentials rejected", "calendar_id", c.calendarID, "error", err)
		}
		return nil, mapped
	}

	slog.Info("calendar event created",
		"calendar_id", c.calendarID,
		"event_id", created.Id,
		"title", created.Summary,
	)

	start, _ := time.Parse(time.RFC3339, created.Start.DateTime)
	end, _ := time.Parse(time.RFC3339, created.End.DateTime)
	return &CreatedEvent{
		ID:       created.Id,
		HTMLLink: created.HtmlLink,
		Title:    created.Summary,
		Start:    start,
		End:      end,
	}, nil
}

// ListUpcoming fetches events starting within the next days, ordered by
// start time.
func (c *GoogleClient) ListUpcoming(ctx context.Context, days, maxResults int) ([]*Event, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if days <= 0 {
		days = 7
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	now := time.Now().UTC()

	result, err := c.service.Events.List(c.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.Add(time.Duration(days) * 24 * time.Hour).Format(time.RFC3339)).
		MaxResults(int64(maxResults)).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapGoogleError(err)
	}

	events := make([]*Event, 0, len(result.Items))
	for _, item := range result.Items {
		// All-day events carry a date instead of a dateTime; skip them, the
		// assistant only schedules timed events.
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}
		start, _ := time.Parse(time.RFC3339, item.Start.DateTime)
		end, _ := time.Parse(time.RFC3339, item.End.DateTime)

		var attendees []string
		for _, a := range item.Attendees {
			attendees = append(attendees, a.Email)
		}
		events = append(events, &Event{
			ID:        item.Id,
			Title:     item.Summary,
			Start:     start,
			End:       end,
			Attendees: attendees,
			HTMLLink:  item.HtmlLink,
		})
	}
	return events, nil
}

// mapGoogleError translates provider failures into the adapter's error
// vocabulary: credential problems, transient failures, and semantic
// rejections must stay distinguishable for the dialogue manager.
func mapGoogleError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401 || gerr.Code == 403:
			return &AuthError{Err: err}
		case gerr.Code == 429 || gerr.Code >= 500:
			return &RemoteError{Err: err}
		default:
			return &RejectedError{Err: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &RemoteError{Err: err}
	}
	return &RemoteError{Err: err}
}

// OAuthConfig builds the OAuth2 config from explicit client credentials or,
// failing that, a local credentials.json.
func OAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendarapi.CalendarScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("no client credentials: set GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET or provide %s: %w", credentialsFile, err)
	}
	config, err := google.ConfigFromJSON(b, calendarapi.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", credentialsFile, err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob"
	return config, nil
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// SaveToken writes a token to path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}
