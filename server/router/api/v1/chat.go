package v1

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxMessageLength caps a single chat message. Anything longer is almost
// certainly not a scheduling request.
const maxMessageLength = 4000

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Created   bool   `json:"created,omitempty"`
	EventLink string `json:"event_link,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Chat processes one conversational turn. A missing session_id starts a new
// session; the minted identifier comes back in the response.
func (s *APIV1Service) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "message must not be empty"})
	}
	if len(message) > maxMessageLength {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "message too long"})
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess := s.Store.GetOrCreate(sessionID)
	if !sess.Allow() {
		return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "too many messages, slow down"})
	}

	reply := s.Manager.HandleMessage(c.Request().Context(), sessionID, message)
	return c.JSON(http.StatusOK, chatResponse{
		SessionID: reply.SessionID,
		Reply:     reply.Text,
		Created:   reply.Created,
		EventLink: reply.EventLink,
	})
}

type clearRequest struct {
	SessionID string `json:"session_id"`
}

type clearResponse struct {
	SessionID string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
}

// ClearChat resets a session's transcript and slot state. Clearing an unknown
// session is not an error; there is simply nothing to clear.
func (s *APIV1Service) ClearChat(c echo.Context) error {
	var req clearRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "session_id is required"})
	}

	cleared := false
	if sess, ok := s.Store.Get(req.SessionID); ok {
		sess.Lock()
		sess.Clear()
		sess.Unlock()
		cleared = true
	}
	return c.JSON(http.StatusOK, clearResponse{SessionID: req.SessionID, Cleared: cleared})
}
