// Package v1 exposes the assistant's REST API.
package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/schedsense/schedsense/ai/agent"
	"github.com/schedsense/schedsense/internal/profile"
	"github.com/schedsense/schedsense/plugin/calendar"
	"github.com/schedsense/schedsense/store"
)

// APIV1Service holds the services the v1 routes dispatch to.
type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.SessionStore
	Manager  *agent.Manager
	Calendar calendar.Service
}

// NewAPIV1Service wires the v1 API surface.
func NewAPIV1Service(prof *profile.Profile, st *store.SessionStore, mgr *agent.Manager, cal calendar.Service) *APIV1Service {
	return &APIV1Service{
		Profile:  prof,
		Store:    st,
		Manager:  mgr,
		Calendar: cal,
	}
}

// Register mounts the v1 routes on the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/chat", s.Chat)
	g.POST("/chat/clear", s.ClearChat)
	g.GET("/events/upcoming", s.UpcomingEvents)
}
