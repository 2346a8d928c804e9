// Package server exposes the planner over an HTTP JSON API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"weekplanner/internal/model"
	"weekplanner/internal/service"
	"weekplanner/internal/week"
)

// Planner is the service surface the HTTP handlers drive.
type Planner interface {
	Week(ctx context.Context, anchor time.Time) (week.View, error)
	CreateTask(ctx context.Context, in service.CreateInput) (model.Task, error)
	UpdateText(ctx context.Context, id, text string) error
	SetNotes(ctx context.Context, id, notes string) error
	SetURL(ctx context.Context, id, url string) error
	DeleteTask(ctx context.Context, id string) error
	ToggleTask(ctx context.Context, ref model.OccurrenceRef) error
	ToggleSubItem(ctx context.Context, ref model.OccurrenceRef) error
	SetRepeat(ctx context.Context, id string, freq model.Frequency) error
	ClearRepeat(ctx context.Context, id string) error
	MoveTask(ctx context.Context, id string, target service.MoveTarget) error
	MoveOccurrence(ctx context.Context, ref model.OccurrenceRef, target service.MoveTarget) (model.Task, error)
	BulkComplete(ctx context.Context, refs []model.OccurrenceRef) error
	BulkMove(ctx context.Context, ids []string, target service.MoveTarget) error
	BulkRepeat(ctx context.Context, ids []string, freq model.Frequency) error
	BulkDelete(ctx context.Context, ids []string) error
}

// Server routes API requests to a Planner.
type Server struct {
	planner Planner
	router  *gin.Engine
	now     func() time.Time
}

// New builds the router. token, when non-empty, is required as a bearer
// token on every /api route.
func New(planner Planner, token string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		planner: planner,
		router:  router,
		now:     time.Now,
	}

	api := router.Group("/api")
	if token != "" {
		api.Use(bearerAuth(token))
	}
	{
		api.GET("/week", s.handleWeek)

		api.POST("/tasks", s.handleCreateTask)
		api.PATCH("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/toggle", s.handleToggleTask)
		api.POST("/tasks/:id/move", s.handleMoveTask)
		api.POST("/tasks/:id/repeat", s.handleSetRepeat)
		api.DELETE("/tasks/:id/repeat", s.handleClearRepeat)

		api.POST("/subitems/:id/toggle", s.handleToggleSubItem)

		api.POST("/bulk/complete", s.handleBulkComplete)
		api.POST("/bulk/move", s.handleBulkMove)
		api.POST("/bulk/repeat", s.handleBulkRepeat)
		api.POST("/bulk/delete", s.handleBulkDelete)
	}

	router.GET("/healthz", s.handleHealth)

	return s
}

// Run starts the HTTP server on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for callers that manage the listener
// themselves, such as graceful shutdown wiring and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
