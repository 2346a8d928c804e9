package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"weekplanner/internal/dates"
	"weekplanner/internal/model"
	"weekplanner/internal/service"
	"weekplanner/internal/storage"
)

func bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if got != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or missing bearer token",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleWeek(c *gin.Context) {
	anchor := s.now()
	if raw := c.Query("anchor"); raw != "" {
		key, err := dates.ParseKey(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		anchor = key.Time(anchor.Location())
	}

	view, err := s.planner.Week(c.Request.Context(), anchor)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"start":   dates.Key(view.Window.Start()),
		"end":     dates.Key(view.Window.End()),
		"week":    view,
	})
}

type createTaskRequest struct {
	Text     string `json:"text"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
	Bucket   string `json:"bucket"`
	Anchor   string `json:"anchor"`
	ParentID string `json:"parent_id"`
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	bucket, err := model.ParseBucket(req.Bucket)
	if err != nil {
		badRequest(c, err)
		return
	}

	anchor := s.now()
	if req.Anchor != "" {
		key, err := dates.ParseKey(req.Anchor)
		if err != nil {
			badRequest(c, err)
			return
		}
		anchor = key.Time(anchor.Location())
	}

	task, err := s.planner.CreateTask(c.Request.Context(), service.CreateInput{
		Text:     req.Text,
		URL:      req.URL,
		Notes:    req.Notes,
		Bucket:   bucket,
		Anchor:   anchor,
		ParentID: req.ParentID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"task":    task,
	})
}

type updateTaskRequest struct {
	Text  *string `json:"text"`
	Notes *string `json:"notes"`
	URL   *string `json:"url"`
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id := c.Param("id")

	var req updateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if req.Text != nil {
		if err := s.planner.UpdateText(ctx, id, *req.Text); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.Notes != nil {
		if err := s.planner.SetNotes(ctx, id, *req.Notes); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.URL != nil {
		if err := s.planner.SetURL(ctx, id, *req.URL); err != nil {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id := c.Param("id")
	if err := s.planner.DeleteTask(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// occurrenceRef reads the ?date= query into an occurrence reference. The
// date defaults to today so direct items toggle without one.
func (s *Server) occurrenceRef(c *gin.Context) (model.OccurrenceRef, error) {
	day := dates.Key(s.now())
	if raw := c.Query("date"); raw != "" {
		key, err := dates.ParseKey(raw)
		if err != nil {
			return model.OccurrenceRef{}, err
		}
		day = key
	}
	return model.OccurrenceRef{TaskID: c.Param("id"), Day: day}, nil
}

func (s *Server) handleToggleTask(c *gin.Context) {
	ref, err := s.occurrenceRef(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.planner.ToggleTask(c.Request.Context(), ref); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task_id": ref.TaskID, "date": ref.Day})
}

func (s *Server) handleToggleSubItem(c *gin.Context) {
	ref, err := s.occurrenceRef(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.planner.ToggleSubItem(c.Request.Context(), ref); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sub_item_id": ref.TaskID, "date": ref.Day})
}

type moveRequest struct {
	Target string `json:"target"`
	// Date, when set, moves only that occurrence of a recurring task by
	// forking it into a standalone copy.
	Date string `json:"date"`
}

func (s *Server) handleMoveTask(c *gin.Context) {
	id := c.Param("id")

	var req moveRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	target, err := service.ParseMoveTarget(req.Target)
	if err != nil {
		badRequest(c, err)
		return
	}

	if req.Date != "" {
		day, err := dates.ParseKey(req.Date)
		if err != nil {
			badRequest(c, err)
			return
		}
		ref := model.OccurrenceRef{TaskID: id, Day: day}
		fork, err := s.planner.MoveOccurrence(c.Request.Context(), ref, target)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "task": fork})
		return
	}

	if err := s.planner.MoveTask(c.Request.Context(), id, target); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

type repeatRequest struct {
	Frequency string `json:"frequency"`
}

func (s *Server) handleSetRepeat(c *gin.Context) {
	id := c.Param("id")

	var req repeatRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	freq, err := model.ParseFrequency(req.Frequency)
	if err != nil {
		badRequest(c, err)
		return
	}

	if err := s.planner.SetRepeat(c.Request.Context(), id, freq); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id, "frequency": freq})
}

func (s *Server) handleClearRepeat(c *gin.Context) {
	id := c.Param("id")
	if err := s.planner.ClearRepeat(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

type bulkRefsRequest struct {
	Refs []struct {
		TaskID string `json:"task_id"`
		Day    string `json:"day"`
	} `json:"refs"`
}

func (s *Server) handleBulkComplete(c *gin.Context) {
	var req bulkRefsRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	refs := make([]model.OccurrenceRef, 0, len(req.Refs))
	for _, r := range req.Refs {
		day, err := dates.ParseKey(r.Day)
		if err != nil {
			badRequest(c, err)
			return
		}
		refs = append(refs, model.OccurrenceRef{TaskID: r.TaskID, Day: day})
	}

	if err := s.planner.BulkComplete(c.Request.Context(), refs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(refs)})
}

type bulkIDsRequest struct {
	IDs       []string `json:"ids"`
	Target    string   `json:"target"`
	Frequency string   `json:"frequency"`
}

func (s *Server) handleBulkMove(c *gin.Context) {
	var req bulkIDsRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	target, err := service.ParseMoveTarget(req.Target)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.planner.BulkMove(c.Request.Context(), req.IDs, target); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(req.IDs)})
}

func (s *Server) handleBulkRepeat(c *gin.Context) {
	var req bulkIDsRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	freq, err := model.ParseFrequency(req.Frequency)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.planner.BulkRepeat(c.Request.Context(), req.IDs, freq); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(req.IDs)})
}

func (s *Server) handleBulkDelete(c *gin.Context) {
	var req bulkIDsRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.planner.BulkDelete(c.Request.Context(), req.IDs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(req.IDs)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}

func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
}

// writeError maps service and storage errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, service.ErrNotRecurring),
		errors.Is(err, service.ErrSubItemRepeat),
		errors.Is(err, service.ErrBankRepeat),
		errors.Is(err, service.ErrBankMove),
		errors.Is(err, service.ErrNoOccurrence),
		isValidationError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": err.Error()})
	default:
		serverError(c, err)
	}
}

// Model validation failures all carry the package prefix.
func isValidationError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "model:")
}
