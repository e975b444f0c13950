package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/notevault/internal/auth"
	"github.com/lalith-99/notevault/internal/events"
	"github.com/lalith-99/notevault/internal/httperr"
	"github.com/lalith-99/notevault/internal/middleware"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/repository"
	"go.uber.org/zap"
)

// NoteHandler is note CRUD. Every handler starts with a Gate call, and
// every repository call is scoped to the caller's tenant.
type NoteHandler struct {
	gate   *auth.Gate
	repo   repository.NoteRepository
	bus    events.Bus
	logger *zap.Logger
}

func NewNoteHandler(gate *auth.Gate, repo repository.NoteRepository, bus events.Bus, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{gate: gate, repo: repo, bus: bus, logger: logger}
}

type createNoteRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

type updateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Create handles POST /v1/notes
//
// The permission check runs before the body is even read: a reader gets
// 403 whatever they send.
func (h *NoteHandler) Create(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	if err := h.gate.Authorize(actor, auth.ActionCreate); err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, err.Error())
		return
	}

	note, err := h.repo.Create(c.Request.Context(), actor.TenantID, actor.ID, req.Title, req.Content)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	h.publish(c.Request.Context(), events.NewNoteEvent(events.NoteCreated, note, actor.ID))
	c.JSON(http.StatusCreated, note)
}

// List handles GET /v1/notes
func (h *NoteHandler) List(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	if err := h.gate.Authorize(actor, auth.ActionRead); err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	notes, err := h.repo.ListByTenant(c.Request.Context(), actor.TenantID)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// Get handles GET /v1/notes/:id
func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.gate.AuthorizeNote(c.Request.Context(), middleware.GetIdentity(c), auth.ActionRead, c.Param("id"))
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// Update handles PUT /v1/notes/:id
//
// Partial: only the fields present in the body change. An empty body
// returns the note unchanged.
func (h *NoteHandler) Update(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	note, err := h.gate.AuthorizeNote(c.Request.Context(), actor, auth.ActionUpdate, c.Param("id"))
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, err.Error())
		return
	}
	patch := models.NotePatch{Title: req.Title, Content: req.Content}
	if patch.Empty() {
		c.JSON(http.StatusOK, note)
		return
	}

	updated, err := h.repo.Update(c.Request.Context(), actor.TenantID, note.ID, patch)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	// Deleted by someone else between the gate and the update.
	if updated == nil {
		httperr.Abort(c, h.logger, auth.ErrNotFound)
		return
	}

	h.publish(c.Request.Context(), events.NewNoteEvent(events.NoteUpdated, updated, actor.ID))
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/notes/:id
func (h *NoteHandler) Delete(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	note, err := h.gate.AuthorizeNote(c.Request.Context(), actor, auth.ActionDelete, c.Param("id"))
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	deleted, err := h.repo.Delete(c.Request.Context(), actor.TenantID, note.ID)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	if !deleted {
		httperr.Abort(c, h.logger, auth.ErrNotFound)
		return
	}

	h.publish(c.Request.Context(), events.NewNoteEvent(events.NoteDeleted, note, actor.ID))
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

// publish is best effort. The write already happened; a missed event only
// means live subscribers see it on their next list.
func (h *NoteHandler) publish(ctx context.Context, ev events.Event) {
	if err := h.bus.Publish(context.WithoutCancel(ctx), ev); err != nil {
		h.logger.Warn("failed to publish note event",
			zap.String("type", ev.Type),
			zap.String("note_id", ev.NoteID.String()),
			zap.Error(err),
		)
	}
}
