package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/notevault/internal/auth"
	"github.com/lalith-99/notevault/internal/httperr"
	"github.com/lalith-99/notevault/internal/middleware"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/repository"
	"go.uber.org/zap"
)

// UserHandler is user management inside one organization. Every route is
// admin-only and scoped to the admin's own organization by the Gate.
type UserHandler struct {
	gate   *auth.Gate
	prov   *auth.Provisioner
	users  repository.UserRepository
	logger *zap.Logger
}

func NewUserHandler(gate *auth.Gate, prov *auth.Provisioner, users repository.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{gate: gate, prov: prov, users: users, logger: logger}
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required,role"`
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

// Create handles POST /v1/organizations/:org_id/users
func (h *UserHandler) Create(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	if err := h.gate.AuthorizeTenant(actor, c.Param("org_id"), auth.UserCreate); err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, err.Error())
		return
	}

	user, err := h.prov.CreateIdentity(c.Request.Context(), actor.TenantID, auth.IdentityInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Name,
		Role:        models.Role(req.Role),
	})
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	h.logger.Info("user created",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("by", actor.ID.String()),
	)
	c.JSON(http.StatusCreated, user)
}

// List handles GET /v1/organizations/:org_id/users
func (h *UserHandler) List(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	if err := h.gate.AuthorizeTenant(actor, c.Param("org_id"), auth.UserList); err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	users, err := h.users.ListByTenant(c.Request.Context(), actor.TenantID)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateRole handles PUT /v1/organizations/:org_id/users/:user_id
func (h *UserHandler) UpdateRole(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	if err := h.gate.AuthorizeTenant(actor, c.Param("org_id"), auth.UserUpdateRole); err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	targetID, err := h.gate.AuthorizeUserTarget(actor, c.Param("user_id"))
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	ok, err := h.users.UpdateRole(ctx, actor.TenantID, targetID, models.Role(req.Role))
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	if !ok {
		httperr.Abort(c, h.logger, auth.ErrNotFound)
		return
	}

	user, err := h.users.GetByID(ctx, actor.TenantID, targetID)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	if user == nil {
		httperr.Abort(c, h.logger, auth.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /v1/organizations/:org_id/users/:user_id
func (h *UserHandler) Delete(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	if err := h.gate.AuthorizeTenant(actor, c.Param("org_id"), auth.UserDelete); err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	targetID, err := h.gate.AuthorizeUserTarget(actor, c.Param("user_id"))
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	deleted, err := h.users.Delete(c.Request.Context(), actor.TenantID, targetID)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	if !deleted {
		httperr.Abort(c, h.logger, auth.ErrNotFound)
		return
	}

	h.logger.Info("user deleted",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("user_id", targetID.String()),
		zap.String("by", actor.ID.String()),
	)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
