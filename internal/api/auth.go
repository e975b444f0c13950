package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/auth"
	"github.com/lalith-99/notevault/internal/httperr"
	"github.com/lalith-99/notevault/internal/middleware"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/repository"
	"go.uber.org/zap"
)

// AuthHandler handles login and the caller's own account.
// Login is the only PUBLIC endpoint here; everything else runs behind
// AuthMiddleware.
type AuthHandler struct {
	authn   *auth.Authenticator
	tenants repository.TenantRepository
	logger  *zap.Logger
}

func NewAuthHandler(authn *auth.Authenticator, tenants repository.TenantRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authn: authn, tenants: tenants, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// loginResponse follows the OAuth2 bearer token shape.
// The client sends access_token back as "Authorization: Bearer <token>".
type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Login handles POST /v1/auth/login/:org_id
//
// Why is the organization in the path?
//   - Emails are unique per organization, not globally. The same address
//     can be two different users in two orgs, so the org picks which one.
//
// A malformed org_id gets the same 401 as a wrong password: callers can't
// probe which organization ids exist.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, err.Error())
		return
	}

	tenantID, err := uuid.Parse(c.Param("org_id"))
	if err != nil {
		httperr.Abort(c, h.logger, auth.ErrUnauthenticated)
		return
	}

	res, err := h.authn.Login(c.Request.Context(), req.Email, req.Password, tenantID)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		User:        res.User,
	})
}

// Me handles GET /v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetIdentity(c))
}

// MeWithOrg handles GET /v1/auth/me/with-org
func (h *AuthHandler) MeWithOrg(c *gin.Context) {
	user := middleware.GetIdentity(c)

	tenant, err := h.tenants.GetByID(c.Request.Context(), user.TenantID)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	var org gin.H
	if tenant != nil {
		org = gin.H{
			"id":          tenant.ID,
			"name":        tenant.Name,
			"description": tenant.Description,
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "organization": org})
}

// ChangePassword handles POST /v1/auth/change-password
//
// Existing tokens stay valid after a change: they carry no password
// material and there is no revocation list.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, err.Error())
		return
	}

	user := middleware.GetIdentity(c)
	if err := h.authn.ChangeSecret(c.Request.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
