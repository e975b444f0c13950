package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/auth"
	"github.com/lalith-99/notevault/internal/httperr"
	"github.com/lalith-99/notevault/internal/middleware"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/repository"
	"go.uber.org/zap"
)

type OrganizationHandler struct {
	gate    *auth.Gate
	prov    *auth.Provisioner
	tenants repository.TenantRepository
	users   repository.UserRepository
	logger  *zap.Logger
}

func NewOrganizationHandler(
	gate *auth.Gate,
	prov *auth.Provisioner,
	tenants repository.TenantRepository,
	users repository.UserRepository,
	logger *zap.Logger,
) *OrganizationHandler {
	return &OrganizationHandler{gate: gate, prov: prov, tenants: tenants, users: users, logger: logger}
}

type createOrganizationRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   *string `json:"description"`
	AdminEmail    string  `json:"admin_email" binding:"required,email"`
	AdminPassword string  `json:"admin_password" binding:"required"`
	AdminName     string  `json:"admin_name" binding:"required"`
}

// adminSummary is the slice of the admin user shown on an organization.
type adminSummary struct {
	ID    uuid.UUID   `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

type organizationResponse struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	AdminUser   *adminSummary `json:"admin_user"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func newOrganizationResponse(t *models.Tenant, admin *models.User) organizationResponse {
	resp := organizationResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if admin != nil {
		resp.AdminUser = &adminSummary{ID: admin.ID, Email: admin.Email, Name: admin.DisplayName, Role: admin.Role}
	}
	return resp
}

// Create handles POST /v1/organizations
//
// PUBLIC: this is how a new organization and its first admin come into
// existence. Both are created or neither is.
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, err.Error())
		return
	}

	tenant, admin, err := h.prov.CreateOrganization(c.Request.Context(), auth.OrganizationInput{
		Name:          req.Name,
		Description:   req.Description,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
		AdminName:     req.AdminName,
	})
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, newOrganizationResponse(tenant, admin))
}

// Get handles GET /v1/organizations/:org_id
func (h *OrganizationHandler) Get(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	if err := h.gate.RequireTenant(actor, c.Param("org_id")); err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	tenant, err := h.tenants.GetByID(c.Request.Context(), actor.TenantID)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	if tenant == nil {
		httperr.Abort(c, h.logger, auth.ErrNotFound)
		return
	}

	admin, err := h.users.FindAdmin(c.Request.Context(), tenant.ID)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newOrganizationResponse(tenant, admin))
}
