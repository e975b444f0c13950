// Package api is the HTTP surface. Handlers are thin: they bind input,
// call the auth Gate, call a repository, and map errors with httperr.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/notevault/internal/auth"
	"github.com/lalith-99/notevault/internal/events"
	"github.com/lalith-99/notevault/internal/middleware"
	"github.com/lalith-99/notevault/internal/repository"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps is everything the router wires into handlers.
// Health may be nil (memory store); the health check then always passes.
type Deps struct {
	Gate        *auth.Gate
	Authn       *auth.Authenticator
	Provisioner *auth.Provisioner

	Tenants repository.TenantRepository
	Users   repository.UserRepository
	Notes   repository.NoteRepository

	Bus    events.Bus
	Health func(ctx context.Context) error
	Logger *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
//
// Route groups:
//   - public: health, metrics, organization bootstrap, login
//   - authed: everything else, behind AuthMiddleware
func NewRouter(d Deps) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger), gin.Recovery())

	authH := NewAuthHandler(d.Authn, d.Tenants, d.Logger)
	orgH := NewOrganizationHandler(d.Gate, d.Provisioner, d.Tenants, d.Users, d.Logger)
	userH := NewUserHandler(d.Gate, d.Provisioner, d.Users, d.Logger)
	noteH := NewNoteHandler(d.Gate, d.Notes, d.Bus, d.Logger)
	streamH := NewStreamHandler(d.Gate, d.Bus, d.Logger)

	// Health check is PUBLIC so load balancers can probe it.
	r.GET("/v1/health", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(c.Request.Context()); err != nil {
				d.Logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.AuthMiddleware(d.Gate, d.Logger)

	v1 := r.Group("/v1")
	v1.POST("/organizations", orgH.Create)
	v1.POST("/auth/login/:org_id", authH.Login)

	// The stream route accepts ?access_token= because browsers can't set
	// headers on a websocket handshake.
	v1.GET("/notes/stream", middleware.QueryTokenFallback(), requireAuth, streamH.Stream)

	authed := v1.Group("")
	authed.Use(requireAuth)

	authed.GET("/auth/me", authH.Me)
	authed.GET("/auth/me/with-org", authH.MeWithOrg)
	authed.POST("/auth/change-password", authH.ChangePassword)

	authed.GET("/organizations/:org_id", orgH.Get)
	authed.POST("/organizations/:org_id/users", userH.Create)
	authed.GET("/organizations/:org_id/users", userH.List)
	authed.PUT("/organizations/:org_id/users/:user_id", userH.UpdateRole)
	authed.DELETE("/organizations/:org_id/users/:user_id", userH.Delete)

	authed.POST("/notes", noteH.Create)
	authed.GET("/notes", noteH.List)
	authed.GET("/notes/:id", noteH.Get)
	authed.PUT("/notes/:id", noteH.Update)
	authed.DELETE("/notes/:id", noteH.Delete)

	return r
}
