package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/auth"
	"github.com/lalith-99/notevault/internal/httperr"
	"github.com/lalith-99/notevault/internal/models"
	"go.uber.org/zap"
)

// ContextKeyIdentity is where AuthMiddleware stores the resolved *models.User.
//
// Why store the whole user instead of user_id + tenant_id?
//   - The Gate re-reads the user on every request anyway (role and active
//     flag are never trusted from the token). Handlers reuse that row
//     instead of loading it a second time.
const ContextKeyIdentity = "identity"

// ContextKeyTokenExpiry holds the time.Time at which the caller's token
// stops being valid.
const ContextKeyTokenExpiry = "token_expiry"

// AuthMiddleware resolves the bearer token into an identity.
//
// On failure it aborts with the status the error maps to (403 with no
// token, 401 for a bad one, 400 for a deactivated account). The handler
// never runs.
func AuthMiddleware(gate *auth.Gate, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, expiresAt, err := gate.Session(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			httperr.Abort(c, logger, err)
			return
		}

		c.Set(ContextKeyIdentity, user)
		c.Set(ContextKeyTokenExpiry, expiresAt)
		c.Next()
	}
}

// QueryTokenFallback lets websocket clients, which can't set headers from
// a browser, pass the token as ?access_token=. It only fills in a missing
// Authorization header; it must run before AuthMiddleware.
func QueryTokenFallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if tok := c.Query("access_token"); tok != "" {
				c.Request.Header.Set("Authorization", "Bearer "+tok)
			}
		}
		c.Next()
	}
}

// GetIdentity returns the caller set by AuthMiddleware, or nil if the
// route isn't behind it.
func GetIdentity(c *gin.Context) *models.User {
	val, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetTokenExpiry returns the zero time when there is no identity.
func GetTokenExpiry(c *gin.Context) time.Time {
	return c.GetTime(ContextKeyTokenExpiry)
}

// GetUserID and GetTenantID return uuid.Nil when there is no identity.
// A query with uuid.Nil matches nothing.
func GetUserID(c *gin.Context) uuid.UUID {
	if u := GetIdentity(c); u != nil {
		return u.ID
	}
	return uuid.Nil
}

func GetTenantID(c *gin.Context) uuid.UUID {
	if u := GetIdentity(c); u != nil {
		return u.TenantID
	}
	return uuid.Nil
}
