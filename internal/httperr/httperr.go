// Package httperr maps auth and storage errors to HTTP responses.
//
// Why a package of its own?
//   - Both the auth middleware and the handlers in internal/api need the
//     same table. Keeping it here means a given error gets the same status
//     no matter which layer caught it.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/notevault/internal/auth"
	"go.uber.org/zap"
)

// Status returns the HTTP status for err. Anything not in the table is a
// server fault.
func Status(err error) int {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrInactiveAccount):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrAccessDenied), errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrDuplicateIdentity):
		return http.StatusConflict
	case errors.Is(err, auth.ErrCredentialTooLong),
		errors.Is(err, auth.ErrWrongSecret),
		errors.Is(err, auth.ErrInvalidRole):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Abort writes the error response and stops the handler chain.
//
// 5xx responses never echo err: it may carry SQL or driver details. The
// error is logged instead, with the route so it can be found.
func Abort(c *gin.Context, logger *zap.Logger, err error) {
	status := Status(err)

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// BadRequest is for input that failed binding or validation.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
