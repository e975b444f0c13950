package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/auth"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.TokenCodec, *memory.Store, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	hasher := auth.NewHasher(bcrypt.MinCost, zap.NewNop())
	codec := auth.NewTokenCodec("middleware-test-secret")
	authn := auth.NewAuthenticator(store.Users(), hasher, codec, time.Minute, zap.NewNop())
	gate := auth.NewGate(authn, store.Notes())
	prov := auth.NewProvisioner(store.Tenants(), store.Users(), hasher, zap.NewNop())

	_, admin, err := prov.CreateOrganization(context.Background(), auth.OrganizationInput{
		Name: "Acme", AdminEmail: "a@acme.io", AdminPassword: "password",
	})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/whoami", QueryTokenFallback(), AuthMiddleware(gate, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":        GetUserID(c),
			"tenant_id": GetTenantID(c),
			"role":      GetIdentity(c).Role,
			"expires":   GetTokenExpiry(c).Unix(),
		})
	})
	return r, codec, store, admin
}

func TestAuthMiddleware(t *testing.T) {
	r, codec, store, admin := newTestRouter(t)
	token, err := codec.Mint(admin.ID, admin.TenantID, time.Minute)
	require.NoError(t, err)

	do := func(target, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	ident, err := codec.Verify(token)
	require.NoError(t, err)

	w := do("/whoami", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), admin.ID.String())
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"expires":%d`, ident.ExpiresAt.Unix()))
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	w = do("/whoami?access_token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do("/whoami", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do("/whoami", "Token "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do("/whoami", "Bearer "+token+"x")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	require.True(t, store.SetActive(admin.ID, false))
	w = do("/whoami", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetIdentity_Absent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetIdentity(c))
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", GetUserID(c).String())

	c.Set(ContextKeyIdentity, "not a user")
	assert.Nil(t, GetIdentity(c))
	assert.True(t, GetTokenExpiry(c).IsZero())
}

func TestRequestLogger_TagsCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	user := &models.User{ID: uuid.New(), TenantID: uuid.New()}
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/anon", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/authed", func(c *gin.Context) {
		c.Set(ContextKeyIdentity, user)
		c.Status(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/anon", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/authed", nil))

	entries := logs.All()
	require.Len(t, entries, 2)

	anon := entries[0].ContextMap()
	assert.NotContains(t, anon, "user_id")
	assert.NotContains(t, anon, "tenant_id")
	assert.Equal(t, zap.InfoLevel, entries[0].Level)

	authed := entries[1].ContextMap()
	assert.Equal(t, user.ID.String(), authed["user_id"])
	assert.Equal(t, user.TenantID.String(), authed["tenant_id"])
	assert.Equal(t, int64(http.StatusNotFound), authed["status"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}
