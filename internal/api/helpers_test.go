package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/notevault/internal/auth"
	"github.com/lalith-99/notevault/internal/events"
	"github.com/lalith-99/notevault/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
	bus    *events.LocalBus
	codec  *auth.TokenCodec
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	logger := zap.NewNop()
	hasher := auth.NewHasher(bcrypt.MinCost, logger)
	codec := auth.NewTokenCodec("api-test-secret")
	authn := auth.NewAuthenticator(store.Users(), hasher, codec, 30*time.Minute, logger)
	bus := events.NewLocalBus()

	router := NewRouter(Deps{
		Gate:        auth.NewGate(authn, store.Notes()),
		Authn:       authn,
		Provisioner: auth.NewProvisioner(store.Tenants(), store.Users(), hasher, logger),
		Tenants:     store.Tenants(),
		Users:       store.Users(),
		Notes:       store.Notes(),
		Bus:         bus,
		Logger:      logger,
	})
	return &testServer{t: t, router: router, store: store, bus: bus, codec: codec}
}

// do sends a JSON request. body may be nil; token may be empty.
func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type org struct {
	ID         string
	AdminID    string
	AdminToken string
}

// createOrg bootstraps an organization with admin "admin@<name>.io" /
// "admin-password" and logs the admin in.
func (s *testServer) createOrg(name string) org {
	s.t.Helper()

	w := s.do(http.MethodPost, "/v1/organizations", "", map[string]any{
		"name":           name,
		"admin_email":    "admin@" + name + ".io",
		"admin_password": "admin-password",
		"admin_name":     "Admin",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[struct {
		ID        string `json:"id"`
		AdminUser struct {
			ID string `json:"id"`
		} `json:"admin_user"`
	}](s.t, w)

	return org{
		ID:         resp.ID,
		AdminID:    resp.AdminUser.ID,
		AdminToken: s.login(resp.ID, "admin@"+name+".io", "admin-password"),
	}
}

func (s *testServer) login(orgID, email, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/v1/auth/login/"+orgID, "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[struct {
		AccessToken string `json:"access_token"`
	}](s.t, w).AccessToken
}

// addUser creates a user with password "<role>-password" and returns
// (id, token).
func (s *testServer) addUser(o org, email, role string) (string, string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/v1/organizations/"+o.ID+"/users", o.AdminToken, map[string]string{
		"email": email, "password": role + "-password", "name": role, "role": role,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[struct {
		ID string `json:"id"`
	}](s.t, w).ID
	return id, s.login(o.ID, email, role+"-password")
}

func (s *testServer) createNote(token, title string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/v1/notes", token, map[string]string{"title": title, "content": "body"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		ID string `json:"id"`
	}](s.t, w).ID
}
