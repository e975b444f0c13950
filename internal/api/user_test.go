package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserManagement_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	o := s.createOrg("acme")
	writerID, writerToken := s.addUser(o, "writer@acme.io", "writer")
	_, readerToken := s.addUser(o, "reader@acme.io", "reader")

	for _, token := range []string{writerToken, readerToken} {
		w := s.do(http.MethodGet, "/v1/organizations/"+o.ID+"/users", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.do(http.MethodPost, "/v1/organizations/"+o.ID+"/users", token, map[string]string{
			"email": "x@acme.io", "password": "pw", "name": "x", "role": "reader",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.do(http.MethodPut, "/v1/organizations/"+o.ID+"/users/"+writerID, token, map[string]string{"role": "admin"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	}

	w := s.do(http.MethodGet, "/v1/organizations/"+o.ID+"/users", o.AdminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]map[string]any](t, w)
	assert.Len(t, users, 3)
	assert.Equal(t, o.AdminID, users[0]["id"])
}

func TestCreateUser(t *testing.T) {
	s := newTestServer(t)
	o := s.createOrg("acme")
	s.addUser(o, "writer@acme.io", "writer")

	tests := []struct {
		name string
		body map[string]string
		code int
	}{
		{"duplicate email", map[string]string{"email": "WRITER@acme.io", "password": "pw", "name": "w", "role": "reader"}, http.StatusConflict},
		{"unknown role", map[string]string{"email": "new@acme.io", "password": "pw", "name": "n", "role": "owner"}, http.StatusBadRequest},
		{"missing password", map[string]string{"email": "new@acme.io", "name": "n", "role": "reader"}, http.StatusBadRequest},
		{"created", map[string]string{"email": "new@acme.io", "password": "pw", "name": "n", "role": "reader"}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/v1/organizations/"+o.ID+"/users", o.AdminToken, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestCreateUser_SameEmailOtherOrg(t *testing.T) {
	s := newTestServer(t)
	acme := s.createOrg("acme")
	other := s.createOrg("other")

	s.addUser(acme, "shared@mail.io", "writer")
	s.addUser(other, "shared@mail.io", "reader")
}

func TestUserManagement_OtherTenantPath(t *testing.T) {
	s := newTestServer(t)
	acme := s.createOrg("acme")
	other := s.createOrg("other")
	otherWriterID, _ := s.addUser(other, "writer@other.io", "writer")

	w := s.do(http.MethodGet, "/v1/organizations/"+other.ID+"/users", acme.AdminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/v1/organizations/"+other.ID+"/users/"+otherWriterID, acme.AdminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Through our own path, a user of another tenant simply doesn't exist.
	w = s.do(http.MethodDelete, "/v1/organizations/"+acme.ID+"/users/"+otherWriterID, acme.AdminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateRole(t *testing.T) {
	s := newTestServer(t)
	o := s.createOrg("acme")
	writerID, writerToken := s.addUser(o, "writer@acme.io", "writer")
	path := "/v1/organizations/" + o.ID + "/users/"

	w := s.do(http.MethodPut, path+writerID, o.AdminToken, map[string]string{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, path+uuid.NewString(), o.AdminToken, map[string]string{"role": "reader"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, path+writerID, o.AdminToken, map[string]string{"role": "reader"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reader", decode[map[string]any](t, w)["role"])

	// The role is re-read on every request, so the old token is demoted too.
	w = s.do(http.MethodPost, "/v1/notes", writerToken, map[string]string{"title": "t"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSelfModificationLockout(t *testing.T) {
	s := newTestServer(t)
	o := s.createOrg("acme")
	path := "/v1/organizations/" + o.ID + "/users/" + o.AdminID

	w := s.do(http.MethodPut, path, o.AdminToken, map[string]string{"role": "reader"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, path, o.AdminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/v1/auth/me", o.AdminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", decode[map[string]any](t, w)["role"])
}

func TestDeleteUser(t *testing.T) {
	s := newTestServer(t)
	o := s.createOrg("acme")
	readerID, readerToken := s.addUser(o, "reader@acme.io", "reader")
	path := "/v1/organizations/" + o.ID + "/users/" + readerID

	w := s.do(http.MethodDelete, path, o.AdminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, path, o.AdminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/v1/notes", readerToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
