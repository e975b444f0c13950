package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuthenticator_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.authn.Login(ctx, "writer@test.com", "writer-password", f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, f.writer.ID, res.User.ID)

	resolved, err := f.authn.ResolveToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, f.tenant.ID, resolved.TenantID)
	assert.Equal(t, models.RoleWriter, resolved.Role)
}

func TestAuthenticator_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, wrongPassword := f.authn.Login(ctx, "writer@test.com", "not-the-password", f.tenant.ID)
	_, unknownEmail := f.authn.Login(ctx, "nobody@test.com", "writer-password", f.tenant.ID)
	_, otherTenant := f.authn.Login(ctx, "writer@test.com", "writer-password", uuid.New())

	for _, err := range []error{wrongPassword, unknownEmail, otherTenant} {
		require.ErrorIs(t, err, ErrUnauthenticated)
		assert.Equal(t, ErrUnauthenticated.Error(), err.Error())
	}
}

func TestAuthenticator_SameEmailInTwoTenants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, _, err := f.prov.CreateOrganization(ctx, OrganizationInput{
		Name:          "Other Org",
		AdminEmail:    "writer@test.com",
		AdminPassword: "different-password",
		AdminName:     "Other",
	})
	require.NoError(t, err)

	_, err = f.authn.Authenticate(ctx, "writer@test.com", "writer-password", other.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	u, err := f.authn.Authenticate(ctx, "writer@test.com", "different-password", other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.NotEqual(t, f.writer.ID, u.ID)
}

func TestAuthenticator_LookupFaultIsUnauthenticated(t *testing.T) {
	f := newFixture(t)
	authn := NewAuthenticator(failingUsers{UserRepository: f.store.Users(), failLookups: true},
		f.hasher, f.codec, time.Minute, zap.NewNop())

	_, err := authn.Authenticate(context.Background(), "admin@test.com", "admin-password", f.tenant.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = authn.ResolveToken(context.Background(), f.tokenFor(t, f.admin))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticator_ResolveToken(t *testing.T) {
	ctx := context.Background()

	t.Run("forged tenant claim", func(t *testing.T) {
		f := newFixture(t)
		tok, err := f.codec.Mint(f.writer.ID, uuid.New(), time.Minute)
		require.NoError(t, err)

		_, err = f.authn.ResolveToken(ctx, tok)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("deleted identity", func(t *testing.T) {
		f := newFixture(t)
		tok := f.tokenFor(t, f.reader)
		_, err := f.store.Users().Delete(ctx, f.tenant.ID, f.reader.ID)
		require.NoError(t, err)

		_, err = f.authn.ResolveToken(ctx, tok)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("inactive identity", func(t *testing.T) {
		f := newFixture(t)
		tok := f.tokenFor(t, f.reader)
		require.True(t, f.store.SetActive(f.reader.ID, false))

		_, err := f.authn.ResolveToken(ctx, tok)
		assert.ErrorIs(t, err, ErrInactiveAccount)
		assert.NotErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("role is re-read, not trusted from the token", func(t *testing.T) {
		f := newFixture(t)
		tok := f.tokenFor(t, f.writer)
		_, err := f.store.Users().UpdateRole(ctx, f.tenant.ID, f.writer.ID, models.RoleReader)
		require.NoError(t, err)

		u, err := f.authn.ResolveToken(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, models.RoleReader, u.Role)
	})
}

func TestAuthenticator_ChangeSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.authn.ChangeSecret(ctx, f.writer, "wrong-current", "brand-new-password")
	assert.ErrorIs(t, err, ErrWrongSecret)

	err = f.authn.ChangeSecret(ctx, f.writer, "writer-password", string(make([]byte, 80)))
	assert.ErrorIs(t, err, ErrCredentialTooLong)

	require.NoError(t, f.authn.ChangeSecret(ctx, f.writer, "writer-password", "brand-new-password"))

	_, err = f.authn.Authenticate(ctx, "writer@test.com", "writer-password", f.tenant.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.authn.Authenticate(ctx, "writer@test.com", "brand-new-password", f.tenant.ID)
	assert.NoError(t, err)
}
