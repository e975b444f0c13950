package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/repository"
	"github.com/lalith-99/notevault/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-signing-secret"

// fixture is one tenant with a user of each role, all with password
// "<role>-password", plus the wired core.
type fixture struct {
	store  *memory.Store
	hasher *Hasher
	codec  *TokenCodec
	authn  *Authenticator
	gate   *Gate
	prov   *Provisioner

	tenant *models.Tenant
	admin  *models.User
	writer *models.User
	reader *models.User
}

func newTestHasher() *Hasher {
	return NewHasher(bcrypt.MinCost, zap.NewNop())
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	f := &fixture{
		store:  store,
		hasher: newTestHasher(),
		codec:  NewTokenCodec(testSecret),
	}
	f.authn = NewAuthenticator(store.Users(), f.hasher, f.codec, 30*time.Minute, zap.NewNop())
	f.gate = NewGate(f.authn, store.Notes())
	f.prov = NewProvisioner(store.Tenants(), store.Users(), f.hasher, zap.NewNop())

	ctx := context.Background()
	tenant, admin, err := f.prov.CreateOrganization(ctx, OrganizationInput{
		Name:          "Prime Robotics",
		AdminEmail:    "admin@test.com",
		AdminPassword: "admin-password",
		AdminName:     "Admin",
	})
	require.NoError(t, err)
	f.tenant, f.admin = tenant, admin

	f.writer = f.addUser(t, tenant.ID, "writer@test.com", models.RoleWriter)
	f.reader = f.addUser(t, tenant.ID, "reader@test.com", models.RoleReader)
	return f
}

func (f *fixture) addUser(t *testing.T, tenantID uuid.UUID, email string, role models.Role) *models.User {
	t.Helper()
	u, err := f.prov.CreateIdentity(context.Background(), tenantID, IdentityInput{
		Email:       email,
		Password:    string(role) + "-password",
		DisplayName: string(role),
		Role:        role,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := f.codec.Mint(u.ID, u.TenantID, time.Minute)
	require.NoError(t, err)
	return tok
}

// failingUsers wraps a UserRepository and fails selected methods.
type failingUsers struct {
	repository.UserRepository
	failLookups bool
	failCreate  bool
	// raceDuplicate makes the email pre-check miss and the insert hit the
	// uniqueness constraint, as when two requests create the same user.
	raceDuplicate bool
}

var errStoreDown = errors.New("store unavailable")

func (f failingUsers) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	if f.failLookups {
		return nil, errStoreDown
	}
	if f.raceDuplicate {
		return nil, nil
	}
	return f.UserRepository.GetByEmail(ctx, tenantID, email)
}

func (f failingUsers) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*models.User, error) {
	if f.failLookups {
		return nil, errStoreDown
	}
	return f.UserRepository.GetByID(ctx, tenantID, userID)
}

func (f failingUsers) Create(ctx context.Context, p repository.CreateUserParams) (*models.User, error) {
	if f.failCreate {
		return nil, errStoreDown
	}
	if f.raceDuplicate {
		return nil, repository.ErrDuplicate
	}
	return f.UserRepository.Create(ctx, p)
}
