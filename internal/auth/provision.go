package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/repository"
	"go.uber.org/zap"
)

// OrganizationInput is everything needed to bootstrap a tenant.
type OrganizationInput struct {
	Name          string
	Description   *string
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// IdentityInput is an admin-provisioned user.
type IdentityInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        models.Role
}

// Provisioner creates tenants and identities. It is the only code path
// that writes password digests for new users, so the 72-byte policy and
// the duplicate-email mapping live here.
type Provisioner struct {
	tenants repository.TenantRepository
	users   repository.UserRepository
	hasher  *Hasher
	logger  *zap.Logger
}

func NewProvisioner(
	tenants repository.TenantRepository,
	users repository.UserRepository,
	hasher *Hasher,
	logger *zap.Logger,
) *Provisioner {
	return &Provisioner{
		tenants: tenants,
		users:   users,
		hasher:  hasher,
		logger:  logger,
	}
}

// CreateOrganization creates a tenant and its bootstrap admin as one
// logical unit.
//
// There is no transaction spanning the two inserts. If the admin insert
// fails, the tenant is deleted again (compensating delete). If the
// process dies between the two steps, an orphan tenant is left behind:
// a known gap, logged loudly when the compensation itself fails.
//
// The password is validated and hashed BEFORE the tenant exists, so
// input errors never need a rollback.
func (p *Provisioner) CreateOrganization(ctx context.Context, in OrganizationInput) (*models.Tenant, *models.User, error) {
	if err := CheckSecretLength(in.AdminPassword); err != nil {
		return nil, nil, err
	}
	digest, err := p.hasher.Hash(in.AdminPassword)
	if err != nil {
		return nil, nil, err
	}

	tenant, err := p.tenants.Create(ctx, in.Name, in.Description)
	if err != nil {
		return nil, nil, fmt.Errorf("create tenant: %w", err)
	}

	admin, err := p.users.Create(ctx, repository.CreateUserParams{
		TenantID:     tenant.ID,
		Email:        in.AdminEmail,
		DisplayName:  in.AdminName,
		PasswordHash: digest,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		p.rollbackTenant(ctx, tenant.ID, err)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrDuplicateIdentity
		}
		return nil, nil, fmt.Errorf("create admin user: %w", err)
	}

	p.logger.Info("organization created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("admin_id", admin.ID.String()),
	)
	return tenant, admin, nil
}

// rollbackTenant runs on a context detached from the request's
// cancellation: a client hanging up must not leave the tenant behind.
func (p *Provisioner) rollbackTenant(ctx context.Context, tenantID uuid.UUID, cause error) {
	deleted, err := p.tenants.Delete(context.WithoutCancel(ctx), tenantID)
	if err != nil || !deleted {
		p.logger.Error("orphaned tenant: rollback after admin creation failure did not delete it",
			zap.String("tenant_id", tenantID.String()),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}
	p.logger.Warn("organization bootstrap rolled back",
		zap.String("tenant_id", tenantID.String()),
		zap.NamedError("cause", cause),
	)
}

// CreateIdentity provisions a user in tenantID. Authorization (admin of
// that tenant) is the caller's job via Gate.AuthorizeTenant.
//
// The email pre-check gives a clean error in the common case; the storage
// uniqueness constraint is still the final word when two requests race.
func (p *Provisioner) CreateIdentity(ctx context.Context, tenantID uuid.UUID, in IdentityInput) (*models.User, error) {
	if !in.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	if err := CheckSecretLength(in.Password); err != nil {
		return nil, err
	}

	existing, err := p.users.GetByEmail(ctx, tenantID, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateIdentity
	}

	digest, err := p.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := p.users.Create(ctx, repository.CreateUserParams{
		TenantID:     tenantID,
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: digest,
		Role:         in.Role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
