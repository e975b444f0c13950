package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/models"
)

// Why context.Context as the first parameter on every method?
//
//   - Every method here is I/O. The request context flows down so a client
//     that disconnects cancels its queries.
//
// Why tenantID in (almost) every signature?
//
//   - Tenant isolation lives at the query level. A note or user lookup that
//     does not ALSO match the caller's tenant returns "not found", exactly
//     like a lookup for an id that never existed. Callers cannot tell the
//     two apart, which is the point: no cross-tenant existence leaks.

// ErrDuplicate is returned by Create methods when a uniqueness constraint
// (users: tenant_id + email) rejects the row. Racing inserts are resolved
// by the store, not by application locks; callers just map this error.
var ErrDuplicate = errors.New("duplicate record")

// CreateUserParams carries the fields needed to insert a user.
// PasswordHash must already be a digest produced by auth.Hasher.
type CreateUserParams struct {
	TenantID     uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	Role         models.Role
}

// TenantRepository handles organizations.
type TenantRepository interface {
	// Create inserts a tenant and returns it with ID and timestamps populated.
	Create(ctx context.Context, name string, description *string) (*models.Tenant, error)

	// GetByID returns nil, nil if the tenant does not exist.
	GetByID(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)

	// Delete removes a tenant. Reports whether a row was deleted.
	// Used as the compensating step when organization bootstrap fails.
	Delete(ctx context.Context, tenantID uuid.UUID) (bool, error)
}

// UserRepository handles identities. All lookups are tenant-scoped.
type UserRepository interface {
	// Create inserts a user. Returns ErrDuplicate on (tenant_id, email) conflict.
	Create(ctx context.Context, params CreateUserParams) (*models.User, error)

	// GetByID returns nil, nil if not found in that tenant.
	GetByID(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) (*models.User, error)

	// GetByEmail returns nil, nil if not found in that tenant.
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error)

	// ListByTenant returns all users of a tenant, oldest first.
	// Returns an empty slice (not nil) so JSON serializes to [].
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.User, error)

	// FindAdmin returns the oldest admin of the tenant, or nil, nil.
	FindAdmin(ctx context.Context, tenantID uuid.UUID) (*models.User, error)

	// UpdateRole sets a user's role. Reports whether the user existed.
	UpdateRole(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, role models.Role) (bool, error)

	// UpdatePasswordHash replaces a user's digest. Reports whether the user existed.
	UpdatePasswordHash(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, hash string) (bool, error)

	// Delete removes a user. Reports whether a row was deleted.
	Delete(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) (bool, error)
}

// NoteRepository handles notes. All lookups are tenant-scoped.
type NoteRepository interface {
	// Create inserts a note owned by ownerID.
	Create(ctx context.Context, tenantID uuid.UUID, ownerID uuid.UUID, title, content string) (*models.Note, error)

	// GetByID returns nil, nil if not found in that tenant.
	GetByID(ctx context.Context, tenantID uuid.UUID, noteID uuid.UUID) (*models.Note, error)

	// ListByTenant returns the tenant's notes, newest first. Never nil.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Note, error)

	// Update applies a partial update and bumps updated_at.
	// Returns nil, nil if the note is not in that tenant.
	Update(ctx context.Context, tenantID uuid.UUID, noteID uuid.UUID, patch models.NotePatch) (*models.Note, error)

	// Delete removes a note. Reports whether a row was deleted.
	Delete(ctx context.Context, tenantID uuid.UUID, noteID uuid.UUID) (bool, error)
}
