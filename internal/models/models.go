package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization tier of a user inside their organization.
//
// Why a named string type instead of a plain string?
//   - Request payloads carrying a role are validated against this closed
//     set before they reach storage (see IsValid).
//   - The permission table in internal/auth is keyed by Role, so a typo
//     like "Admin" can never silently map to "no permissions at all"
//     without also failing validation first.
type Role string

const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether r is one of the three known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleReader, RoleWriter, RoleAdmin:
		return true
	}
	return false
}

// Tenant is the isolation boundary ("organization").
// Every user and every note belongs to exactly one tenant, and every
// query for users or notes is filtered by tenant_id.
type Tenant struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is an identity inside a tenant.
//
// Email is unique per tenant, NOT globally: the same address can sign in
// to two organizations as two unrelated users. Storage enforces this with
// a UNIQUE (tenant_id, email) constraint.
//
// PasswordHash is tagged json:"-" so a handler that accidentally returns
// a *User never leaks the digest.
type User struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"organization_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Note is a tenant-scoped document.
//
// OwnerID records who created the note. Writers may only update notes
// they own; admins may touch any note in their tenant.
type Note struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"organization_id"`
	OwnerID   uuid.UUID `json:"created_by"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotePatch is a partial update. Nil fields are left untouched.
type NotePatch struct {
	Title   *string
	Content *string
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}
