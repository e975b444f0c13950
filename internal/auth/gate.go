package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/observ"
)

// NoteLocator finds a note inside one tenant, returning nil, nil when it
// is absent from that tenant. repository.NoteRepository satisfies it.
type NoteLocator interface {
	GetByID(ctx context.Context, tenantID uuid.UUID, noteID uuid.UUID) (*models.Note, error)
}

// Gate is the one enforcement point every resource operation goes through.
//
// The order of checks is part of the contract:
//
//  1. no token                  -> ErrMissingCredentials
//  2. bad token / gone user     -> ErrUnauthenticated (or ErrInactiveAccount)
//  3. tenant path not yours     -> ErrAccessDenied
//  4. role can't do this at all -> ErrForbidden, before any resource load
//  5. resource not in tenant    -> ErrNotFound
//  6. role+ownership says no    -> ErrForbidden
//
// Step 5 before step 6 means a note from another tenant is "not found",
// never "forbidden", so callers learn nothing about other tenants.
type Gate struct {
	authn *Authenticator
	notes NoteLocator
}

func NewGate(authn *Authenticator, notes NoteLocator) *Gate {
	return &Gate{authn: authn, notes: notes}
}

// BearerToken extracts the token from an Authorization header value.
// An absent header, or one that isn't "Bearer <token>", counts as no
// credentials at all.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingCredentials
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}

// Identify runs steps 1 and 2 for a raw Authorization header value.
func (g *Gate) Identify(ctx context.Context, authorizationHeader string) (*models.User, error) {
	user, _, err := g.Session(ctx, authorizationHeader)
	return user, err
}

// Session is Identify that also reports when the presented token expires.
func (g *Gate) Session(ctx context.Context, authorizationHeader string) (*models.User, time.Time, error) {
	token, err := BearerToken(authorizationHeader)
	if err != nil {
		observ.RecordAuthFailure("missing_credentials")
		return nil, time.Time{}, err
	}
	return g.authn.ResolveSession(ctx, token)
}

// Authorize is the coarse check for note actions that have no target
// (create, list).
func (g *Gate) Authorize(actor *models.User, action Action) error {
	if !Can(actor.Role, action) {
		return fmt.Errorf("%w: role %q cannot %s notes", ErrForbidden, actor.Role, action)
	}
	return nil
}

// AuthorizeNote gates an action on one note and returns the located note.
//
// rawNoteID is taken unparsed so that a malformed id is handled AFTER the
// coarse check: a reader sending PUT /notes/garbage gets 403, not 404.
// A malformed id is then simply a note that doesn't exist.
func (g *Gate) AuthorizeNote(ctx context.Context, actor *models.User, action Action, rawNoteID string) (*models.Note, error) {
	if err := g.Authorize(actor, action); err != nil {
		return nil, err
	}

	noteID, err := uuid.Parse(rawNoteID)
	if err != nil {
		return nil, ErrNotFound
	}

	note, err := g.notes.GetByID(ctx, actor.TenantID, noteID)
	if err != nil {
		return nil, fmt.Errorf("locate note: %w", err)
	}
	if note == nil {
		return nil, ErrNotFound
	}

	if action == ActionUpdate || action == ActionDelete {
		if !CanMutate(actor.Role, action, note.OwnerID == actor.ID) {
			return nil, fmt.Errorf("%w: can only %s your own notes", ErrForbidden, action)
		}
	}

	return note, nil
}

// RequireTenant checks that a tenant path parameter names the caller's
// own tenant. A malformed org id can't be the caller's, so it is denied.
func (g *Gate) RequireTenant(actor *models.User, rawOrgID string) error {
	orgID, err := uuid.Parse(rawOrgID)
	if err != nil || orgID != actor.TenantID {
		return ErrAccessDenied
	}
	return nil
}

// AuthorizeTenant gates user management under /organizations/{org_id}/users:
// the path must be the caller's tenant, and the caller must be an admin.
func (g *Gate) AuthorizeTenant(actor *models.User, rawOrgID string, action UserAction) error {
	if err := g.RequireTenant(actor, rawOrgID); err != nil {
		return err
	}
	if !CanManageUsers(actor.Role, action) {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

// AuthorizeUserTarget enforces the self-modification lockout: an admin
// may not change their own role or delete themselves. It returns the
// parsed target id; a malformed id is ErrNotFound.
//
// This does NOT stop a tenant from ending up with zero admins through
// two admins demoting each other.
func (g *Gate) AuthorizeUserTarget(actor *models.User, rawUserID string) (uuid.UUID, error) {
	if rawUserID == actor.ID.String() {
		return uuid.Nil, ErrSelfModification
	}
	targetID, err := uuid.Parse(rawUserID)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	if targetID == actor.ID {
		return uuid.Nil, ErrSelfModification
	}
	return targetID, nil
}
