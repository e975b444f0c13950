package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/observ"
	"github.com/lalith-99/notevault/internal/repository"
	"go.uber.org/zap"
)

// decoySecret is hashed once and compared against when a login names an
// email that does not exist, so "unknown email" costs one bcrypt compare
// just like "wrong password" does.
const decoySecret = "notevault-decoy-secret"

// Authenticator turns credentials or tokens into identities.
type Authenticator struct {
	users  repository.UserRepository
	hasher *Hasher
	tokens *TokenCodec
	ttl    time.Duration
	logger *zap.Logger

	decoyOnce   sync.Once
	decoyDigest string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token string
	User  *models.User
}

func NewAuthenticator(
	users repository.UserRepository,
	hasher *Hasher,
	tokens *TokenCodec,
	ttl time.Duration,
	logger *zap.Logger,
) *Authenticator {
	return &Authenticator{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		ttl:    ttl,
		logger: logger,
	}
}

// Authenticate resolves (email, secret, tenant) to a user.
//
// Unknown email, wrong password and a failing lookup all return
// ErrUnauthenticated with nothing else attached. Telling them apart would
// let a caller enumerate which emails exist in an organization.
func (a *Authenticator) Authenticate(ctx context.Context, email, secret string, tenantID uuid.UUID) (*models.User, error) {
	user, err := a.users.GetByEmail(ctx, tenantID, email)
	if err != nil {
		a.logger.Warn("identity lookup failed during login",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		observ.RecordAuthFailure("lookup_error")
		return nil, ErrUnauthenticated
	}

	if user == nil {
		a.hasher.Verify(secret, a.decoy())
		observ.RecordAuthFailure("unauthenticated")
		return nil, ErrUnauthenticated
	}

	if !a.hasher.Verify(secret, user.PasswordHash) {
		observ.RecordAuthFailure("unauthenticated")
		return nil, ErrUnauthenticated
	}

	return user, nil
}

// Login authenticates and mints an access token bound to the tenant.
func (a *Authenticator) Login(ctx context.Context, email, secret string, tenantID uuid.UUID) (*LoginResult, error) {
	user, err := a.Authenticate(ctx, email, secret, tenantID)
	if err != nil {
		return nil, err
	}

	token, err := a.tokens.Mint(user.ID, user.TenantID, a.ttl)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}
	observ.TokensIssuedTotal.Inc()

	return &LoginResult{Token: token, User: user}, nil
}

// ResolveToken verifies a token and loads the identity it names.
//
// The user is re-read on every call: a token for a deleted user, or one
// whose tenant claim doesn't match the stored user, is ErrUnauthenticated.
// A deactivated user gets ErrInactiveAccount, which is a different
// client-facing answer ("your account is off", not "log in again").
func (a *Authenticator) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	user, _, err := a.ResolveSession(ctx, token)
	return user, err
}

// ResolveSession is ResolveToken plus the token's expiry. Long-lived
// connections use the expiry to hang up when the token runs out.
func (a *Authenticator) ResolveSession(ctx context.Context, token string) (*models.User, time.Time, error) {
	ident, err := a.tokens.Verify(token)
	if err != nil {
		observ.RecordAuthFailure("unauthenticated")
		return nil, time.Time{}, ErrUnauthenticated
	}

	user, err := a.users.GetByID(ctx, ident.TenantID, ident.SubjectID)
	if err != nil {
		a.logger.Warn("identity lookup failed during token resolution",
			zap.String("user_id", ident.SubjectID.String()),
			zap.Error(err),
		)
		observ.RecordAuthFailure("lookup_error")
		return nil, time.Time{}, ErrUnauthenticated
	}
	if user == nil || user.TenantID != ident.TenantID {
		observ.RecordAuthFailure("unauthenticated")
		return nil, time.Time{}, ErrUnauthenticated
	}

	if !user.IsActive {
		observ.RecordAuthFailure("inactive")
		return nil, time.Time{}, ErrInactiveAccount
	}

	return user, ident.ExpiresAt, nil
}

// ChangeSecret replaces the user's password after checking the current one.
func (a *Authenticator) ChangeSecret(ctx context.Context, user *models.User, oldSecret, newSecret string) error {
	if err := CheckSecretLength(newSecret); err != nil {
		return err
	}
	if !a.hasher.Verify(oldSecret, user.PasswordHash) {
		return ErrWrongSecret
	}

	digest, err := a.hasher.Hash(newSecret)
	if err != nil {
		return err
	}

	ok, err := a.users.UpdatePasswordHash(ctx, user.TenantID, user.ID, digest)
	if err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}
	if !ok {
		// Deleted between ResolveToken and here.
		return ErrUnauthenticated
	}

	a.logger.Info("password changed",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", user.TenantID.String()),
	)
	return nil
}

func (a *Authenticator) decoy() string {
	a.decoyOnce.Do(func() {
		digest, err := a.hasher.Hash(decoySecret)
		if err != nil {
			a.logger.Warn("could not prepare decoy digest", zap.Error(err))
			return
		}
		a.decoyDigest = digest
	})
	return a.decoyDigest
}
