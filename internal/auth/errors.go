package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for the auth core. Every failure that leaves this
// package is (or wraps) one of these, so callers branch with errors.Is
// and the HTTP layer maps each to exactly one status code.
var (
	// ErrMissingCredentials: no bearer token was presented at all.
	ErrMissingCredentials = errors.New("no credentials presented")

	// ErrUnauthenticated: bad credentials, or an invalid, expired or
	// forged token. Deliberately does not say which.
	ErrUnauthenticated = errors.New("could not validate credentials")

	// ErrInactiveAccount: the identity is valid but deactivated.
	ErrInactiveAccount = errors.New("inactive account")

	// ErrAccessDenied: the caller addressed a tenant path that is not theirs.
	ErrAccessDenied = errors.New("access denied")

	// ErrForbidden: authenticated but the role or ownership does not allow it.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrNotFound: the resource does not exist in the caller's tenant.
	// A resource that exists in another tenant is reported the same way.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdentity: (email, tenant) is already taken.
	ErrDuplicateIdentity = errors.New("user with this email already exists in organization")

	// ErrCredentialTooLong: secret exceeds the hasher's 72-byte input limit.
	ErrCredentialTooLong = fmt.Errorf("password is too long (more than %d bytes)", MaxSecretBytes)

	// ErrWrongSecret: the current password given to ChangeSecret is wrong.
	ErrWrongSecret = errors.New("current password is incorrect")

	// ErrHashingBackendFault: both the primary and the fallback hasher
	// failed. Only Hash can return it; Verify degrades to false instead.
	ErrHashingBackendFault = errors.New("password hashing backend failure")

	// ErrInvalidRole: a role outside reader/writer/admin.
	ErrInvalidRole = errors.New("invalid role")

	// ErrSelfModification: an admin targeted their own identity for a role
	// change or deletion. It is a Forbidden kind.
	ErrSelfModification = fmt.Errorf("%w: cannot modify your own account this way", ErrForbidden)
)
