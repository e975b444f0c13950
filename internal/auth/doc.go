// Package auth is the authentication and authorization core.
//
// It hashes and verifies passwords (Hasher), mints and verifies access
// tokens (TokenCodec), turns credentials and tokens into identities
// (Authenticator), evaluates the role capability table (Can, CanMutate,
// CanManageUsers) and composes all of it into the per-request Gate.
//
// Every failure is reported as one of the sentinel errors in errors.go.
package auth
