package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is used when Mint is called with a non-positive ttl.
const DefaultTokenTTL = 30 * time.Minute

// ErrTokenInvalid is what Verify returns for every rejected token:
// malformed, bad signature, expired, or missing sub/org_id. Callers
// should not care which; the Authenticator maps all of them to
// ErrUnauthenticated.
var ErrTokenInvalid = errors.New("invalid token")

// Claims is the payload inside every access token.
//
// Why only subject + tenant + expiry?
//   - The token is a pointer to an identity, not a copy of it. Role and
//     active flag are re-read from storage on every request, so a demoted
//     or deactivated user loses access at their next request instead of
//     when the token expires.
//
// Why embed jwt.RegisteredClaims?
//   - Subject ("sub"), ExpiresAt ("exp", seconds since epoch) and
//     IssuedAt are standard fields every JWT tool understands.
type Claims struct {
	TenantID string `json:"org_id"`
	jwt.RegisteredClaims
}

// TokenIdentity is what a verified token asserts.
type TokenIdentity struct {
	SubjectID uuid.UUID
	TenantID  uuid.UUID
	ExpiresAt time.Time
}

// TokenCodec mints and verifies HS256 tokens with a process-wide secret.
//
// The secret is passed in at construction (from config.JWTSecret) and
// never changes afterwards, so a TokenCodec is safe for concurrent use.
// There is no revocation list: validity is signature + expiry + now.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Mint creates a signed token for subjectID in tenantID, valid for ttl.
// ttl <= 0 means DefaultTokenTTL.
func (c *TokenCodec) Mint(subjectID, tenantID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := c.now()

	claims := Claims{
		TenantID: tenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "notevault",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and extracts the identity.
//
// WithValidMethods pins HS256: a token claiming "none" or RS256 is
// rejected before the signature is even looked at, which closes the
// classic algorithm-confusion hole. WithExpirationRequired rejects tokens
// minted without an exp claim instead of treating them as immortal.
func (c *TokenCodec) Verify(tokenString string) (*TokenIdentity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(*jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" || claims.TenantID == "" {
		return nil, fmt.Errorf("%w: missing subject or tenant", ErrTokenInvalid)
	}
	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrTokenInvalid)
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed tenant", ErrTokenInvalid)
	}

	return &TokenIdentity{
		SubjectID: subjectID,
		TenantID:  tenantID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
