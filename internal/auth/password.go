package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/lalith-99/notevault/internal/observ"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// MaxSecretBytes is bcrypt's input limit. bcrypt silently ignores every
// byte past 72, so two long passwords sharing a 72-byte prefix would hash
// the same. We reject instead of truncating, everywhere.
const MaxSecretBytes = 72

// Argon2id parameters for the fallback path (OWASP recommendation).
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16

	// Upper bounds accepted when decoding a stored digest, so a corrupted
	// row can't make Verify allocate gigabytes.
	argonMaxMemory = 256 * 1024
	argonMaxTime   = 10

	argon2idPrefix = "$argon2id$"
)

// Hasher hashes and verifies passwords.
//
// bcrypt is the primary algorithm. If bcrypt itself fails (not a wrong
// password, an actual backend error), Hash falls back to Argon2id and
// records the event; Verify recognises both formats by prefix. Neither
// method panics, and Verify never returns an error: anything it can't
// evaluate is a non-match.
type Hasher struct {
	cost       int
	logger     *zap.Logger
	bcryptHash func(secret []byte, cost int) ([]byte, error)
}

// NewHasher returns a Hasher using the given bcrypt cost. Costs below
// bcrypt.MinCost are treated by bcrypt as bcrypt.DefaultCost.
func NewHasher(cost int, logger *zap.Logger) *Hasher {
	return &Hasher{
		cost:       cost,
		logger:     logger,
		bcryptHash: bcrypt.GenerateFromPassword,
	}
}

// CheckSecretLength enforces the 72-byte limit on the UTF-8 encoding.
func CheckSecretLength(secret string) error {
	if len(secret) > MaxSecretBytes {
		return ErrCredentialTooLong
	}
	return nil
}

// Hash returns a salted digest safe to store.
// Returns ErrCredentialTooLong for secrets over 72 bytes, and
// ErrHashingBackendFault only if bcrypt AND the fallback both fail.
func (h *Hasher) Hash(secret string) (string, error) {
	if err := CheckSecretLength(secret); err != nil {
		return "", err
	}

	digest, err := h.bcryptHash([]byte(secret), h.cost)
	if err == nil {
		return string(digest), nil
	}

	h.logger.Error("bcrypt hashing failed, using argon2id fallback", zap.Error(err))
	observ.HashingFallbackTotal.Inc()

	fallback, ferr := hashArgon2id(secret)
	if ferr != nil {
		h.logger.Error("fallback hashing failed", zap.Error(ferr))
		return "", fmt.Errorf("%w: %w", ErrHashingBackendFault, ferr)
	}
	return fallback, nil
}

// Verify reports whether secret matches digest, in constant time with
// respect to the digest contents.
func (h *Hasher) Verify(secret, digest string) bool {
	if len(secret) > MaxSecretBytes {
		return false
	}

	if strings.HasPrefix(digest, argon2idPrefix) {
		ok, err := verifyArgon2id(secret, digest)
		if err != nil {
			h.logger.Warn("unreadable argon2id digest", zap.Error(err))
			return false
		}
		return ok
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret))
	switch {
	case err == nil:
		return true
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false
	default:
		h.logger.Warn("password verification failed", zap.Error(err))
		return false
	}
}

// hashArgon2id encodes in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func hashArgon2id(secret string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyArgon2id(secret, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, errors.New("invalid PHC hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var (
		memory, time uint32
		threads      uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("parsing parameters: %w", err)
	}
	if memory == 0 || memory > argonMaxMemory || time == 0 || time > argonMaxTime || threads == 0 {
		return false, fmt.Errorf("argon2 parameters out of range: m=%d t=%d p=%d", memory, time, threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decoding salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decoding hash: %w", err)
	}
	if len(hash) == 0 {
		return false, errors.New("empty hash")
	}

	candidate := argon2.IDKey([]byte(secret), salt, time, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}
