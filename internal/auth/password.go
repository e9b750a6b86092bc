package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHash         = errors.New("encoded password hash is not in the expected format")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	ErrInvalidParams       = errors.New("invalid argon2 parameters")
)

// PasswordParams are the Argon2id cost settings. They are written into
// every encoded hash, so changing them only affects new hashes.
type PasswordParams struct {
	Memory      uint32 `mapstructure:"memory" yaml:"memory"`
	Iterations  uint32 `mapstructure:"iterations" yaml:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism" yaml:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length" yaml:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length" yaml:"key_length"`
}

var DefaultPasswordParams = PasswordParams{
	Memory:      64 * 1024,
	Iterations:  2,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

func (p PasswordParams) Validate() error {
	if p.Memory < 8*uint32(p.Parallelism) || p.Iterations < 1 || p.Parallelism < 1 {
		return ErrInvalidParams
	}
	if p.SaltLength < 8 || p.KeyLength < 16 {
		return ErrInvalidParams
	}
	return nil
}

func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultPasswordParams)
}

// HashPasswordWithParams returns a PHC formatted string:
//
//	$argon2id$v=19$m=65536,t=2,p=2$<salt>$<key>
func HashPasswordWithParams(password string, p PasswordParams) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches encoded. A mismatch is
// (false, nil); an error means the stored hash itself is unusable.
func VerifyPassword(password, encoded string) (bool, error) {
	p, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	other := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

func CheckPasswordHash(password, encoded string) bool {
	ok, err := VerifyPassword(password, encoded)
	return err == nil && ok
}

func decodeHash(encoded string) (PasswordParams, []byte, []byte, error) {
	var p PasswordParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	p.SaltLength = uint32(len(salt))

	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	p.KeyLength = uint32(len(key))

	if err := p.Validate(); err != nil {
		return p, nil, nil, err
	}

	return p, salt, key, nil
}
