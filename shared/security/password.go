package security

import (
	"errors"

	"github.com/matthewhartstonge/argon2"
)

var ErrEmptyPassword = errors.New("password must not be empty")

// Argon2Hasher hashes and verifies passwords with argon2id. The encoded hash
// carries its own salt and parameters, so verification never needs the config.
type Argon2Hasher struct {
	config argon2.Config
}

// NewArgon2Hasher creates a hasher using the library's recommended defaults.
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{config: argon2.DefaultConfig()}
}

// NewArgon2HasherWithCost creates a hasher with explicit time and memory (KiB) costs.
func NewArgon2HasherWithCost(timeCost, memoryCost uint32) *Argon2Hasher {
	cfg := argon2.DefaultConfig()
	cfg.TimeCost = timeCost
	cfg.MemoryCost = memoryCost

	return &Argon2Hasher{config: cfg}
}

// HashPassword returns the encoded argon2id hash of password.
func (h *Argon2Hasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches the encoded hash.
func (h *Argon2Hasher) VerifyPassword(password, encodedHash string) (bool, error) {
	if encodedHash == "" {
		return false, nil
	}

	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}
