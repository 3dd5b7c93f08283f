package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/citivoice/complaint-server/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	tempPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"
	tempPasswordLength  = 8
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher hashes with the configured algorithm and verifies hashes of either kind
type PasswordHasher struct {
	algorithm  string
	bcryptCost int
}

// NewPasswordHasher creates a hasher for "bcrypt" or "argon2id"
func NewPasswordHasher(algorithm string) (*PasswordHasher, error) {
	switch algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
		return &PasswordHasher{algorithm: algorithm, bcryptCost: bcrypt.DefaultCost}, nil
	}
	return nil, fmt.Errorf("unknown password hasher %q", algorithm)
}

// Hash hashes the password
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		hash, err := argon2id.CreateHash(password, argonParams)
		if err != nil {
			return "", apperr.Internal(err, "hash password")
		}
		return hash, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", apperr.Internal(err, "hash password")
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. The format is read from the hash.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	if strings.HasPrefix(hash, "$argon2id$") {
		return argon2id.ComparePasswordAndHash(password, hash)
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GenerateTempPassword returns a random 8-character password
func GenerateTempPassword() (string, error) {
	limit := big.NewInt(int64(len(tempPasswordCharset)))
	var b strings.Builder
	for i := 0; i < tempPasswordLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", apperr.Internal(err, "generate password")
		}
		b.WriteByte(tempPasswordCharset[n.Int64()])
	}
	return b.String(), nil
}
