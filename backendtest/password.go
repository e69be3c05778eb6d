package backendtest

import (
	"crypto/rand"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/argon2"
)

// Cheap argon2id parameters; the fake backend hashes on every login.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 8 * 1024
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

type passwordHash struct {
	salt []byte
	hash []byte
}

func hashPassword(password string) (passwordHash, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return passwordHash{}, err
	}
	return passwordHash{
		salt: salt,
		hash: argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen),
	}, nil
}

func (p passwordHash) verify(password string) bool {
	computed := argon2.IDKey([]byte(password), p.salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(computed, p.hash) == 1
}
