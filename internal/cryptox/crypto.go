// Package cryptox implements salted one-way password hashing with argon2id.
//
// Hashes are self-describing strings:
//
//	argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
//
// where salt and key are unpadded base64. Parameters travel with the hash so
// they can be tuned later without invalidating stored credentials.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltLen   = 16
	keyLen    = 32
	timeCost  = 1
	memoryKiB = 64 * 1024
	threads   = 4
)

var ErrMalformedHash = errors.New("malformed password hash")

var b64 = base64.RawStdEncoding

// DeriveKey stretches password with salt using the default argon2id parameters.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, timeCost, memoryKiB, threads, keyLen)
}

// HashPassword returns an encoded argon2id hash of password with a fresh
// random salt.
func HashPassword(password []byte) string {
	salt := common.GenerateRandByteArray(saltLen)
	key := DeriveKey(password, salt)
	return fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memoryKiB, timeCost, threads, b64.EncodeToString(salt), b64.EncodeToString(key))
}

// VerifyPassword reports whether password matches encoded. The comparison is
// constant-time; a malformed encoding yields ErrMalformedHash.
func VerifyPassword(encoded string, password []byte) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return false, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrMalformedHash
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, ErrMalformedHash
	}

	salt, err := b64.DecodeString(parts[3])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := b64.DecodeString(parts[4])
	if err != nil || len(want) == 0 {
		return false, ErrMalformedHash
	}

	got := argon2.IDKey(password, salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
