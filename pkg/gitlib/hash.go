// Package gitlib reads and writes commit objects through libgit2.
package gitlib

import (
	"encoding/hex"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

const (
	// HashSize is the size of a SHA-1 object id in bytes.
	HashSize = 20
	// HashHexSize is the size of a hex-encoded object id.
	HashHexSize = 40
)

// Hash is a git object id.
type Hash [HashSize]byte

// ParseHash parses a full 40-character hex object id.
func ParseHash(s string) (Hash, error) {
	var h Hash

	if len(s) != HashHexSize {
		return h, fmt.Errorf("%w: %q has %d characters", ErrInvalidHash, s, len(s))
	}

	_, err := hex.Decode(h[:], []byte(s))
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %q: %w", ErrInvalidHash, s, err)
	}

	return h, nil
}

// HashFromOid converts a libgit2 Oid to Hash.
func HashFromOid(oid *git2go.Oid) Hash {
	var h Hash
	copy(h[:], oid[:])

	return h
}

// String returns the lowercase hex form of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ToOid converts the hash to a libgit2 Oid.
func (h Hash) ToOid() *git2go.Oid {
	oid := new(git2go.Oid)
	copy(oid[:], h[:])

	return oid
}
