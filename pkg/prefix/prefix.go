// Package prefix parses hexadecimal digest prefixes and matches them against
// raw digest bytes with nibble precision.
package prefix

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // git object ids are SHA-1.
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// MaxNibbles is the longest accepted prefix: one nibble per hex digit of a digest.
	MaxNibbles = sha1.Size * 2

	highNibbleMask = 0xF0
	nibbleValues   = 16
)

// Sentinel errors for prefix parsing.
var (
	// ErrInvalidPrefix indicates the prefix contains a non-hex character.
	ErrInvalidPrefix = errors.New("prefix must be a hex string")
	// ErrPrefixTooLong indicates the prefix has more nibbles than a digest.
	ErrPrefixTooLong = errors.New("prefix is longer than a digest")
)

// Pattern is a parsed digest prefix. An odd number of nibbles is stored padded
// with a zero nibble, and the last byte then only constrains the high nibble.
type Pattern struct {
	bytes        []byte
	trailingHalf bool
	text         string
}

// Parse parses a case-insensitive hex prefix of 0 to MaxNibbles characters.
func Parse(s string) (Pattern, error) {
	if len(s) > MaxNibbles {
		return Pattern{}, fmt.Errorf("%w: %d nibbles (max %d)", ErrPrefixTooLong, len(s), MaxNibbles)
	}

	for i := range len(s) {
		if !isHexDigit(s[i]) {
			return Pattern{}, fmt.Errorf("%w: %q has %q at position %d", ErrInvalidPrefix, s, s[i], i)
		}
	}

	text := strings.ToLower(s)
	trailingHalf := len(text)%2 != 0

	padded := text
	if trailingHalf {
		padded += "0"
	}

	decoded, err := hex.DecodeString(padded)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: %w", ErrInvalidPrefix, err)
	}

	return Pattern{bytes: decoded, trailingHalf: trailingHalf, text: text}, nil
}

// Matches reports whether digest starts with the pattern. The digest must be
// at least as long as the padded pattern.
func (p Pattern) Matches(digest []byte) bool {
	n := len(p.bytes)
	if p.trailingHalf {
		n--
	}

	if !bytes.Equal(p.bytes[:n], digest[:n]) {
		return false
	}

	if p.trailingHalf {
		return p.bytes[n] == digest[n]&highNibbleMask
	}

	return true
}

// String returns the normalized lowercase prefix.
func (p Pattern) String() string {
	return p.text
}

// Nibbles returns the number of hex digits the pattern constrains.
func (p Pattern) Nibbles() int {
	return len(p.text)
}

// Bytes returns a copy of the padded pattern bytes.
func (p Pattern) Bytes() []byte {
	return bytes.Clone(p.bytes)
}

// TrailingHalf reports whether the last pattern byte only constrains its high nibble.
func (p Pattern) TrailingHalf() bool {
	return p.trailingHalf
}

// ExpectedAttempts is the mean number of uniformly distributed digests needed
// for one match.
func (p Pattern) ExpectedAttempts() float64 {
	return math.Pow(nibbleValues, float64(p.Nibbles()))
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
