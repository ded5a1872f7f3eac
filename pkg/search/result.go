package search

import (
	"crypto/sha1" //nolint:gosec // git object ids are SHA-1.
	"time"
)

// Result is the outcome of a successful search.
type Result struct {
	// Timestamp is the matching timestamp value.
	Timestamp int64
	// Digest is the object id of the patched buffer.
	Digest [sha1.Size]byte
	// Hex is Digest in lowercase hex.
	Hex string
	// Worker is the index of the worker that found the match.
	Worker int
	// Attempts is the number of digests computed by all workers.
	Attempts int64
	// Elapsed is the wall time of the search.
	Elapsed time.Duration
}

// Progress is a periodic snapshot of a running search.
type Progress struct {
	Attempts int64
	Elapsed  time.Duration
}

// Rate returns attempts per second.
func (p Progress) Rate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}

	return float64(p.Attempts) / p.Elapsed.Seconds()
}
