package search

import "errors"

const (
	// MinWorkers is the smallest accepted worker count.
	MinWorkers = 1
	// MaxWorkers is the largest accepted worker count.
	MaxWorkers = 128
)

// Sentinel errors for the search engine.
var (
	// ErrInvalidWorkerCount indicates a worker count outside [MinWorkers, MaxWorkers].
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	// ErrSpanMismatch indicates the timestamp span does not address its value in the buffer.
	ErrSpanMismatch = errors.New("timestamp span does not match buffer")
	// ErrNoResult indicates every worker stopped without reporting a match.
	ErrNoResult = errors.New("search finished without a result")
	// ErrTimestampUnderflow indicates a worker decremented below zero.
	ErrTimestampUnderflow = errors.New("timestamp underflow")
)
