// Package commands implements CLI command handlers for commitprefix.
package commands

import (
	"errors"

	"github.com/Sumatoshi-tech/commitprefix/pkg/config"
	"github.com/Sumatoshi-tech/commitprefix/pkg/search"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
)

// ErrInvalidArgs wraps command line usage errors.
var ErrInvalidArgs = errors.New("invalid arguments")

// ExitCode maps an error to the process exit code, separating malformed
// input from a search that ran and failed.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case search.IsInvalidInput(err),
		errors.Is(err, ErrInvalidArgs),
		errors.Is(err, config.ErrInvalidWorkers),
		errors.Is(err, config.ErrInvalidField),
		errors.Is(err, config.ErrInvalidProgressInterval),
		errors.Is(err, config.ErrInvalidFormat),
		errors.Is(err, config.ErrInvalidLogLevel):
		return ExitInvalidInput
	default:
		return ExitFailure
	}
}
