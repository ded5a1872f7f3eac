package config

import "time"

// Search defaults.
const (
	DefaultWorkers          = 8
	DefaultField            = "author"
	DefaultDryRun           = false
	DefaultProgressInterval = time.Second
)

// Repository and output defaults.
const (
	DefaultRepositoryPath = "."
	DefaultOutputFormat   = FormatText
	DefaultNoColor        = false
	DefaultShowDiff       = false
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Worker count bounds.
const (
	MinWorkers = 1
	MaxWorkers = 128
)
