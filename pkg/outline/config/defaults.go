// Package config provides configuration management for the arbor
// outline client.
package config

// Default configuration values for arbor.
const (
	// DefaultSaveInterval is how often the view state saver checks for
	// unsaved changes, in seconds.
	DefaultSaveInterval = 2

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/arbor"

	// DefaultRetryAttempts bounds how often the engine polls for a
	// freshly created node to replicate into the flat list.
	DefaultRetryAttempts = 3

	// DefaultRetryDelayMS is the pause between replication polls, in
	// milliseconds.
	DefaultRetryDelayMS = 500
)
