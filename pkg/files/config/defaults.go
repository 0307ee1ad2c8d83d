// Package config provides configuration management for tfiles.
package config

// Default configuration values for tfiles.
const (
	// DefaultMaxTorrentSize is the largest .torrent file that is parsed.
	DefaultMaxTorrentSize = "10MiB"

	// DefaultFormat is the default output format of the show command.
	DefaultFormat = "tree"

	// DefaultLogMaxSize is the log size that triggers rotation.
	DefaultLogMaxSize = "5MiB"

	// DefaultLogMaxBackups is the number of rotated log files kept.
	DefaultLogMaxBackups = 3

	// AppName names the XDG subdirectories and the env prefix.
	AppName = "tfiles"
)
