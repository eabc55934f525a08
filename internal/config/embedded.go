package config

// Embedded API keys injected at build time via ldflags.
// These serve as defaults and can be overridden by environment
// variables or config file.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/snapshelf/snapshelf/internal/config.EmbeddedTMDBKey=xxx' \
//	                   -X 'github.com/snapshelf/snapshelf/internal/config.EmbeddedOMDBKey=yyy'"
var (
	EmbeddedTMDBKey      string
	EmbeddedOMDBKey      string
	EmbeddedAnthropicKey string
)

// Version is the build version, set via ldflags.
var Version = "dev"
