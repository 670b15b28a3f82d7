// Package forge ties the asset pipeline and render-graph core
// together under one package-level configuration, following the
// same Config/DefaultConfig/Configure shape the rendering engine
// this module grew out of used.
package forge

const (
	// MaxFramesInFlight is the default for
	// Config.MaxFramesInFlight. rdg.Pool does not read it.
	MaxFramesInFlight = 3

	// MinPoolEvictionAge is the minimum number of frames a pooled
	// render-graph resource may sit unused before GC may reclaim
	// it.
	MinPoolEvictionAge = 1

	dflPoolEvictionAge = 3
	dflTaskWorkers     = 4
	dflCacheDir        = ".forge/cache"
)

// Config configures the asset pipeline and render-graph core.
type Config struct {
	// CacheDir is the root directory of the content-addressed
	// artifact cache.
	//
	// Default is ".forge/cache".
	CacheDir string

	// PoolEvictionAge is the number of frames a pooled
	// render-graph resource may go unused before rdg.Pool.GC
	// reclaims it.
	//
	// Default is 3.
	PoolEvictionAge uint64

	// MaxFramesInFlight bounds how many frames' worth of
	// render-graph work may be outstanding at once.
	//
	// Default is MaxFramesInFlight.
	MaxFramesInFlight int

	// TaskWorkers is the number of goroutines internal/task.Pool
	// runs deserialization and import work on.
	//
	// Default is 4.
	TaskWorkers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CacheDir:          dflCacheDir,
		PoolEvictionAge:   dflPoolEvictionAge,
		MaxFramesInFlight: MaxFramesInFlight,
		TaskWorkers:       dflTaskWorkers,
	}
}

var cfg Config

// Configure replaces the package-level configuration with config.
func Configure(config *Config) {
	cfg = *config
}

// Current returns the active configuration.
func Current() Config {
	return cfg
}

func init() {
	config := DefaultConfig()
	Configure(&config)
}
