// Package logx provides a package-level structured logger for
// the core. The asset pipeline and render graph log enough
// contextual state (asset uuid, artifact class, pass name) that
// plain log.Printf formatting loses structure a reader needs, so
// this wraps log/slog rather than the bare log package. The
// driver package logs its registration messages through it too.
package logx

import (
	"log/slog"
	"os"
	"sync"
)

var (
	mu  sync.Mutex
	def *slog.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// Default returns the package-level logger.
func Default() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return def
}

// SetDefault replaces the package-level logger, e.g. to route
// output to a file or raise the level.
func SetDefault(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	def = l
}
