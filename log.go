package gdbox2d

import (
	"log/slog"
	"os"
	"sync"
)

// UserLevel is the verbosity of the package logger installed by default.
// Config.LogLevel updates it when a space applies a config.
var UserLevel = new(slog.LevelVar)

var (
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: UserLevel}))
	warnedMu sync.Mutex
	warned   = map[string]bool{}
)

// SetLogger replaces the package logger. A nil logger restores slog.Default().
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

// warnOnce logs msg the first time it is seen and drops repeats.
func warnOnce(msg string, args ...any) {
	warnedMu.Lock()
	seen := warned[msg]
	warned[msg] = true
	warnedMu.Unlock()
	if !seen {
		logger.Warn(msg, args...)
	}
}
