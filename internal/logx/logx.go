package logx

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Component logger facade. Every line carries a "comp" field so a run can be
// filtered per subsystem (App, Bench, LLM, Cache, Store, HTTP...).

var (
	mu   sync.RWMutex
	root = newRoot("info")
)

func newRoot(level string) zerolog.Logger {
	var zl zerolog.Logger
	if os.Getenv("LOG_FORMAT") == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zl = zerolog.New(os.Stderr)
	}
	return zl.With().Timestamp().Logger().Level(parseLevel(level))
}

// Init reconfigures the global level. Call once at startup.
func Init(level string) {
	mu.Lock()
	root = newRoot(level)
	mu.Unlock()
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "silent":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// logger hands out a copy; zerolog's level methods need an addressable
// receiver, and the copy keeps callers off the lock.
func logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := root
	return &l
}

// --- Public API ---

func Debug(comp, msg string, args ...any) {
	logger().Debug().Str("comp", comp).Msg(fmt.Sprintf(msg, args...))
}

func Info(comp, msg string, args ...any) {
	logger().Info().Str("comp", comp).Msg(fmt.Sprintf(msg, args...))
}

func Warn(comp, msg string, args ...any) {
	logger().Warn().Str("comp", comp).Msg(fmt.Sprintf(msg, args...))
}

func Error(comp, msg string, args ...any) {
	logger().Error().Str("comp", comp).Msg(fmt.Sprintf(msg, args...))
}

// L logs with a run id attached, para seguir un run completo en los logs.
func L(id, comp, msg string, args ...any) {
	logger().Info().Str("comp", comp).Str("id", id).Msg(fmt.Sprintf(msg, args...))
}
