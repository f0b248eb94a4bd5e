// Package logger provides structured logging based on zerolog.
//
// All output goes to stderr (or HEDDLE_DEBUG_FILE when set) because stdout
// is reserved for the IPC protocol in headless mode.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu           sync.RWMutex
	globalLogger zerolog.Logger
	nopLogger    = zerolog.Nop()
	debugFile    *os.File
	initialized  bool

	debugAll      bool
	debugChannels map[string]bool
)

// Init configures the global logger from the environment.
//
// HEDDLE_DEBUG controls debug output: empty disables it, "1" or "true"
// enables all channels, and any other value is treated as a comma-separated
// channel list. HEDDLE_DEBUG_FILE redirects log lines to a file, each
// prefixed with an ISO-8601 timestamp.
func Init() error {
	mu.Lock()
	defer mu.Unlock()
	return initLocked(os.Getenv("HEDDLE_DEBUG"), os.Getenv("HEDDLE_DEBUG_FILE"))
}

// InitWith configures the global logger with explicit settings. Used by tests.
func InitWith(debug, file string) error {
	mu.Lock()
	defer mu.Unlock()
	return initLocked(debug, file)
}

func initLocked(debug, file string) error {
	debugAll = false
	debugChannels = nil

	switch strings.TrimSpace(debug) {
	case "":
	case "1", "true":
		debugAll = true
	default:
		debugChannels = make(map[string]bool)
		for _, ch := range strings.Split(debug, ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				debugChannels[ch] = true
			}
		}
	}

	level := zerolog.InfoLevel
	if debugAll || len(debugChannels) > 0 {
		level = zerolog.DebugLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		if debugFile != nil {
			debugFile.Close()
		}
		debugFile = f
		out = zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339, NoColor: true}
	}

	globalLogger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	initialized = true
	return nil
}

// Get returns the global logger instance.
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !initialized {
		l := zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
		return &l
	}
	return &globalLogger
}

// DebugEnabled reports whether the named debug channel is active.
func DebugEnabled(channel string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return debugAll || debugChannels[channel]
}

// Debug returns a debug event for the named channel. Disabled channels
// produce a no-op event.
func Debug(channel string) *zerolog.Event {
	if !DebugEnabled(channel) {
		return nopLogger.Debug()
	}
	return Get().Debug().Str("channel", channel)
}

// Info returns an info level event.
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn returns a warn level event.
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error returns an error level event.
func Error() *zerolog.Event {
	return Get().Error()
}

// Warnf logs a formatted warn message.
func Warnf(format string, args ...any) {
	Get().Warn().Msgf(format, args...)
}

// Errorf logs a formatted error message.
func Errorf(format string, args ...any) {
	Get().Error().Msgf(format, args...)
}

// Close closes the debug file if one was opened.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		return err
	}
	return nil
}
