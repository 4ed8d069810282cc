package logger

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"llm-gateway/internal/security"
)

var (
	globalLogger zerolog.Logger
	once         sync.Once
)

// GetLogger returns the global logger instance
func GetLogger() zerolog.Logger {
	once.Do(func() {
		// Default to console output with info level
		consoleWriter := zerolog.ConsoleWriter{
			Out:        SecureWriter{Out: os.Stdout},
			TimeFormat: time.RFC3339,
		}
		globalLogger = zerolog.New(consoleWriter).With().Timestamp().Logger().Level(zerolog.InfoLevel)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})
	return globalLogger
}

// New constructs a zerolog logger based on level and format configuration.
// Both formats write through SecureWriter so a credential that leaks into
// an error message never reaches the sink in clear text.
func New(level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, err
	}

	out := SecureWriter{Out: os.Stdout}

	var writer zerolog.Logger
	switch strings.ToLower(format) {
	case "json":
		writer = zerolog.New(out).With().Timestamp().Logger()
	case "console":
		consoleWriter := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
		writer = zerolog.New(consoleWriter).With().Timestamp().Logger()
	default:
		return zerolog.Logger{}, errors.New("unsupported log format")
	}

	zerolog.SetGlobalLevel(lvl)

	// Claim the once; a later GetLogger must not reset the configured
	// logger back to the bootstrap default.
	once.Do(func() {})
	globalLogger = writer.Level(lvl)

	return globalLogger, nil
}

// SecureWriter masks known credential patterns in everything written
// through it.
type SecureWriter struct {
	Out io.Writer
}

func (w SecureWriter) Write(p []byte) (int, error) {
	scrubbed := security.ScrubCredentials(string(p))
	if _, err := w.Out.Write([]byte(scrubbed)); err != nil {
		return 0, err
	}
	return len(p), nil
}
