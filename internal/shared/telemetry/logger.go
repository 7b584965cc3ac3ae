package telemetry

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Init configures the process-wide logger. Level is one of zerolog's level
// strings; unknown values fall back to info. Pretty enables the console
// writer for local development.
func Init(level string, pretty bool) {
	once.Do(func() {
		parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil || parsed == zerolog.NoLevel {
			parsed = zerolog.InfoLevel
		}
		zerolog.TimeFieldFormat = time.RFC3339

		var out zerolog.Logger
		if pretty {
			out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
		} else {
			out = zerolog.New(os.Stdout)
		}
		logger = out.Level(parsed).With().Timestamp().Logger()
	})
}

// SetOutput redirects the shared logger to w. Used by tests to capture log lines.
func SetOutput(w io.Writer) {
	Init("info", false)
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// Logger returns the shared logger, initializing defaults if Init was never called.
func Logger() *zerolog.Logger {
	Init("info", false)
	return &logger
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	Logger().Info().Fields(fields).Msg(msg)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	Logger().Warn().Fields(fields).Msg(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	Logger().Error().Fields(fields).Msg(msg)
}
