// Package logger provides leveled structured logging on top of zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the package logger with the specified level and format
// ("json" or "text").
func Init(level string, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if strings.ToLower(format) == "text" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	}

	log = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func Debug(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}

func Info(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

func Warn(format string, args ...any) {
	log.Warn().Msgf(format, args...)
}

func Error(format string, args ...any) {
	log.Error().Msgf(format, args...)
}

// Fatal logs the message and exits the process.
func Fatal(format string, args ...any) {
	log.Fatal().Msgf(format, args...)
}
