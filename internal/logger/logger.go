package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New creates a logger writing to w at the given level.
// Uses a human-readable console format by default, JSON if LOG_FORMAT=json.
// Colors are disabled by NO_COLOR=1 or LOG_COLOR=false.
func New(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	out := w
	if strings.ToLower(os.Getenv("LOG_FORMAT")) != "json" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    !shouldUseColor(),
			TimeFormat: time.TimeOnly,
		}
	}

	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel parses level strictly, for validating user input.
func ValidLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.NoLevel, fmt.Errorf("empty log level")
	}
	if strings.EqualFold(level, "warning") {
		return zerolog.WarnLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(level))
}

// Nop returns a disabled logger, used as the default by packages that accept
// an optional logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if v := strings.ToLower(os.Getenv("LOG_COLOR")); v == "false" || v == "0" {
		return false
	}
	return true
}
