package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger builds the root logger from the logging section. Unknown levels
// fall back to info; the "console" format is meant for local development,
// everything else emits JSON lines. The result is also installed as the
// package-global zerolog logger so library code logging through
// zerolog/log lands in the same stream.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "gemeenteweb").
		Logger()

	log.Logger = logger
	return logger
}
