// Package logging configures the global zerolog logger from config
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mitchelldurbincs/terrainfill/internal/config"
)

// ParseLevel maps a config level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger writing to out and, when c.File is set, to a
// rotating file. The returned closer releases the file and is a no-op
// otherwise.
func New(c config.LogConfig, out io.Writer) (zerolog.Logger, io.Closer) {
	console := out
	if strings.ToLower(c.Format) != "json" {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}
	if c.File != "" {
		file := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAgeDays,
			LocalTime:  true,
		}
		// The file always gets JSON lines
		writers = append(writers, file)
		closer = file
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(c.Level)).
		With().Timestamp().Logger()
	return logger, closer
}

// Setup installs the configured logger as the global log.Logger, writing
// to stderr so command output on stdout stays clean.
func Setup(c config.LogConfig) io.Closer {
	logger, closer := New(c, os.Stderr)
	zerolog.SetGlobalLevel(ParseLevel(c.Level))
	log.Logger = logger
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
