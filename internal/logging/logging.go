// Package logging builds the injected logger every component receives. The
// operational log is the only persisted state in the system: append-only
// timestamped lines, rotated by size, mirrored to stderr.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"spot-trader/internal/config"
)

// New returns a logger writing to the configured rotating file and stderr.
// Components receive it as a logrus.FieldLogger; nothing in the codebase
// touches the logrus global.
func New(cfg config.LoggingConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = io.MultiWriter(os.Stderr, rotatingWriter(cfg))
	}
	log.SetOutput(out)
	return log, nil
}

// NewQuiet is New without the stderr mirror, for full-screen terminal UIs
// where stray writes would corrupt the display.
func NewQuiet(cfg config.LoggingConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if cfg.File == "" {
		log.SetOutput(io.Discard)
		return log, nil
	}
	log.SetOutput(rotatingWriter(cfg))
	return log, nil
}

// rotatingWriter translates the config's retention values for lumberjack,
// where zero already means "keep everything". Config -1 carries the same
// keep-forever meaning since config zero selects the defaults.
func rotatingWriter(cfg config.LoggingConfig) *lumberjack.Logger {
	maxBackups := cfg.MaxBackups
	if maxBackups < 0 {
		maxBackups = 0
	}
	maxAge := cfg.MaxAgeDays
	if maxAge < 0 {
		maxAge = 0
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   cfg.Compress,
	}
}
