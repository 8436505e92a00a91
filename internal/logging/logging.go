package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	log "github.com/sirupsen/logrus"

	"courier/internal/config"
)

// Setup points the standard logrus logger at a rotating log file.
// With stderr set, entries are also written to the terminal, which only
// the headless CLI may do. The returned closer flushes the file.
func Setup(cfg config.LogSettings, stderr bool) (io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}

	var out io.Writer = file
	if stderr {
		out = io.MultiWriter(file, os.Stderr)
	}

	log.SetOutput(out)
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   !stderr,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return file, nil
}

// Discard silences logging, for tests and non-interactive probes
func Discard() {
	log.SetOutput(io.Discard)
}
