// Package logging builds the process-wide *log.Logger and the
// per-component loggers derived from it.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/mschirtzinger/lanform/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink is the destination shared by every component logger.
type Sink struct {
	w    io.Writer
	file *lumberjack.Logger
}

// NewSink opens the log destination described by cfg. Output goes to
// stderr unless cfg.Quiet is set, and additionally to a rotating file when
// cfg.File is set.
func NewSink(cfg config.LogConfig) *Sink {
	return newSink(cfg, os.Stderr)
}

func newSink(cfg config.LogConfig, stderr io.Writer) *Sink {
	s := &Sink{}
	var writers []io.Writer
	if !cfg.Quiet {
		writers = append(writers, stderr)
	}
	if cfg.File != "" {
		s.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, s.file)
	}

	switch len(writers) {
	case 0:
		s.w = io.Discard
	case 1:
		s.w = writers[0]
	default:
		s.w = io.MultiWriter(writers...)
	}
	return s
}

// Logger returns a logger for component, prefixed "[component] ".
func (s *Sink) Logger(component string) *log.Logger {
	return log.New(s.w, "["+component+"] ", log.LstdFlags)
}

// Writer returns the underlying destination.
func (s *Sink) Writer() io.Writer {
	return s.w
}

// Close closes the rotating file, if any.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
