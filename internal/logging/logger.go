package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Params struct {
	File       string
	Level      string
	JSON       bool
	MaxSizeMB  int
	MaxBackups int
}

// Setup builds a logger that writes to a rotating file. The terminal belongs
// to the UI, so an empty File discards everything. The returned func closes
// the file.
func Setup(params Params) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetLevel(GetLevel(params.Level))
	if params.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	if params.File == "" {
		logger.SetOutput(io.Discard)
		return logger, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(params.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	maxSize := params.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	lumberJackLogger := &lumberjack.Logger{
		Filename:   params.File,
		MaxSize:    maxSize, // megabytes
		MaxBackups: params.MaxBackups,
		LocalTime:  false,
		Compress:   true,
	}
	logger.SetOutput(lumberJackLogger)
	return logger, lumberJackLogger.Close, nil
}

// ParseLevel accepts the level names logrus knows, case-insensitively.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "trace":
		return logrus.TraceLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "info", "":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	case "fatal":
		return logrus.FatalLevel, nil
	}
	return logrus.InfoLevel, fmt.Errorf("unknown level %q", level)
}

// GetLevel is ParseLevel falling back to info.
func GetLevel(level string) logrus.Level {
	l, _ := ParseLevel(level)
	return l
}
