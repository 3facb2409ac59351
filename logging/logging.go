// Package logging builds the process logger: human readable lines on stderr
// and, when a directory is given, JSON lines in <dir>/reelsmith.log.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"reelsmith/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	// Dir receives the log file; empty disables file logging
	Dir   string
	Debug bool
}

// New returns the logger and a close func that flushes and closes the file
func New(opts Options) (*zap.Logger, func(), error) {
	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
	}

	closeFile := func() {}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(opts.Dir, config.LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(f), zap.DebugLevel))
		closeFile = func() { _ = f.Close() }
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger, func() {
		_ = logger.Sync()
		closeFile()
	}, nil
}

// ForProject is New with the project's logs directory
func ForProject(projectDir string, debug bool) (*zap.Logger, func(), error) {
	return New(Options{Dir: filepath.Join(projectDir, config.LogsDir), Debug: debug})
}
