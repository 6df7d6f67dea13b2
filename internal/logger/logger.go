package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger is the global logger instance
	Logger *log.Logger
)

// Config holds logger configuration.
// An empty LogDir sends output to stderr only, which is what the server uses.
type Config struct {
	Debug bool
	// Info lowers the default level from warn to info.
	Info     bool
	LogDir   string
	FileName string
	Prefix   string
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) error {
	level := log.WarnLevel
	if cfg.Info {
		level = log.InfoLevel
	}
	if cfg.Debug {
		level = log.DebugLevel
	}

	var writer io.Writer = os.Stderr
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return err
		}
		name := cfg.FileName
		if name == "" {
			name = "hemma.log"
		}
		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, name),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		if cfg.Debug {
			writer = io.MultiWriter(os.Stderr, fileWriter)
		} else {
			// silent on stderr
			writer = fileWriter
		}
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "hemma"
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          prefix,
	})

	return nil
}

// SetOutput redirects the global logger, creating it at debug level when
// Init has not run yet.
func SetOutput(w io.Writer) {
	if Logger == nil {
		Logger = log.NewWithOptions(w, log.Options{Level: log.DebugLevel, Prefix: "hemma"})
		return
	}
	Logger.SetOutput(w)
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs a fatal error and exits
func Fatal(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
