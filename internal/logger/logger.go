package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Info    = log.New(io.Discard, "", 0)
	Warn    = log.New(io.Discard, "", 0)
	Debug   = log.New(io.Discard, "", 0)
	Verbose = log.New(io.Discard, "", 0)
	Error   = log.New(io.Discard, "", 0)
	Always  = log.New(io.Discard, "", 0) // Always logs to file regardless of log level

	// Current log level for filtering
	currentLogLevel string

	fileWriter *lumberjack.Logger
)

// RotationConfig controls log file rotation
type RotationConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// InitWithRotation sets up all loggers writing to a size-rotated log file
func InitWithRotation(logLevel, logFilePath string, rotation RotationConfig) error {
	if dir := filepath.Dir(logFilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if fileWriter != nil {
		fileWriter.Close()
	}
	fileWriter = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
		Compress:   rotation.Compress,
	}

	setup(logLevel, fileWriter, os.Stderr)
	return nil
}

// InitWithWriter routes all loggers to w, used by tests and embedders
func InitWithWriter(logLevel string, w io.Writer) {
	setup(logLevel, w, w)
}

func setup(logLevel string, logFile, errOut io.Writer) {
	currentLogLevel = logLevel

	// Create null writer for disabled log levels
	nullWriter := io.Discard

	errWriter := logFile
	if errOut != logFile {
		errWriter = io.MultiWriter(errOut, logFile)
	}

	Info = log.New(getWriter("info", logFile, nullWriter), "ℹ️  INFO: ", log.Ldate|log.Ltime)
	Warn = log.New(getWriter("warn", logFile, nullWriter), "⚠️  WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	Debug = log.New(getWriter("debug", logFile, nullWriter), "🐛 DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	Verbose = log.New(getWriter("verbose", logFile, nullWriter), "🔍 VERBOSE: ", log.Ldate|log.Ltime|log.Lshortfile)
	Error = log.New(errWriter, "❌ ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	Always = log.New(logFile, "📝 ALWAYS: ", log.Ldate|log.Ltime)
}

// Close flushes and closes the rotating log file
func Close() error {
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

// Level returns the active log level
func Level() string {
	return currentLogLevel
}

// getWriter returns the appropriate writer based on log level
func getWriter(level string, activeWriter, disabledWriter io.Writer) io.Writer {
	if shouldLog(level) {
		return activeWriter
	}
	return disabledWriter
}

// shouldLog determines if a log level should be active
func shouldLog(level string) bool {
	levels := map[string]int{
		"error":   0,
		"warn":    1,
		"info":    2,
		"debug":   3,
		"verbose": 4,
	}

	currentLevel, exists := levels[currentLogLevel]
	if !exists {
		currentLevel = 2 // default to info
	}

	requiredLevel, exists := levels[level]
	if !exists {
		return false
	}

	return currentLevel >= requiredLevel
}
