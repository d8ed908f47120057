// Package logx provides structured logging with env-controlled debug output.
package logx

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Logger struct {
	agentID string
	logger  *log.Logger
}

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Global debug switch, initialized once from the environment.
var (
	debugEnabled bool
	debugOnce    sync.Once
)

func debugOn() bool {
	debugOnce.Do(func() {
		if v := os.Getenv("DEBUG"); v == "1" || strings.EqualFold(v, "true") {
			debugEnabled = true
		}
	})
	return debugEnabled
}

func NewLogger(agentID string) *Logger {
	return &Logger{
		agentID: agentID,
		logger:  log.New(os.Stderr, "", 0), // Log to stderr for CLI compatibility
	}
}

// SetDebug overrides the env-derived debug setting. Used by tests and the CLI.
func SetDebug(enabled bool) {
	debugOnce.Do(func() {})
	debugEnabled = enabled
}

func (l *Logger) logMessage(level Level, format string, args ...any) {
	timestamp := time.Now().Format("15:04:05.000")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%s [%s] %s: %s", timestamp, level, l.agentID, message)
}

// Debug logs a debug message. No-op unless DEBUG=1 or SetDebug(true).
func (l *Logger) Debug(format string, args ...any) {
	if !debugOn() {
		return
	}
	l.logMessage(LevelDebug, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.logMessage(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.logMessage(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.logMessage(LevelError, format, args...)
}
