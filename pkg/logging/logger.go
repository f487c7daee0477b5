// Package logging provides a small file-backed leveled logger for the
// control plane. It appends timestamped lines to the logfile given to Init
// and falls back to stderr when the file is unavailable, so a broken
// logfile never silences diagnostics.
package logging

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	logFile     *os.File
	logMutex    sync.Mutex
	initialized bool
)

// Init opens (creating if needed) the logfile at path. Calling Init again
// is a no-op until Close is called; after Close, Init opens a file again.
func Init(path string) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if initialized {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open logfile: %w", err)
	}
	logFile = f
	initialized = true

	writeLocked("INFO", "logger initialized", []any{"file", path})
	return nil
}

// Info logs an informational message with key/value pairs.
func Info(msg string, keyvals ...any) { write("INFO", msg, keyvals) }

// Warn logs a warning.
func Warn(msg string, keyvals ...any) { write("WARN", msg, keyvals) }

// Error logs an error.
func Error(msg string, keyvals ...any) { write("ERROR", msg, keyvals) }

// Debug logs a debug message.
func Debug(msg string, keyvals ...any) { write("DEBUG", msg, keyvals) }

func write(level, msg string, keyvals []any) {
	logMutex.Lock()
	defer logMutex.Unlock()
	writeLocked(level, msg, keyvals)
}

func writeLocked(level, msg string, keyvals []any) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %s: %s", ts, level, msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}
	line += "\n"

	if logFile == nil {
		fmt.Fprint(os.Stderr, line)
		return
	}
	if _, err := logFile.WriteString(line); err != nil {
		fmt.Fprint(os.Stderr, line)
		fmt.Fprintf(os.Stderr, "[logging] write failed: %v\n", err)
	}
}

// Close releases the logfile handle. Safe to call even if Init was never
// called.
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
		initialized = false
	}
}
