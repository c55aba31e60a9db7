// ///////////////////////////////////////////////////////////////////////////
//
// # Parity - Tabular Data Reconciliation Engine
//
// Copyright (C) 2024 - 2026, Parityworks (https://www.parityworks.io/)
//
// This software is released under the PostgreSQL License:
// https://opensource.org/license/postgresql
//
// ///////////////////////////////////////////////////////////////////////////

package logger

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

var (
	// Log is the global logger.
	Log = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
)

// SetLevel sets the log level for the global logger.
func SetLevel(level log.Level) {
	Log.SetLevel(level)
}

func SetOutput(w *os.File) {
	Log.SetOutput(w)
}

// Info logs a formatted string at the info level.
func Info(format string, args ...any) {
	Log.Infof(format, args...)
}

// Debug logs a formatted string at the debug level.
func Debug(format string, args ...any) {
	Log.Debugf(format, args...)
}

// Warn logs a formatted string at the warn level.
func Warn(format string, args ...any) {
	Log.Warnf(format, args...)
}

// Error logs a formatted string at the error level and returns it as an
// error so call sites can log and propagate in one step.
func Error(format string, args ...any) error {
	Log.Errorf(format, args...)
	return fmt.Errorf(format, args...)
}

func Fatal(msg any, args ...any) {
	Log.Fatal(msg, args...)
}
