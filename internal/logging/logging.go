// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// package logging is a thin wrapper around the standard library logger.
// Debug output is opt-in so TUI sessions stay quiet unless --debug is set.
package logging

import "log"

var debugEnabled bool

// SetDebug enables or disables debug logging for the application.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

// Debugf logs a formatted debug message when debug is enabled.
// Debugf is a no-op when debug is disabled.
func Debugf(format string, v ...any) {
	if debugEnabled {
		log.Printf("DEBUG "+format, v...)
	}
}

// Infof logs an informational formatted message.
func Infof(format string, v ...any) {
	log.Printf(format, v...)
}

// Warnf logs a warning formatted message.
func Warnf(format string, v ...any) {
	log.Printf("WARN "+format, v...)
}

// Errorf logs an error formatted message.
func Errorf(format string, v ...any) {
	log.Printf("ERROR "+format, v...)
}
