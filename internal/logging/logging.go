// Package logging wraps the standard logger with a level gate driven
// by configuration.
package logging

import (
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var current atomic.Int32

var (
	debugLog = log.New(os.Stderr, "DEBUG ", log.LstdFlags)
	infoLog  = log.New(os.Stderr, "INFO  ", log.LstdFlags)
	warnLog  = log.New(os.Stderr, "WARN  ", log.LstdFlags)
	errorLog = log.New(os.Stderr, "ERROR ", log.LstdFlags)
)

func init() {
	current.Store(int32(LevelInfo))
}

// SetLevel sets the minimum level from a config string. Unknown values
// keep the info default.
func SetLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		current.Store(int32(LevelDebug))
	case "info", "":
		current.Store(int32(LevelInfo))
	case "warn", "warning":
		current.Store(int32(LevelWarn))
	case "error":
		current.Store(int32(LevelError))
	}
}

func enabled(l Level) bool {
	return int32(l) >= current.Load()
}

func Debugf(format string, args ...any) {
	if enabled(LevelDebug) {
		debugLog.Printf(format, args...)
	}
}

func Infof(format string, args ...any) {
	if enabled(LevelInfo) {
		infoLog.Printf(format, args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled(LevelWarn) {
		warnLog.Printf(format, args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled(LevelError) {
		errorLog.Printf(format, args...)
	}
}
