package log

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging surface used by the parser and the tooling.
type Logger interface {
	Debugf(format string, args ...interface{})

	Infof(format string, args ...interface{})

	Warnf(format string, args ...interface{})

	Errorf(format string, args ...interface{})

	Fatalf(format string, args ...interface{})
}

// Level filters the messages written by the default logger.
type Level int32

// Log levels, lowest first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("Level(%d)", int32(l))
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a Level.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", s)
}

var DefaultLogger Logger

var level int32 = int32(LevelWarn)

func init() {
	DefaultLogger = New(log.New(os.Stderr, "", log.LstdFlags))
}

// SetLevel sets the minimum level written by loggers created with New.
func SetLevel(l Level) {
	atomic.StoreInt32(&level, int32(l))
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	return Level(atomic.LoadInt32(&level))
}

// New wraps a stdlib logger. Fatalf always exits regardless of the level.
func New(l *log.Logger) Logger {
	return logWrapper{Logger: l}
}

type logWrapper struct {
	Logger *log.Logger
}

func enabled(l Level) bool {
	return l >= GetLevel()
}

func (logger logWrapper) Debugf(format string, args ...interface{}) {
	if enabled(LevelDebug) {
		logger.Logger.Printf("[DEBUG] "+format, args...)
	}
}

func (logger logWrapper) Infof(format string, args ...interface{}) {
	if enabled(LevelInfo) {
		logger.Logger.Printf("[INFO] "+format, args...)
	}
}

func (logger logWrapper) Warnf(format string, args ...interface{}) {
	if enabled(LevelWarn) {
		logger.Logger.Printf("[WARN] "+format, args...)
	}
}

func (logger logWrapper) Errorf(format string, args ...interface{}) {
	if enabled(LevelError) {
		logger.Logger.Printf("[ERROR] "+format, args...)
	}
}

func (logger logWrapper) Fatalf(format string, args ...interface{}) {
	logger.Logger.Fatalf("[FATAL] "+format, args...)
}

func Debugf(format string, args ...interface{}) {
	DefaultLogger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	DefaultLogger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	DefaultLogger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	DefaultLogger.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	DefaultLogger.Fatalf(format, args...)
}
