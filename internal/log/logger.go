// Package log provides a global logger with configurable logging level. Output goes to stderr
// through logrus so that hosts embedding the library can redirect or reformat it.

package log

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

type Level int

const (
	LevelNone    Level = iota // Disables logging.
	LevelError                // Logs anamolies that are not expected to occur during normal use.
	LevelWarning              // Logs anamolies that are expected to occur occasionally during normal use.
	LevelInfo                 // Logs major events.
	LevelDebug                // Logs detailed IO
)

var (
	globalLogLevel Level
	logMutex       sync.Mutex
	logger         = newLogger(os.Stderr)
)

var logrusLevels = map[Level]logrus.Level{
	LevelNone:    logrus.PanicLevel,
	LevelError:   logrus.ErrorLevel,
	LevelWarning: logrus.WarnLevel,
	LevelInfo:    logrus.InfoLevel,
	LevelDebug:   logrus.DebugLevel,
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		DisableColors:    true,
		DisableQuote:     true,
		QuoteEmptyFields: true,
	})
	l.SetLevel(logrusLevels[LevelNone])
	return l
}

func SetLevel(level Level) {
	logMutex.Lock()
	defer logMutex.Unlock()
	if _, ok := logrusLevels[level]; !ok {
		level = LevelDebug
	}
	globalLogLevel = level
	logger.SetLevel(logrusLevels[level])
}

// SetOutput redirects log output. Hosts that own stderr (for example a mobile runtime loading the
// C bridge) use this to capture messages.
func SetOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logger.SetOutput(w)
}

func logLevel() Level {
	logMutex.Lock()
	defer logMutex.Unlock()
	return globalLogLevel
}

func log(level Level, format string, a ...interface{}) {
	if level > logLevel() {
		return
	}
	switch level {
	case LevelDebug:
		logger.Debugf(format, a...)
	case LevelInfo:
		logger.Infof(format, a...)
	case LevelWarning:
		logger.Warnf(format, a...)
	case LevelError:
		logger.Errorf(format, a...)
	}
}

// WithFields logs msg at level with structured fields attached.
func WithFields(level Level, fields map[string]interface{}, msg string) {
	if level > logLevel() {
		return
	}
	entry := logger.WithFields(logrus.Fields(fields))
	switch level {
	case LevelDebug:
		entry.Debug(msg)
	case LevelInfo:
		entry.Info(msg)
	case LevelWarning:
		entry.Warn(msg)
	case LevelError:
		entry.Error(msg)
	}
}

func Debug(format string, a ...interface{}) {
	log(LevelDebug, format, a...)
}
func Info(format string, a ...interface{}) {
	log(LevelInfo, format, a...)
}
func Warning(format string, a ...interface{}) {
	log(LevelWarning, format, a...)
}
func Error(format string, a ...interface{}) {
	log(LevelError, format, a...)
}
