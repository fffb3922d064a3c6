package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})
	return l
}

// levelNames lists the accepted log level names, quietest first
var levelNames = []string{"error", "warn", "info", "debug", "trace"}

// ParseLevel converts a level name into a logrus level
func ParseLevel(name string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return logrus.ErrorLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "info", "":
		return logrus.InfoLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "trace":
		return logrus.TraceLevel, nil
	}
	return logrus.InfoLevel, fmt.Errorf("unknown log level %q (expected one of %s)", name, strings.Join(levelNames, ", "))
}

// RaiseLevel returns the level name that is steps more verbose than base,
// clamped at trace.
func RaiseLevel(base string, steps int) string {
	idx := 2
	if level, err := ParseLevel(base); err == nil {
		for i, name := range levelNames {
			if l, _ := ParseLevel(name); l == level {
				idx = i
			}
		}
	}
	idx += steps
	if idx >= len(levelNames) {
		idx = len(levelNames) - 1
	}
	return levelNames[idx]
}

func SetLevel(name string) error {
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return nil
}

func Level() string {
	return logger.GetLevel().String()
}

// IsVerbose reports whether Verbose messages are written
func IsVerbose() bool {
	return logger.IsLevelEnabled(logrus.DebugLevel)
}

// SetLogFile redirects log output to path, appending
func SetLogFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(f)
	return nil
}

// AddHook attaches a logrus hook to the logger and returns a func that
// detaches it again
func AddHook(hook logrus.Hook) func() {
	logger.AddHook(hook)
	return func() {
		remaining := make(logrus.LevelHooks)
		for level, hooks := range logger.Hooks {
			for _, h := range hooks {
				if h != hook {
					remaining[level] = append(remaining[level], h)
				}
			}
		}
		logger.ReplaceHooks(remaining)
	}
}

// WithFields returns an entry carrying structured fields, for components
// that log repeatedly about the same subject (a session, an action).
func WithFields(fields logrus.Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

func Trace(format string, args ...interface{}) {
	logger.Tracef(format, args...)
}

func Verbose(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Since formats an elapsed duration rounded to milliseconds
func Since(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
