// Package logx provides structured logging for the habitpred daemon
package logx

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with a keys-and-values call style. Output is one JSON
// object per line.
type Logger struct {
	l *logrus.Logger
}

// New creates a structured logger at the given level. Unknown level strings
// fall back to info.
func New(levelStr string) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "msg",
		},
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	return &Logger{l: l}
}

// fields converts alternating key/value arguments into logrus fields. A
// single map argument is accepted as-is. Odd trailing keys are dropped.
func fields(keysAndValues ...interface{}) logrus.Fields {
	f := logrus.Fields{}
	if len(keysAndValues) == 1 {
		if m, ok := keysAndValues[0].(map[string]interface{}); ok {
			for k, v := range m {
				f[k] = v
			}
			return f
		}
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprintf("%v", keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}

// Debug logs a debug message
func (lg *Logger) Debug(msg string, keysAndValues ...interface{}) {
	lg.l.WithFields(fields(keysAndValues...)).Debug(msg)
}

// Info logs an info message
func (lg *Logger) Info(msg string, keysAndValues ...interface{}) {
	lg.l.WithFields(fields(keysAndValues...)).Info(msg)
}

// Warn logs a warning message
func (lg *Logger) Warn(msg string, keysAndValues ...interface{}) {
	lg.l.WithFields(fields(keysAndValues...)).Warn(msg)
}

// Error logs an error message
func (lg *Logger) Error(msg string, keysAndValues ...interface{}) {
	lg.l.WithFields(fields(keysAndValues...)).Error(msg)
}
