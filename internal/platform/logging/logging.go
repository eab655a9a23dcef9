package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = New("info", os.Stdout)

// New builds a JSON logger. Unknown levels fall back to info.
func New(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(out)
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)
	return l
}

func Configure(level string) {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
}

func Get() *logrus.Logger {
	return logger
}

func SetOutput(out io.Writer) {
	logger.SetOutput(out)
}

// Error logs err with the module and operation it came from.
func Error(module, op string, err error, fields logrus.Fields) {
	entry := logger.WithFields(logrus.Fields{"module": module, "op": op})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(err.Error())
}

func Warn(module, op, msg string, fields logrus.Fields) {
	entry := logger.WithFields(logrus.Fields{"module": module, "op": op})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Warn(msg)
}
