package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used across the broker. It is a thin
// subset of logrus so call sites can attach structured fields without
// depending on a concrete implementation.
type Logger interface {
	WithFields(fields logrus.Fields) *logrus.Entry
	WithError(err error) *logrus.Entry
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
}

type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// GetLogger builds a logrus logger from the given config. An empty config
// yields an info-level text logger on stderr.
func GetLogger(conf *Config) (Logger, error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if conf != nil && conf.Level != "" {
		parsed, err := logrus.ParseLevel(conf.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	logger.SetLevel(level)

	if conf != nil && strings.EqualFold(conf.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stderr
	if conf != nil && conf.Path != "" {
		f, err := os.OpenFile(conf.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		out = f
	}
	logger.SetOutput(out)

	return logger, nil
}
