package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a service-scoped entry logging JSON to stdout. The level
// comes from LOG_LEVEL (default info).
func New(service string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		l.SetLevel(lvl)
	}
	return l.WithField("service", service)
}
