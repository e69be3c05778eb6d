package authclient

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// newLogger builds the default logger from cfg. Config.Validate has already checked
// Level and Format.
func newLogger(cfg LoggingConfig, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(out)

	level := logrus.InfoLevel
	if cfg.Level != "" {
		if parsed, err := logrus.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

func callFields(req *Request) logrus.Fields {
	return logrus.Fields{
		"request_id": req.ID,
		"method":     req.Method,
		"path":       req.Path,
		"retried":    req.retried,
	}
}
