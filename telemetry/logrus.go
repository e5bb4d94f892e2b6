//go:build !tinygo && !baremetal

package telemetry

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns the host-side logger used by the simulator, the host
// tools and Linux boards. Unknown level names fall back to info.
func NewLogger(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	log.Out = out
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Component returns a sink that logs at debug level with a component field.
func Component(log logrus.FieldLogger, name string) Sink {
	return componentSink{log.WithField("component", name)}
}

type componentSink struct{ e *logrus.Entry }

func (c componentSink) Printf(format string, args ...interface{}) {
	c.e.Debugf(format, args...)
}
