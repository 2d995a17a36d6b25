package launcher

import (
	"io"
	"time"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// sentryTimeout bounds how long an error entry waits for Sentry.
const sentryTimeout = 5 * time.Second

// newLogger builds the process logger. Verbosity uses the 0=fatal..5=trace
// scale of --log.verbosity; values outside it are clamped.
func newLogger(cfg Config, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(verbosityLevel(cfg.Node.Logging.Verbosity))

	switch cfg.Node.Logging.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   cfg.Node.Logging.Color,
			DisableColors: !cfg.Node.Logging.Color,
		})
	}

	if cfg.Sentry.DSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.Sentry.DSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return nil, err
		}
		hook.Timeout = sentryTimeout
		log.AddHook(hook)
	}
	return log, nil
}

func verbosityLevel(v int) logrus.Level {
	switch {
	case v < 0:
		v = 0
	case v > 5:
		v = 5
	}
	// logrus counts from PanicLevel = 0
	return logrus.Level(v + 1)
}
