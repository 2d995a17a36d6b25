package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// CommonFlags returns the process-wide flags: where state lives, how to
// log and whether to expose metrics. Every one of them can also be set
// through its environment variable (see EnvVar).
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "datadir",
			Usage:  "Data directory for the hermes database",
			Value:  "~/.hermes",
			EnvVar: EnvVar("datadir"),
		},
		cli.StringFlag{
			Name:   "config",
			Usage:  "TOML configuration file",
			EnvVar: EnvVar("config"),
		},
		cli.StringFlag{
			Name:  "envfile",
			Usage: "File of KEY=VALUE lines providing HERMES_* variables not set in the environment",
		},
		cli.StringFlag{
			Name:   "preset",
			Usage:  "Deployment preset (default|dev|production)",
			EnvVar: EnvVar("preset"),
		},
		cli.StringFlag{
			Name:   "store",
			Usage:  "Store backend (bolt|memory)",
			Value:  "bolt",
			EnvVar: EnvVar("store"),
		},
		cli.StringFlag{
			Name:   "log.format",
			Usage:  "Log output format (text|json)",
			Value:  "text",
			EnvVar: EnvVar("log.format"),
		},
		cli.IntFlag{
			Name:   "log.verbosity",
			Usage:  "Logging verbosity (0=fatal,1=error,2=warn,3=info,4=debug,5=trace)",
			Value:  3,
			EnvVar: EnvVar("log.verbosity"),
		},
		cli.BoolFlag{
			Name:   "log.color",
			Usage:  "Enable colored log output",
			EnvVar: EnvVar("log.color"),
		},
		cli.StringFlag{
			Name:   "sentry.dsn",
			Usage:  "Report error level log entries to this Sentry DSN",
			EnvVar: EnvVar("sentry.dsn"),
		},
		cli.BoolFlag{
			Name:   "metrics",
			Usage:  "Expose Prometheus metrics over HTTP",
			EnvVar: EnvVar("metrics"),
		},
		cli.StringFlag{
			Name:   "metrics.addr",
			Usage:  "Metrics server listening interface",
			Value:  "127.0.0.1",
			EnvVar: EnvVar("metrics.addr"),
		},
		cli.IntFlag{
			Name:   "metrics.port",
			Usage:  "Metrics server listening port",
			Value:  6060,
			EnvVar: EnvVar("metrics.port"),
		},
	}
}
