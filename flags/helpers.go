package flags

import (
	"os"
	"strings"

	cli "gopkg.in/urfave/cli.v1"
)

// EnvPrefix is prepended to the environment variable of every global flag.
const EnvPrefix = "HERMES_"

// NewApp returns the bare hermes application. Commands and flags are
// attached by the launcher.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "hermes"
	app.Usage = "Reward distribution ledger and forward registry"
	app.Version = "0.1.0"
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	return app
}

// EnvVar returns the environment variable bound to the flag name, for
// example HERMES_LOG_VERBOSITY for log.verbosity.
func EnvVar(name string) string {
	return EnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(name))
}

// EnvBindings maps flag names to their environment variables for every flag
// in fs that has one.
func EnvBindings(fs []cli.Flag) map[string]string {
	out := make(map[string]string, len(fs))
	for _, f := range fs {
		var env string
		switch f := f.(type) {
		case cli.StringFlag:
			env = f.EnvVar
		case cli.IntFlag:
			env = f.EnvVar
		case cli.Uint64Flag:
			env = f.EnvVar
		case cli.BoolFlag:
			env = f.EnvVar
		}
		if env != "" {
			out[f.GetName()] = env
		}
	}
	return out
}
