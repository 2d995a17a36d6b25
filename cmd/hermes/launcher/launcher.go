// Package launcher wires the hermes command line: flag definitions,
// configuration layering (defaults, preset, TOML file, environment, flags),
// logging, the metrics endpoint and the commands operating the ledger and
// the forward registry.
package launcher

import (
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-hermes/flags"
)

// NewApp returns the hermes application with every command attached.
func NewApp() *cli.App {
	app := flags.NewApp()
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.NetworkFlags()...)
	app.Commands = commands()
	app.Before = loadEnvFile
	return app
}

// Launch runs the application with the given process arguments.
func Launch(args []string) error {
	return NewApp().Run(args)
}
