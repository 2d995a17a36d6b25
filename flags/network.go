package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NetworkFlags select the deployment rules and override single fields of
// them. Unset overrides keep the value of the selected network.
func NetworkFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "network",
			Usage:  "Network rules to use (main|test|fake)",
			Value:  "fake",
			EnvVar: EnvVar("network"),
		},
		cli.Uint64Flag{
			Name:   "startepoch",
			Usage:  "First epoch the ledger accepts distributions for",
			EnvVar: EnvVar("startepoch"),
		},
		cli.StringFlag{
			Name:   "registry.address",
			Usage:  "Registry address rendered into signed register/deregister messages",
			EnvVar: EnvVar("registry.address"),
		},
		cli.StringFlag{
			Name:   "batcher.operator",
			Usage:  "Address receiving the tips attached to payment batches",
			EnvVar: EnvVar("batcher.operator"),
		},
		cli.StringFlag{
			Name:   "batcher.mintips",
			Usage:  "Minimum fee every payment batch carries on top of its amounts",
			EnvVar: EnvVar("batcher.mintips"),
		},
		cli.IntFlag{
			Name:   "batcher.limit",
			Usage:  "Maximum number of payees per payment batch",
			EnvVar: EnvVar("batcher.limit"),
		},
		cli.StringFlag{
			Name:   "analytics.endpoint",
			Usage:  "Analytics endpoint seeded into a fresh store",
			EnvVar: EnvVar("analytics.endpoint"),
		},
	}
}
