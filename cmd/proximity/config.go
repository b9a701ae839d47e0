package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity/cmd/proximity/console"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "inspect the effective configuration",
	Subcommands: cli.Commands{
		&cli.Command{
			Name:  "show",
			Usage: "print the effective configuration as YAML",
			Action: func(c *cli.Context) error {
				data, err := configFrom(c).Dump()
				if err != nil {
					return console.Exit(1, "encoding error: %s", console.Red(err))
				}
				_, _ = os.Stdout.Write(data)
				return nil
			},
		},
		&cli.Command{
			Name:  "check",
			Usage: "validate the configuration file",
			Action: func(c *cli.Context) error {
				if err := configFrom(c).Validate(); err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				console.Infof("%s", console.Green("configuration is valid"))
				return nil
			},
		},
	},
}
