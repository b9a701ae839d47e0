package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity/config"
	"github.com/mklimuk/proximity/logging"
)

var version string
var commit string
var date string

const metaConfig = "config"

func main() {
	os.Exit(run())
}

func run() int {
	app := cli.NewApp()
	app.Name = "proximity"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "time-of-flight proximity monitor"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to the YAML configuration file",
			EnvVars: []string{"PROXIMITY_CONFIG"},
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "log handler: charm, tint or json",
		},
	}
	app.Before = func(c *cli.Context) error {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if c.Bool("verbose") {
			cfg.Log.Level = "debug"
		}
		if c.IsSet("log-format") {
			cfg.Log.Format = c.String("log-format")
		}
		if err := logging.Setup(cfg.Log, os.Stderr); err != nil {
			return err
		}
		c.App.Metadata = map[string]interface{}{metaConfig: cfg}
		return nil
	}
	app.Commands = cli.Commands{
		&runCmd,
		&readCmd,
		&selftestCmd,
		&monitorCmd,
		&configCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	err := app.Run(os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		log.Printf("error: %v", err)
		return 1
	}
	return 0
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}
