package main

import (
	"context"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/proximity/adapter"
	"github.com/mklimuk/proximity/cmd/proximity/console"
	"github.com/mklimuk/proximity/snsctx"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 USB bridge maintenance",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221GPIOCmd,
	},
}

func bridgeContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
}

func dumpYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(v); err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}

type bridgeReport struct {
	I2C *adapter.MCP2221Status        `yaml:"i2c"`
	GP  adapter.MCP2221GPIOParameters `yaml:"gp"`
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the bridge I2C engine status and GP line settings",
	Action: func(c *cli.Context) error {
		ctx := bridgeContext(c)
		bridge := adapter.NewMCP2221()
		status, err := bridge.Status(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		gp, err := bridge.GetGPIOParameters(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return dumpYAML(bridgeReport{I2C: status, GP: gp})
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel a stuck I2C transfer and release the bus",
	Action: func(c *cli.Context) error {
		status, err := adapter.NewMCP2221().ReleaseBus(bridgeContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return dumpYAML(status)
	},
}

var mcp2221GPIOCmd = cli.Command{
	Name:      "gpio",
	Usage:     "read the GP lines or drive them with a level mask",
	ArgsUsage: "[mask]",
	Action: func(c *cli.Context) error {
		ctx := bridgeContext(c)
		bridge := adapter.NewMCP2221()
		if c.NArg() == 1 {
			mask, err := strconv.ParseUint(c.Args().Get(0), 0, 4)
			if err != nil {
				return console.Exit(1, "invalid mask: %v", err)
			}
			if err := bridge.SetGPIOOutputs(ctx, 0x0F, byte(mask)); err != nil {
				return console.Exit(1, "adapter communication error: %s", console.Red(err))
			}
		}
		values, err := bridge.ReadGPIO(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return dumpYAML(values)
	},
}
