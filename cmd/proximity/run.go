package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity/cmd/proximity/console"
	"github.com/mklimuk/proximity/control"
)

var runCmd = cli.Command{
	Name:  "run",
	Usage: "measure, report and indicate until interrupted",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "output",
			Usage: "report output: serial or stdout",
		},
	},
	Action: func(c *cli.Context) error {
		cfg := configFrom(c)
		if c.IsSet("output") {
			cfg.Report.Output = c.String("output")
		}
		if err := cfg.Validate(); err != nil {
			return console.Exit(1, "invalid configuration: %s", console.Red(err))
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r, err := openRig(cfg, true)
		if err != nil {
			return console.Exit(1, "could not open peripherals: %s", console.Red(err))
		}
		defer func() { _ = r.Close() }()

		loop := r.loop(cfg, control.WithObserver(func(res control.CycleResult) {
			slog.Debug("cycle", "distance", res.Distance, "band", res.Band, "error", res.Err())
		}))
		if err := loop.Start(ctx); err != nil {
			return console.Exit(1, "could not start control loop: %s", console.Red(err))
		}
		slog.Info("control loop running", "sensor", r.sensor.Address(), "bus", cfg.Bus.Backend, "indicator", cfg.Indicator.Backend)
		err = loop.Run(ctx)
		if errors.Is(err, context.Canceled) {
			slog.Info("control loop stopped")
			return nil
		}
		return err
	},
}
