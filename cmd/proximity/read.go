package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/cmd/proximity/console"
)

var readCmd = cli.Command{
	Name:  "read",
	Usage: "run measurement cycles and print the results",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Value:   1,
			Usage:   "number of cycles",
		},
	},
	Action: func(c *cli.Context) error {
		cfg := configFrom(c)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		r, err := openRig(cfg, false)
		if err != nil {
			return console.Exit(1, "could not open peripherals: %s", console.Red(err))
		}
		defer func() { _ = r.Close() }()

		loop := r.loop(cfg)
		if err := loop.Start(ctx); err != nil {
			return console.Exit(1, "could not start: %s", console.Red(err))
		}
		for i := 0; i < c.Int("count"); i++ {
			if i > 0 {
				if err := proximity.Sleep(ctx, cfg.Timing.Pause); err != nil {
					return nil
				}
			}
			res, err := loop.Cycle(ctx)
			if err != nil {
				return nil
			}
			console.PInfof(console.PictoRuler, "distance: %s band: %s", console.White(res.Distance), console.Band(res.Band))
			if err := res.Err(); err != nil {
				console.Warnf("%s", err)
			}
		}
		return nil
	},
}
