package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/classify"
	"github.com/mklimuk/proximity/cmd/proximity/console"
	"github.com/mklimuk/proximity/indicator"
)

var selftestCmd = cli.Command{
	Name:  "selftest",
	Usage: "strobe every indicator and take one reading",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "hold",
			Value: time.Second,
			Usage: "how long each indicator stays lit",
		},
		&cli.BoolFlag{
			Name:  "yes",
			Usage: "do not ask for confirmation",
		},
	},
	Action: func(c *cli.Context) error {
		cfg := configFrom(c)
		ctx := context.Background()
		r, err := openRig(cfg, false)
		if err != nil {
			return console.Exit(1, "could not open peripherals: %s", console.Red(err))
		}
		defer func() { _ = r.Close() }()
		if r.busInit != nil {
			if err := r.busInit(ctx); err != nil {
				return console.Exit(1, "could not initialize bus: %s", console.Red(err))
			}
		}

		patterns := make(indicator.Patterns, len(cfg.Indicator.Patterns))
		for band, pat := range cfg.Indicator.Patterns {
			pat.Duration = c.Duration("hold")
			patterns[band] = pat
		}
		ind := indicator.New(r.port, indicator.WithPatterns(patterns), indicator.WithOffPhase(false))
		if err := ind.Init(ctx); err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}

		failed := 0
		for _, band := range classify.Bands {
			pat, err := ind.Indicate(ctx, band)
			if err != nil {
				console.Errorf("could not strobe %s: %s", band, err)
				failed++
				continue
			}
			if c.Bool("yes") {
				console.PInfof(console.PictoBulb, "strobed %s (mask %#x)", console.Band(band), pat.Mask)
				continue
			}
			answer, err := console.YesOrNo("did the " + console.Band(band) + " indicator light up?")
			if err != nil {
				return console.Exit(1, "prompt error: %s", err)
			}
			if answer != console.Yes {
				failed++
			}
		}

		if err := r.sensor.StartRanging(ctx); err != nil {
			console.Errorf("could not trigger sensor: %s", err)
			failed++
		} else if err := proximity.Sleep(ctx, cfg.Timing.Measure); err != nil {
			return err
		}
		d, err := r.sensor.ReadDistance(ctx)
		if err != nil {
			console.Errorf("could not read sensor: %s", err)
			failed++
		} else {
			console.PInfof(console.PictoRuler, "sensor at %#x reads %s", r.sensor.Address(), console.White(d))
		}

		if failed > 0 {
			return console.Exit(2, "%d check(s) failed", failed)
		}
		console.PInfof(console.PictoFinish, "%s", console.Green("all checks passed"))
		return nil
	},
}
