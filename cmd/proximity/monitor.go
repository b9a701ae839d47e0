package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity/cmd/proximity/console"
	"github.com/mklimuk/proximity/monitor"
)

var monitorCmd = cli.Command{
	Name:  "monitor",
	Usage: "tail report lines from a device serial port",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "serial device"},
		&cli.IntFlag{Name: "baud", Usage: "baud rate"},
		&cli.StringFlag{Name: "csv", Usage: "append received lines to a CSV file"},
		&cli.StringFlag{Name: "mqtt", Usage: "publish readings to an MQTT broker (tcp://host:1883)"},
		&cli.DurationFlag{Name: "stats", Value: 10 * time.Second, Usage: "statistics interval, 0 disables"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "do not print received lines"},
	},
	Action: func(c *cli.Context) error {
		cfg := configFrom(c).Monitor
		if c.IsSet("device") {
			cfg.Serial.Device = c.String("device")
		}
		if c.IsSet("baud") {
			cfg.Serial.BaudRate = c.Int("baud")
		}
		if c.IsSet("csv") {
			cfg.CSVPath = c.String("csv")
		}
		if c.IsSet("mqtt") {
			cfg.MQTT.Broker = c.String("mqtt")
		}
		if err := cfg.Validate(); err != nil {
			return console.Exit(1, "invalid monitor configuration: %s", console.Red(err))
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var sinks []monitor.Sink
		if !c.Bool("quiet") {
			sinks = append(sinks, monitor.SinkFunc(printEvent))
		}
		if cfg.CSVPath != "" {
			csvSink, err := monitor.OpenCSVSink(cfg.CSVPath)
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			defer func() { _ = csvSink.Close() }()
			sinks = append(sinks, csvSink)
			slog.Info("logging to csv", "path", cfg.CSVPath)
		}
		if cfg.MQTT.Broker != "" {
			client, err := monitor.ConnectMQTT(ctx, cfg.MQTT)
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			defer client.Disconnect(250)
			sinks = append(sinks, monitor.NewMQTTSink(client, cfg.MQTT))
		}

		m := monitor.New(monitor.SerialOpener(cfg.Serial),
			monitor.WithSinks(sinks...),
			monitor.WithThresholds(configFrom(c).Thresholds),
			monitor.WithReconnect(cfg.Reconnect))
		if interval := c.Duration("stats"); interval > 0 {
			go reportStats(ctx, m.Stats(), interval)
		}
		console.PInfof(console.PictoPlug, "monitoring %s at %d baud", console.White(cfg.Serial.Device), cfg.Serial.BaudRate)
		err := m.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func printEvent(ctx context.Context, ev monitor.Event) error {
	ts := ev.Time.Format(time.TimeOnly)
	switch {
	case ev.Err != nil:
		console.Printf("[%s] %s\n", ts, console.Yellow(ev.Raw))
	case ev.Line.Ready:
		console.Printf("[%s] %s\n", ts, console.Green("device ready"))
	default:
		console.Printf("[%s] %s %s\n", ts, console.White(ev.Line.Distance), console.Band(ev.Band))
	}
	return nil
}

func reportStats(ctx context.Context, stats *monitor.Stats, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s := stats.Snapshot(now)
			slog.Info("serial statistics",
				"messages", s.Messages,
				"bytes", s.Bytes,
				"avg_size", s.AvgSize,
				"msg_rate", s.MessageRate,
				"data_rate", s.DataRate,
				"errors", s.Errors,
				"reconnects", s.Reconnects)
		}
	}
}
