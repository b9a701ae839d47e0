package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity/adapter"
)

// knownBridges are the USB bridges the bus and indicator backends can drive.
var knownBridges = map[string][2]uint16{
	"MCP2221": {adapter.VendorID, adapter.ProductID},
}

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "inspect USB HID devices",
	Subcommands: cli.Commands{
		&usbLsCmd,
		&usbDetectCmd,
	},
}

var usbLsCmd = cli.Command{
	Name:  "ls",
	Usage: "list all HID devices",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(os.Stdout, 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")
		for _, dev := range hid.Enumerate(0, 0) {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		return w.Flush()
	},
}

var usbDetectCmd = cli.Command{
	Name:  "detect",
	Usage: "list attached bridges usable as bus or indicator backend",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(os.Stdout, 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "DEVICE\tVENDOR\tPRODUCT\tPATH\n")
		for name, ids := range knownBridges {
			for _, dev := range hid.Enumerate(ids[0], ids[1]) {
				_, _ = fmt.Fprintf(w, "%s\t%#x\t%#x\t%s\n", name, dev.VendorID, dev.ProductID, dev.Path)
			}
		}
		return w.Flush()
	},
}
