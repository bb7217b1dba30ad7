package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/gt811/adapter"
	"github.com/mklimuk/gt811/cmd/gt811/console"
)

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "list USB HID devices",
	Subcommands: cli.Commands{
		&usbLsCmd,
		&usbDetectCmd,
	},
}

var usbLsCmd = cli.Command{
	Name: "ls",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(0, 0)
		w := tabwriter.NewWriter(console.Output(), 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")
		for _, dev := range devices {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		_ = w.Flush()
		return nil
	},
}

var usbDetectCmd = cli.Command{
	Name:  "detect",
	Usage: "find attached I2C bridges",
	Action: func(c *cli.Context) error {
		devices := adapter.Enumerate()
		if len(devices) == 0 {
			console.PInfof(console.PictoGhost, "no MCP2221 bridge attached")
			return nil
		}
		w := tabwriter.NewWriter(console.Output(), 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "ID\tVENDOR\tPRODUCT\tDEVICE\tSERIAL\n")
		for i, dev := range devices {
			_, _ = fmt.Fprintf(w, "%d\t%#x\t%#x\t%s\t%s\n", i, dev.VendorID, dev.ProductID, "MCP2221", dev.Serial)
		}
		_ = w.Flush()
		return nil
	},
}

var bridgeIDFlag = &cli.IntFlag{
	Name:  "id",
	Usage: "bridge index from usb detect",
	Value: -1,
}

func newBridge(c *cli.Context) *adapter.MCP2221 {
	if id := c.Int("id"); id >= 0 {
		return adapter.NewMCP2221(adapter.WithDeviceIndex(id))
	}
	return adapter.NewMCP2221()
}

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 bridge maintenance",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221SpeedCmd,
	},
}

func printStatus(status *adapter.MCP2221Status) error {
	enc := yaml.NewEncoder(console.Output())
	defer func() { _ = enc.Close() }()
	return enc.Encode(status)
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Flags: []cli.Flag{bridgeIDFlag},
	Action: func(c *cli.Context) error {
		status, err := newBridge(c).Status(commandContext(c))
		if err != nil {
			return console.Exit(console.ExitBus, "adapter communication error: %s", console.Red(err))
		}
		if err := printStatus(status); err != nil {
			return console.Exit(console.ExitFailure, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and free the bus",
	Flags: []cli.Flag{bridgeIDFlag},
	Action: func(c *cli.Context) error {
		status, err := newBridge(c).ReleaseBus(commandContext(c))
		if err != nil {
			return console.Exit(console.ExitBus, "adapter communication error: %s", console.Red(err))
		}
		if err := printStatus(status); err != nil {
			return console.Exit(console.ExitFailure, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

var mcp2221SpeedCmd = cli.Command{
	Name:      "speed",
	Usage:     "set the bus clock",
	ArgsUsage: "<kHz>",
	Flags:     []cli.Flag{bridgeIDFlag},
	Action: func(c *cli.Context) error {
		var khz int64
		if _, err := fmt.Sscan(c.Args().First(), &khz); err != nil {
			return console.Exit(console.ExitUsage, "invalid speed %q", c.Args().First())
		}
		f := physic.Frequency(khz) * physic.KiloHertz
		if err := newBridge(c).SetSpeed(commandContext(c), f); err != nil {
			return console.Exit(console.ExitBus, "adapter communication error: %s", console.Red(err))
		}
		console.Infof("bus speed set to %s", console.White(f))
		return nil
	},
}
