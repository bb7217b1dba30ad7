package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/gt811/twi"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run(os.Args))
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "gt811"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "GT811 touch controller tool"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Usage:   "bus adapter: periph, mcp2221, nanopi or sim",
			Value:   "periph",
			EnvVars: []string{"GT811_ADAPTER"},
		},
		&cli.StringFlag{
			Name:    "dev",
			Aliases: []string{"d"},
			Usage:   "i2c device for the periph adapter",
			Value:   "/dev/i2c-1",
		},
		&cli.IntFlag{
			Name:  "bus",
			Usage: "bus number for the nanopi adapter",
			Value: 0,
		},
		&cli.StringFlag{
			Name:  "address",
			Usage: "7-bit device address",
			Value: fmt.Sprintf("%#02x", twi.DefaultAddress),
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "bound on each bus wait of the simulated engine",
			Value: 100 * time.Millisecond,
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&configCmd,
		&setupCmd,
		&readCmd,
		&writeCmd,
		&simCmd,
		&shellCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	return app
}

func run(args []string) int {
	err := newApp().Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}
