package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/gt811"
	"github.com/mklimuk/gt811/adapter"
	"github.com/mklimuk/gt811/busctx"
	"github.com/mklimuk/gt811/cmd/gt811/console"
	"github.com/mklimuk/gt811/i2c"
	"github.com/mklimuk/gt811/twi"
)

// session is an open connection to the controller.
type session struct {
	dev    *gt811.Device
	sim    *twi.Sim
	closer io.Closer
}

func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

func commandContext(c *cli.Context) context.Context {
	return busctx.SetVerbose(c.Context, c.Bool("verbose"))
}

func parseAddress(s string) (byte, error) {
	addr, err := strconv.ParseUint(s, 0, 7)
	if err != nil {
		return 0, fmt.Errorf("invalid device address %q: %w", s, err)
	}
	return byte(addr), nil
}

// openSession connects to the controller through the selected adapter.
func openSession(c *cli.Context) (*session, error) {
	addr, err := parseAddress(c.String("address"))
	if err != nil {
		return nil, console.Exit(console.ExitUsage, "%s", console.Red(err))
	}
	switch name := c.String("adapter"); name {
	case "periph", "generic":
		bus, err := i2c.NewGenericBus(c.String("dev"))
		if err != nil {
			return nil, console.Exit(console.ExitBus, "adapter initialization error: %s", console.Red(err))
		}
		return &session{
			dev:    gt811.New(gt811.NewAddressedBus(bus, addr)),
			closer: bus,
		}, nil
	case "mcp2221":
		ad := adapter.NewMCP2221()
		if err := ad.Init(commandContext(c)); err != nil {
			return nil, console.Exit(console.ExitBus, "adapter initialization error: %s", console.Red(err))
		}
		return &session{dev: gt811.New(gt811.NewAddressedBus(ad, addr))}, nil
	case "nanopi":
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, console.Exit(console.ExitBus, "adaptor connect error: %s", console.Red(err))
		}
		bus := i2c.NewGobotBus(npi, i2c.WithBusNumber(c.Int("bus")))
		return &session{
			dev: gt811.New(gt811.NewAddressedBus(bus, addr)),
			closer: closerFunc(func() error {
				if err := bus.Close(); err != nil {
					return err
				}
				return npi.I2cBusAdaptor.Finalize()
			}),
		}, nil
	case "sim":
		sim := twi.NewSim(twi.WithSimAddress(addr))
		engine := twi.NewEngine(sim, twi.WithAddress(addr), twi.WithTimeout(c.Duration("timeout")))
		return &session{dev: gt811.New(engine), sim: sim}, nil
	default:
		return nil, console.Exit(console.ExitUsage, "unknown adapter %s", console.Red(name))
	}
}

func closeSession(s *session) {
	if err := s.Close(); err != nil {
		console.Errorf("error closing bus: %s", console.Red(err))
	}
}
