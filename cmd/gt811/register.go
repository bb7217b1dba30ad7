package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/gt811/cmd/gt811/console"
)

var regFlag = &cli.StringFlag{
	Name:     "reg",
	Aliases:  []string{"r"},
	Usage:    "16-bit register address, e.g. 0x0721",
	Required: true,
}

func parseRegister(s string) (uint16, error) {
	reg, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid register %q: %w", s, err)
	}
	return uint16(reg), nil
}

// parseData accepts hex with optional separators: "0102ff", "01 02 ff",
// "01:02:ff" or "0x01,0x02".
func parseData(s string) ([]byte, error) {
	clean := strings.NewReplacer("0x", "", "0X", "", " ", "", ":", "", ",", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid data %q: %w", s, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no data given")
	}
	return data, nil
}

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read consecutive registers",
	Flags: []cli.Flag{
		regFlag,
		&cli.IntFlag{
			Name:    "len",
			Aliases: []string{"n"},
			Usage:   "number of bytes",
			Value:   1,
		},
	},
	Action: func(c *cli.Context) error {
		reg, err := parseRegister(c.String("reg"))
		if err != nil {
			return console.Exit(console.ExitUsage, "%s", console.Red(err))
		}
		n := c.Int("len")
		if n < 1 {
			return console.Exit(console.ExitUsage, "length must be positive, got %d", n)
		}
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer closeSession(s)
		buf := make([]byte, n)
		if err := s.dev.ReadRegister(commandContext(c), reg, buf); err != nil {
			return console.Exit(console.ExitBus, "%s", console.Red(err))
		}
		console.Printf("%s", hex.Dump(buf))
		return nil
	},
}

var writeCmd = cli.Command{
	Name:    "write",
	Aliases: []string{"wr"},
	Usage:   "write consecutive registers",
	Flags: []cli.Flag{
		regFlag,
		&cli.StringFlag{
			Name:     "data",
			Usage:    "hex bytes",
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		reg, err := parseRegister(c.String("reg"))
		if err != nil {
			return console.Exit(console.ExitUsage, "%s", console.Red(err))
		}
		data, err := parseData(c.String("data"))
		if err != nil {
			return console.Exit(console.ExitUsage, "%s", console.Red(err))
		}
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer closeSession(s)
		if err := s.dev.WriteRegister(commandContext(c), reg, data); err != nil {
			return console.Exit(console.ExitBus, "%s", console.Red(err))
		}
		console.Infof("%d bytes written at %s", len(data), console.White(fmt.Sprintf("%#04x", reg)))
		return nil
	},
}
