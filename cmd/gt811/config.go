package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/gt811/cmd/gt811/console"
	"github.com/mklimuk/gt811/config"
)

var fileFlag = &cli.StringFlag{
	Name:    "file",
	Aliases: []string{"f"},
	Usage:   "configuration table YAML file; the built-in Waveshare 7\" table is used when empty",
}

// loadTable returns the table named by the file flag or the built-in one.
func loadTable(c *cli.Context) (config.Table, error) {
	path := c.String("file")
	if path == "" {
		return config.Waveshare7, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return config.Table{}, fmt.Errorf("could not open table file: %w", err)
	}
	defer func() { _ = f.Close() }()
	table, err := config.Load(f)
	if err != nil {
		return config.Table{}, fmt.Errorf("could not load %s: %w", path, err)
	}
	return table, nil
}

var configCmd = cli.Command{
	Name:    "config",
	Aliases: []string{"cfg"},
	Usage:   "inspect configuration tables",
	Subcommands: cli.Commands{
		&configDumpCmd,
		&configCheckCmd,
	},
}

var configDumpCmd = cli.Command{
	Name:  "dump",
	Usage: "print a table as YAML",
	Flags: []cli.Flag{fileFlag},
	Action: func(c *cli.Context) error {
		table, err := loadTable(c)
		if err != nil {
			return console.Exit(console.ExitFailure, "%s", console.Red(err))
		}
		if err := table.Encode(console.Output()); err != nil {
			return console.Exit(console.ExitFailure, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

var configCheckCmd = cli.Command{
	Name:  "check",
	Usage: "validate a table file",
	Flags: []cli.Flag{fileFlag},
	Action: func(c *cli.Context) error {
		table, err := loadTable(c)
		if err != nil {
			return console.Exit(console.ExitFailure, "%s %s", console.PictoStop, console.Red(err))
		}
		console.PInfof(console.PictoCheck, "%s: %d bytes at %s, checksum %s",
			console.Bold(table.Name),
			table.Len(),
			console.White(fmt.Sprintf("%#04x", table.Register)),
			console.Green(fmt.Sprintf("%#02x", table.Checksum)))
		return nil
	},
}
