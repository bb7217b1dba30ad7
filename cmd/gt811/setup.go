package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/gt811"
	"github.com/mklimuk/gt811/bringup"
	"github.com/mklimuk/gt811/cmd/gt811/console"
	"github.com/mklimuk/gt811/config"
)

var setupCmd = cli.Command{
	Name:  "setup",
	Usage: "write a configuration table to the controller",
	Flags: []cli.Flag{
		fileFlag,
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
		&cli.BoolFlag{
			Name:  "verify",
			Usage: "read the table back after writing",
		},
	},
	Action: func(c *cli.Context) error {
		table, err := loadTable(c)
		if err != nil {
			return console.Exit(console.ExitFailure, "%s", console.Red(err))
		}
		if !c.Bool("yes") {
			answer, err := console.YesOrNo("write " + table.String() + "?")
			if err != nil {
				return console.Exit(console.ExitFailure, "prompt error: %s", console.Red(err))
			}
			if answer != console.Yes {
				console.Infof("aborted")
				return nil
			}
		}
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer closeSession(s)
		ctx := commandContext(c)
		if err := configure(ctx, s, table); err != nil {
			return console.Exit(console.ExitBus, "%s setup failed: %s", console.PictoStop, console.Red(err))
		}
		console.PInfof(console.PictoWrench, "%s written", console.Bold(table.String()))
		if !c.Bool("verify") {
			return nil
		}
		err = s.dev.VerifyConfig(ctx, table)
		var mismatch *gt811.MismatchError
		switch {
		case errors.As(err, &mismatch):
			return console.Exit(console.ExitMismatch, "%s %s", console.PictoStop, console.Red(mismatch))
		case err != nil:
			return console.Exit(console.ExitBus, "verification failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoCheck, "read back matches")
		return nil
	},
}

// configure runs the full bring-up against the simulator and a plain table
// write on real adapters, whose host already owns clocks and pins.
func configure(ctx context.Context, s *session, table config.Table) error {
	if s.sim == nil {
		return s.dev.Configure(ctx, table)
	}
	seq := bringup.New(&bringup.SimClocks{}, s.sim, s.dev, bringup.WithTable(table))
	return seq.Run(ctx)
}
