package main

import (
	"bytes"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/gt811"
	"github.com/mklimuk/gt811/bringup"
	"github.com/mklimuk/gt811/cmd/gt811/console"
	"github.com/mklimuk/gt811/config"
	"github.com/mklimuk/gt811/twi"
)

var simCmd = cli.Command{
	Name:  "sim",
	Usage: "run the bring-up against the simulated controller and print the bus trace",
	Flags: []cli.Flag{
		fileFlag,
		&cli.IntFlag{
			Name:  "read",
			Usage: "read this many configuration bytes back after bring-up",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "print the transaction summary only",
		},
	},
	Action: func(c *cli.Context) error {
		table, err := loadTable(c)
		if err != nil {
			return console.Exit(console.ExitFailure, "%s", console.Red(err))
		}
		ctx := commandContext(c)
		sim := twi.NewSim()
		sim.Disable()
		dev := gt811.New(twi.NewEngine(sim, twi.WithTimeout(c.Duration("timeout"))))
		clocks := &bringup.SimClocks{}
		if err := bringup.New(clocks, sim, dev, bringup.WithTable(table)).Run(ctx); err != nil {
			return console.Exit(console.ExitBus, "%s", console.Red(err))
		}
		if n := c.Int("read"); n > 0 {
			if err := dev.ReadRegister(ctx, table.Register, make([]byte, n)); err != nil {
				return console.Exit(console.ExitBus, "%s", console.Red(err))
			}
		}
		t := sim.Timing()
		console.PInfof(console.PictoPin, "clocks %v, pins %v", clocks.Clocks(), clocks.Pins())
		console.PInfof(console.PictoWrench, "timing %d MHz fast=%t ccr=%#x trise=%d", t.FreqMHz, t.Fast, t.CCR, t.Trise)
		if c.Bool("quiet") {
			printSummary(console.Output(), sim.Transactions())
			return nil
		}
		printTrace(console.Output(), sim.Events(), sim.Boundaries())
		printSummary(console.Output(), sim.Transactions())
		if got := sim.Registers(table.Register, config.Size); bytes.Equal(got, table.Bytes()) {
			console.PInfof(console.PictoCheck, "register bank holds %s", table.Name)
		}
		return nil
	},
}

func colorEvent(e twi.Event) string {
	switch e.Kind {
	case twi.EventStart, twi.EventStop:
		return console.Green(e.Kind)
	case twi.EventAddress:
		return console.Cyan(e.Kind)
	case twi.EventTx:
		return console.White(e.Kind)
	case twi.EventRx:
		return console.Yellow(e.Kind)
	default:
		return console.Faint(e.Kind)
	}
}

func printTrace(out io.Writer, events []twi.Event, boundaries []twi.Boundary) {
	w := tabwriter.NewWriter(out, 6, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "#\tEVENT\tDATA\tACK\tPOS\tSTOPPED\n")
	rx := 0
	for i, e := range events {
		data := ""
		switch e.Kind {
		case twi.EventAddress, twi.EventTx, twi.EventRx:
			data = fmt.Sprintf("%#02x", e.Data)
		}
		ack, pos, stopped := "", "", ""
		if e.Kind == twi.EventRx && rx < len(boundaries) {
			b := boundaries[rx]
			ack, pos, stopped = fmt.Sprint(b.Ack), fmt.Sprint(b.POS), fmt.Sprint(b.Stopped)
			rx++
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i, colorEvent(e), data, ack, pos, stopped)
	}
	_ = w.Flush()
}

func printSummary(out io.Writer, txs [][]twi.Event) {
	w := tabwriter.NewWriter(out, 6, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "TX\tEVENTS\tSENT\tRECEIVED\n")
	for i, tx := range txs {
		var sent, received int
		for _, e := range tx {
			switch e.Kind {
			case twi.EventTx:
				sent++
			case twi.EventRx:
				received++
			}
		}
		_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", i, len(tx), sent, received)
	}
	_ = w.Flush()
}
