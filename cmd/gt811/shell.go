package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/gt811/cmd/gt811/console"
	"github.com/mklimuk/gt811/config"
)

var errQuit = errors.New("quit")

const shellHelp = `commands:
  read <reg> [len]        read registers
  write <reg> <bytes>...  write registers, bytes in hex
  setup                   write the configuration table
  verify                  compare the register bank with the table
  table                   show the active table
  help                    this text
  exit                    leave the shell`

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive register console",
	Flags: []cli.Flag{fileFlag},
	Action: func(c *cli.Context) error {
		table, err := loadTable(c)
		if err != nil {
			return console.Exit(console.ExitFailure, "%s", console.Red(err))
		}
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer closeSession(s)
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          console.Green("gt811> "),
			HistoryLimit:    200,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return console.Exit(console.ExitFailure, "readline error: %s", console.Red(err))
		}
		defer func() { _ = rl.Close() }()
		sh := &shell{session: s, table: table, out: rl.Stdout()}
		ctx := commandContext(c)
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return console.Exit(console.ExitFailure, "readline error: %s", console.Red(err))
			}
			err = sh.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				_, _ = fmt.Fprintf(sh.out, "%s: %s\n", console.Red("ERROR"), err)
			}
		}
	},
}

type shell struct {
	session *session
	table   config.Table
	out     io.Writer
}

func (sh *shell) exec(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("could not parse line: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "read", "rd":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: read <reg> [len]")
		}
		reg, err := parseRegister(args[1])
		if err != nil {
			return err
		}
		n := 1
		if len(args) == 3 {
			n, err = strconv.Atoi(args[2])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid length %q", args[2])
			}
		}
		buf := make([]byte, n)
		if err := sh.session.dev.ReadRegister(ctx, reg, buf); err != nil {
			return err
		}
		_, _ = fmt.Fprint(sh.out, hex.Dump(buf))
	case "write", "wr":
		if len(args) < 3 {
			return fmt.Errorf("usage: write <reg> <bytes>...")
		}
		reg, err := parseRegister(args[1])
		if err != nil {
			return err
		}
		data, err := parseData(strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		if err := sh.session.dev.WriteRegister(ctx, reg, data); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(sh.out, "%d bytes written\n", len(data))
	case "setup":
		if err := configure(ctx, sh.session, sh.table); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(sh.out, "%s written\n", sh.table)
	case "verify":
		if err := sh.session.dev.VerifyConfig(ctx, sh.table); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(sh.out, console.Green("ok"))
	case "table":
		_, _ = fmt.Fprintln(sh.out, sh.table)
	case "help", "?":
		_, _ = fmt.Fprintln(sh.out, shellHelp)
	case "exit", "quit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
	return nil
}
