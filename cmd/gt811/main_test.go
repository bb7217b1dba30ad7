package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/gt811"
	"github.com/mklimuk/gt811/cmd/gt811/console"
	"github.com/mklimuk/gt811/config"
	"github.com/mklimuk/gt811/twi"
)

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	console.SetOutput(&out, &errOut)
	cli.OsExiter = func(int) {}
	cli.ErrWriter = &errOut
	t.Cleanup(func() {
		console.SetOutput(os.Stdout, os.Stderr)
		cli.OsExiter = os.Exit
		cli.ErrWriter = os.Stderr
	})
	code := run(append([]string{"gt811"}, args...))
	return code, out.String() + errOut.String()
}

func TestCLI_SetupAgainstSim(t *testing.T) {
	code, out := runCLI(t, "--adapter", "sim", "setup", "--yes", "--verify")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "waveshare-7inch v1")
	assert.Contains(t, out, "read back matches")
}

func TestCLI_Sim(t *testing.T) {
	code, out := runCLI(t, "sim", "--read", "3")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "timing 36 MHz fast=true ccr=0x1e trise=11")
	assert.Contains(t, out, "register bank holds waveshare-7inch")
}

func TestCLI_ConfigDumpCheck(t *testing.T) {
	code, out := runCLI(t, "config", "dump")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "0x06A2")

	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))
	code, out = runCLI(t, "config", "check", "--file", path)
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "checksum 0xfa")
}

func TestCLI_ConfigCheckRejectsCorruptTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, config.New("broken", 1, make([]byte, 20)).Encode(&buf))
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	code, out := runCLI(t, "config", "check", "--file", path)
	assert.Equal(t, console.ExitFailure, code)
	assert.Contains(t, out, "invalid configuration table size")
}

func TestCLI_ReadWrite(t *testing.T) {
	code, out := runCLI(t, "--adapter", "sim", "write", "--reg", "0x0721", "--data", "01 02 ff")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "3 bytes written")

	code, out = runCLI(t, "--adapter", "sim", "read", "--reg", "0x0721", "--len", "2")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "00000000  00 00")
}

func TestCLI_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"bad register", []string{"--adapter", "sim", "read", "--reg", "0x10000"}, console.ExitUsage},
		{"bad data", []string{"--adapter", "sim", "write", "--reg", "1", "--data", "zz"}, console.ExitUsage},
		{"bad address", []string{"--adapter", "sim", "--address", "0x80", "read", "--reg", "1"}, console.ExitUsage},
		{"unknown adapter", []string{"--adapter", "spi", "read", "--reg", "1"}, console.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestParseData(t *testing.T) {
	for _, in := range []string{"0102ff", "01 02 ff", "01:02:FF", "0x01,0x02,0xff"} {
		got, err := parseData(in)
		require.NoError(t, err, in)
		assert.Equal(t, []byte{0x01, 0x02, 0xff}, got, in)
	}
	_, err := parseData("")
	assert.Error(t, err)
	_, err = parseData("123")
	assert.Error(t, err)
}

func TestShell(t *testing.T) {
	sim := twi.NewSim()
	var out bytes.Buffer
	sh := &shell{
		session: &session{dev: gt811.New(twi.NewEngine(sim)), sim: sim},
		table:   config.Waveshare7,
		out:     &out,
	}
	ctx := context.Background()

	require.NoError(t, sh.exec(ctx, "setup"))
	require.NoError(t, sh.exec(ctx, "verify"))
	require.NoError(t, sh.exec(ctx, `write 0x0721 "01 02"`))
	out.Reset()
	require.NoError(t, sh.exec(ctx, "read 0x0721 2"))
	assert.Contains(t, out.String(), "00000000  01 02")
	require.NoError(t, sh.exec(ctx, "   "))

	assert.ErrorIs(t, sh.exec(ctx, "exit"), errQuit)
	assert.EqualError(t, sh.exec(ctx, "poke"), `unknown command "poke", try help`)
	assert.Error(t, sh.exec(ctx, "read"))
	assert.Error(t, sh.exec(ctx, `read "unterminated`))
	require.NoError(t, sh.exec(ctx, "write 0x070b ff"))
	assert.ErrorIs(t, sh.exec(ctx, "verify"), gt811.ErrConfigMismatch)
}
