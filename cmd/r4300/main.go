// Command r4300 runs programs on the R4300i CPU core.
//
// Usage:
//
//	r4300 run [flags]       run an ELF, raw image or cartridge
//	r4300 bench [flags]     run the microbenchmarks in every mode
//	r4300 config [flags]    write a cartridge settings file
//
// Examples:
//
//	# Run a cartridge image for ten million instructions
//	r4300 run --cartridge game.z64 --steps 10000000
//
//	# Run an ELF in the pure interpreter and expose metrics
//	r4300 run --elf test.elf --mode pure --metrics-addr :9100
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/sarchlab/r4300/config"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "cartridge settings file (.toml or .json)",
	}
	modeFlag = &cli.StringFlag{
		Name:  "mode",
		Usage: "execution engine: pure, cached or dynarec",
	}
	countPerOpFlag = &cli.UintFlag{
		Name:  "count-per-op",
		Usage: "Count cycles added per instruction (1-4)",
	}
	verbosityFlag = &cli.IntFlag{
		Name:    "verbosity",
		Aliases: []string{"v"},
		Usage:   "log verbosity",
	}
)

func newApp(fs afero.Fs, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "r4300",
		Usage:     "R4300i CPU core emulator",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags:     []cli.Flag{verbosityFlag},
		Commands: []*cli.Command{
			runCommand(fs),
			benchCommand(),
			configCommand(fs),
		},
	}
}

func main() {
	if err := newApp(afero.NewOsFs(), os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: c.Int(verbosityFlag.Name)})
}

// loadConfig reads the settings file, if any, and applies command-line
// overrides.
func loadConfig(fs afero.Fs, c *cli.Context) (*config.Cartridge, error) {
	cfg := config.Default()
	if path := c.String(configFlag.Name); path != "" {
		var err error
		cfg, err = config.Load(fs, path)
		if err != nil {
			return nil, err
		}
	}

	if c.IsSet(modeFlag.Name) {
		cfg.Mode = c.String(modeFlag.Name)
	}
	if c.IsSet(countPerOpFlag.Name) {
		cfg.CountPerOp = uint32(c.Uint(countPerOpFlag.Name))
	}
	if c.IsSet("boot") {
		addr, err := parseAddress(c.String("boot"))
		if err != nil {
			return nil, err
		}
		cfg.BootAddress = addr
	}

	return cfg, cfg.Validate()
}

func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid address %q", s)
	}
	return uint32(v), nil
}
