package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/emu"
	"github.com/sarchlab/r4300/metrics"
	"github.com/sarchlab/r4300/savestate"
)

var errNoProgram = errors.New("one of --elf, --raw or --cartridge is required")

func runCommand(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run a program",
		Flags: []cli.Flag{
			configFlag,
			modeFlag,
			countPerOpFlag,
			&cli.StringFlag{Name: "boot", Usage: "boot address (virtual)"},
			&cli.StringFlag{Name: "elf", Usage: "big-endian MIPS ELF executable"},
			&cli.StringFlag{Name: "raw", Usage: "flat big-endian memory image"},
			&cli.StringFlag{Name: "raw-base", Value: "0x04000040", Usage: "physical address of the raw image"},
			&cli.StringFlag{Name: "cartridge", Usage: "cartridge image (.z64, .v64 or .n64)"},
			&cli.Uint64Flag{Name: "steps", Usage: "instructions to run; 0 runs until interrupted"},
			&cli.StringFlag{Name: "load-state", Usage: "restore a saved state before running"},
			&cli.StringFlag{Name: "save-state", Usage: "save the state after running"},
			&cli.StringFlag{Name: "cpuprofile", Usage: "write a CPU profile to this directory"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address"},
		},
		Action: func(c *cli.Context) error {
			return runAction(fs, c)
		},
	}
}

func runAction(fs afero.Fs, c *cli.Context) error {
	logger := newLogger(c)

	cfg, err := loadConfig(fs, c)
	if err != nil {
		return err
	}

	src := source{
		elf:       c.String("elf"),
		raw:       c.String("raw"),
		cartridge: c.String("cartridge"),
	}
	if src.elf == "" && src.raw == "" && src.cartridge == "" && c.String("load-state") == "" {
		return errNoProgram
	}
	if src.rawBase, err = parseAddress(c.String("raw-base")); err != nil {
		return err
	}

	if dir := c.String("cpuprofile"); dir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.Quiet).Stop()
	}

	m := metrics.NewMetrics()
	if addr := c.String("metrics-addr"); addr != "" {
		srv := &http.Server{
			Addr:    addr,
			Handler: promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error(err, "metrics server failed")
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	mc, err := newMachine(fs, cfg, src, logger, m)
	if err != nil {
		return err
	}

	if path := c.String("load-state"); path != "" {
		if err := loadState(fs, path, mc.core); err != nil {
			return err
		}
	}

	if err := execute(c.Context, mc.core, c.Uint64("steps")); err != nil {
		return err
	}

	if err := mc.checker.Mismatches(); err != nil {
		logger.Info("consistency mismatches recorded", "errors", err.Error())
	}

	if path := c.String("save-state"); path != "" {
		if err := saveState(fs, path, mc.core); err != nil {
			return err
		}
	}

	printRegisters(c.App.Writer, mc.core)
	return nil
}

// execute runs the core for steps instructions, or until interrupted when
// steps is zero.
func execute(ctx context.Context, core *emu.Core, steps uint64) error {
	if steps != 0 {
		return core.RunFor(steps).Err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()
	go func() {
		<-ctx.Done()
		core.Stop()
	}()

	return core.Run()
}

func loadState(fs afero.Fs, path string, core *emu.Core) error {
	f, err := fs.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open saved state")
	}
	defer func() { _ = f.Close() }()

	s, err := savestate.Decode(f)
	if err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	return savestate.Restore(core, s)
}

func saveState(fs afero.Fs, path string, core *emu.Core) error {
	f, err := fs.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create saved state")
	}
	if err := savestate.Encode(f, savestate.Capture(core)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var gprNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "s8", "ra",
}

func printRegisters(w io.Writer, core *emu.Core) {
	regs := core.CP0().Regs()
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Reg", "Value", "Reg", "Value"})

	for i := 0; i < 16; i++ {
		table.Append([]string{
			gprNames[i], fmt.Sprintf("0x%016X", core.ReadReg(uint8(i))),
			gprNames[i+16], fmt.Sprintf("0x%016X", core.ReadReg(uint8(i+16))),
		})
	}
	table.Append([]string{
		"pc", fmt.Sprintf("0x%08X", core.PC()),
		"count", fmt.Sprintf("0x%08X", core.Count()),
	})
	table.Append([]string{
		"hi", fmt.Sprintf("0x%016X", core.Hi()),
		"lo", fmt.Sprintf("0x%016X", core.Lo()),
	})
	for _, pair := range [][2]int{{cp0.Status, cp0.Cause}, {cp0.EPC, cp0.BadVAddr}} {
		table.Append([]string{
			cp0.RegName(pair[0]), fmt.Sprintf("0x%08X", regs[pair[0]]),
			cp0.RegName(pair[1]), fmt.Sprintf("0x%08X", regs[pair[1]]),
		})
	}
	table.Append([]string{
		"retired", fmt.Sprintf("%d", core.Retired()),
		"mode", core.Mode().String(),
	})

	table.Render()
}
