package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/sarchlab/r4300/benchmarks"
	"github.com/sarchlab/r4300/emu"
)

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "run the microbenchmarks in each execution mode",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "modes",
				Value: cli.NewStringSlice("pure", "cached", "dynarec"),
				Usage: "execution modes to compare",
			},
			countPerOpFlag,
			&cli.BoolFlag{Name: "core", Usage: "run only the quick core set"},
			&cli.StringFlag{Name: "format", Value: "table", Usage: "output format: table, csv or json"},
		},
		Action: benchAction,
	}
}

func benchAction(c *cli.Context) error {
	config := benchmarks.DefaultConfig()
	config.Output = c.App.Writer
	if c.IsSet(countPerOpFlag.Name) {
		config.CountPerOp = uint32(c.Uint(countPerOpFlag.Name))
	}

	config.Modes = nil
	for _, name := range c.StringSlice("modes") {
		mode, err := emu.ParseMode(name)
		if err != nil {
			return err
		}
		config.Modes = append(config.Modes, mode)
	}

	harness := benchmarks.NewHarness(config)
	if c.Bool("core") {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	results, err := harness.RunAll()
	if err != nil {
		return err
	}

	switch c.String("format") {
	case "csv":
		harness.PrintCSV(results)
	case "json":
		return harness.PrintJSON(results)
	case "table":
		harness.PrintResults(results)
	default:
		return errors.Errorf("unknown format %q", c.String("format"))
	}
	return nil
}
