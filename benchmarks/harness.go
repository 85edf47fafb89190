// Package benchmarks runs small MIPS programs under each execution mode and
// reports throughput and Count agreement.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/sarchlab/r4300/emu"
	"github.com/sarchlab/r4300/memory"
)

// Physical layout of the benchmark machine. Programs are placed at the
// default boot address.
const (
	bootVirt   uint32 = 0xA4000040
	bootPhys   uint32 = 0x04000040
	dmemBase   uint32 = 0x04000000
	dmemSize   uint32 = 0x10000
	rdramSize  uint32 = 0x100000
	powerCount uint32 = 0x5000

	defaultMaxSteps = 1 << 24
)

// ErrNoExit is returned when a program does not reach its exit loop
// within its step budget.
var ErrNoExit = errors.New("benchmark did not reach its exit loop")

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program is the big-endian MIPS machine code, loaded at the boot
	// address.
	Program []uint32

	// Exit is the word index of the idle loop the program ends in.
	Exit int

	// Result is the register holding the program's answer.
	Result uint8

	// Expected is the value Result must hold when the program exits.
	Expected uint64

	// MaxSteps bounds the run. Zero means a generous default.
	MaxSteps uint64
}

// BenchmarkResult holds the results for one benchmark run in one mode.
type BenchmarkResult struct {
	Name string `json:"name"`
	Mode string `json:"mode"`

	// InstructionsRetired is the number of instructions executed
	InstructionsRetired uint64 `json:"instructions_retired"`

	// Cycles is the Count advance since power-on
	Cycles uint32 `json:"cycles"`

	// Value is the final content of the result register
	Value uint64 `json:"value"`

	Passed bool `json:"passed"`

	// WallTime is the actual time taken to run the program
	WallTime time.Duration `json:"wall_time_ns"`
}

// MIPS returns millions of instructions per wall-clock second.
func (r BenchmarkResult) MIPS() float64 {
	if r.WallTime <= 0 {
		return 0
	}
	return float64(r.InstructionsRetired) / r.WallTime.Seconds() / 1e6
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Modes lists the execution modes every benchmark runs under
	Modes []emu.Mode

	// CountPerOp is passed to every core
	CountPerOp uint32

	// Output is where to write results (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Modes:      []emu.Mode{emu.ModePure, emu.ModeCached, emu.ModeDynarec},
		CountPerOp: 2,
		Output:     os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{config: config}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes every benchmark in every configured mode.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks)*len(h.config.Modes))
	for _, bench := range h.benchmarks {
		for _, mode := range h.config.Modes {
			r, err := h.Run(bench, mode)
			if err != nil {
				return results, errors.Wrapf(err, "%s (%s)", bench.Name, mode)
			}
			results = append(results, r)
		}
	}
	return results, nil
}

type exitWatch struct {
	pc uint32
}

func (w exitWatch) ShouldBreak(pc uint32) bool { return pc == w.pc }
func (w exitWatch) OnStep(uint32)              {}

// Run executes one benchmark on a fresh machine.
func (h *Harness) Run(bench Benchmark, mode emu.Mode) (BenchmarkResult, error) {
	bus := memory.NewMap()
	ram := memory.NewRAM(rdramSize)
	dmem := memory.NewRAM(dmemSize)
	if err := bus.Register(0, ram.Size(), ram); err != nil {
		return BenchmarkResult{}, err
	}
	if err := bus.Register(dmemBase, dmem.Size(), dmem); err != nil {
		return BenchmarkResult{}, err
	}
	for i, w := range bench.Program {
		bus.WriteWord(bootPhys+uint32(4*i), w, 0xFFFFFFFF)
	}

	core := emu.NewCore(bus,
		emu.WithMode(mode),
		emu.WithCountPerOp(h.config.CountPerOp),
		emu.WithDebugger(exitWatch{pc: bootVirt + uint32(4*bench.Exit)}),
	)
	core.PowerOn()

	steps := bench.MaxSteps
	if steps == 0 {
		steps = defaultMaxSteps
	}

	start := time.Now()
	res := core.RunFor(steps)
	wallTime := time.Since(start)
	if res.Err != nil {
		return BenchmarkResult{}, res.Err
	}
	if !res.Break {
		return BenchmarkResult{}, errors.Wrapf(ErrNoExit, "pc 0x%08X after %d steps", core.PC(), res.Executed)
	}

	value := core.ReadReg(bench.Result)
	return BenchmarkResult{
		Name:                bench.Name,
		Mode:                mode.String(),
		InstructionsRetired: res.Executed,
		Cycles:              core.Count() - powerCount,
		Value:               value,
		Passed:              value == bench.Expected,
		WallTime:            wallTime,
	}, nil
}

// PrintResults outputs benchmark results as a table.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	table := tablewriter.NewWriter(h.config.Output)
	table.SetHeader([]string{"Benchmark", "Mode", "Instructions", "Cycles", "MIPS", "Result", "Wall Time"})
	for _, r := range results {
		status := "ok"
		if !r.Passed {
			status = fmt.Sprintf("FAIL (0x%X)", r.Value)
		}
		table.Append([]string{
			r.Name,
			r.Mode,
			fmt.Sprintf("%d", r.InstructionsRetired),
			fmt.Sprintf("%d", r.Cycles),
			fmt.Sprintf("%.1f", r.MIPS()),
			status,
			r.WallTime.String(),
		})
	}
	table.Render()
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "name,mode,instructions,cycles,mips,passed,wall_time_ns")
	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%.3f,%t,%d\n",
			r.Name,
			r.Mode,
			r.InstructionsRetired,
			r.Cycles,
			r.MIPS(),
			r.Passed,
			r.WallTime.Nanoseconds(),
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	Timestamp  string            `json:"timestamp"`
	CountPerOp uint32            `json:"count_per_op"`
	Results    []BenchmarkResult `json:"results"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		CountPerOp: h.config.CountPerOp,
		Results:    results,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
