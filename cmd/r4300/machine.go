package main

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/sarchlab/r4300/config"
	"github.com/sarchlab/r4300/consistency"
	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/emu"
	"github.com/sarchlab/r4300/loader"
	"github.com/sarchlab/r4300/memory"
	"github.com/sarchlab/r4300/metrics"
)

// Physical memory map of the machine.
const (
	spMemBase     uint32 = 0x04000000
	spMemSize     uint32 = 0x10000
	cartridgeBase uint32 = 0x10000000

	// The boot ROM copies the start of the cartridge, header included,
	// into SP memory before jumping to the boot address.
	bootCodeSize = 0x1000
)

// DefaultRawBase is where flat images are placed unless told otherwise.
const DefaultRawBase uint32 = 0x04000040

// source names the program images to install.
type source struct {
	elf       string
	raw       string
	rawBase   uint32
	cartridge string
}

type machine struct {
	cfg     *config.Cartridge
	core    *emu.Core
	bus     *memory.Map
	checker *consistency.Checker
	logger  logr.Logger
	frames  uint64
}

// loopback is the consistency peer used when running alone. It agrees
// with whatever digest it is given.
var loopback = consistency.PeerFunc(func(_ uint32, local consistency.Digest) (consistency.Digest, error) {
	return local, nil
})

func newMachine(
	fs afero.Fs,
	cfg *config.Cartridge,
	src source,
	logger logr.Logger,
	m metrics.Metricer,
) (*machine, error) {
	var image []byte
	if src.cartridge != "" {
		var err error
		image, err = loader.ReadCartridge(fs, src.cartridge)
		if err != nil {
			return nil, err
		}
		cfg, err = config.Detect(cfg, image)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", src.cartridge)
		}
		title, _ := config.Title(image)
		logger.Info("cartridge detected", "title", title, "compat", cfg.Compat, "country", cfg.Country)
	}

	var prog *loader.Program
	if src.elf != "" {
		var err error
		prog, err = loader.Load(src.elf)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Clone()
		cfg.BootAddress = prog.EntryPoint
	}

	opts, err := cfg.CoreOptions()
	if err != nil {
		return nil, err
	}

	mc := &machine{
		cfg:    cfg,
		bus:    memory.NewMap(memory.WithLogger(logger.WithName("bus"))),
		logger: logger,
		checker: consistency.NewChecker(loopback,
			consistency.WithInterval(cfg.SyncInterval),
			consistency.WithLogger(logger.WithName("consistency")),
			consistency.WithMetrics(m),
		),
	}

	if err := mc.mapMemory(image); err != nil {
		return nil, err
	}

	if prog != nil {
		if err := prog.Install(mc.bus); err != nil {
			return nil, err
		}
	}
	if src.raw != "" {
		raw, err := loader.ReadRaw(fs, src.raw, src.rawBase)
		if err != nil {
			return nil, err
		}
		raw.Install(mc.bus)
	}

	opts = append(opts,
		emu.WithLogger(logger.WithName("core")),
		emu.WithMetrics(m),
		emu.WithInterruptHandler(cp0.EventVI, mc.onVI),
	)
	mc.core = emu.NewCore(mc.bus, opts...)
	mc.core.PowerOn()

	if cfg.VIPeriod != 0 {
		if err := mc.core.ScheduleEvent(cp0.EventVI, cfg.VIPeriod); err != nil {
			return nil, err
		}
	}

	return mc, nil
}

func (mc *machine) mapMemory(image []byte) error {
	rdram := memory.NewRAM(mc.cfg.RDRAMSize)
	if err := mc.bus.Register(0, rdram.Size(), rdram); err != nil {
		return errors.Wrap(err, "rdram")
	}

	spMem := memory.NewRAM(spMemSize)
	if err := mc.bus.Register(spMemBase, spMem.Size(), spMem); err != nil {
		return errors.Wrap(err, "sp memory")
	}

	if image == nil {
		return nil
	}

	rom := memory.NewROM(image, mc.logger.WithName("rom"))
	if err := mc.bus.Register(cartridgeBase, rom.Size(), rom); err != nil {
		return errors.Wrap(err, "cartridge rom")
	}

	boot := image
	if len(boot) > bootCodeSize {
		boot = boot[:bootCodeSize]
	}
	return spMem.Load(0, boot)
}

// onVI services the video interrupt: the next field is scheduled and the
// consistency checker sees the frame.
func (mc *machine) onVI(c *emu.Core, e cp0.Event) {
	mc.frames++
	if err := c.ScheduleEvent(cp0.EventVI, mc.cfg.VIPeriod); err != nil {
		mc.logger.Error(err, "cannot reschedule video interrupt")
	}
	if err := mc.checker.OnFrame(c.CP0().Regs()); err != nil {
		mc.logger.Error(err, "consistency check failed", "frame", mc.checker.Frame())
		c.Stop()
	}
	mc.logger.V(2).Info("frame", "n", mc.frames, "count", e.Count)
}
