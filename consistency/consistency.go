// Package consistency periodically compares a digest of CP0 state with a
// peer running the same program, for example the other side of a netplay
// session.
package consistency

import (
	"bytes"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"
	"github.com/lunixbochs/struc"
	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"

	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/metrics"
)

// DefaultInterval is the number of frames between checks.
const DefaultInterval = 600

// ErrMismatch describes a frame at which the local and remote digests
// differed.
var ErrMismatch = errors.New("consistency: cp0 state diverged")

// Digest is the SHA-256 of the serialised CP0 subset.
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:8])
}

// Subset lists the CP0 registers that are compared.
var Subset = [16]int{
	cp0.Index, cp0.Random, cp0.EntryLo0, cp0.EntryLo1, cp0.Context,
	cp0.PageMask, cp0.Wired, cp0.BadVAddr, cp0.Count, cp0.EntryHi,
	cp0.Compare, cp0.Status, cp0.Cause, cp0.EPC, cp0.LLAddr, cp0.ErrorEPC,
}

type record struct {
	Frame uint32
	Regs  [16]uint32
}

// Compute serialises the CP0 subset of regs for frame and digests it.
func Compute(frame uint32, regs *cp0.Registers) (Digest, error) {
	r := record{Frame: frame}
	for i, reg := range Subset {
		r.Regs[i] = regs[reg]
	}

	var buf bytes.Buffer
	if err := struc.Pack(&buf, &r); err != nil {
		return Digest{}, errors.Wrap(err, "failed to serialise cp0 subset")
	}
	return sha256.Sum256(buf.Bytes()), nil
}

// Peer exchanges digests with the remote side.
type Peer interface {
	Exchange(frame uint32, local Digest) (remote Digest, err error)
}

// PeerFunc adapts a function to the Peer interface.
type PeerFunc func(frame uint32, local Digest) (Digest, error)

// Exchange calls f.
func (f PeerFunc) Exchange(frame uint32, local Digest) (Digest, error) {
	return f(frame, local)
}

// Checker runs the comparison every Interval frames.
type Checker struct {
	peer     Peer
	interval uint32
	frame    uint32

	mismatches *multierror.Error

	logger  logr.Logger
	metrics metrics.Metricer
}

// Option configures a Checker.
type Option func(*Checker)

// WithInterval sets the number of frames between checks.
func WithInterval(n uint32) Option {
	return func(c *Checker) {
		c.interval = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(c *Checker) {
		c.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metricer) Option {
	return func(c *Checker) {
		c.metrics = m
	}
}

// NewChecker creates a checker that talks to peer.
func NewChecker(peer Peer, opts ...Option) *Checker {
	c := &Checker{
		peer:     peer,
		interval: DefaultInterval,
		logger:   logr.Discard(),
		metrics:  metrics.NoopMetrics{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Frame returns the number of frames seen.
func (c *Checker) Frame() uint32 {
	return c.frame
}

// OnFrame is called once per video frame. Every Interval frames it
// compares regs with the peer. A mismatch is logged and recorded but the
// run goes on; only a failed exchange is returned.
func (c *Checker) OnFrame(regs *cp0.Registers) error {
	c.frame++
	if c.interval == 0 || c.frame%c.interval != 0 {
		return nil
	}

	local, err := Compute(c.frame, regs)
	if err != nil {
		return err
	}
	remote, err := c.peer.Exchange(c.frame, local)
	if err != nil {
		return errors.Wrapf(err, "digest exchange at frame %d", c.frame)
	}

	match := local == remote
	c.metrics.RecordConsistency(match)
	if !match {
		c.logger.Info("warning: cp0 state diverged from peer",
			"frame", c.frame, "local", local.String(), "remote", remote.String())
		c.mismatches = multierror.Append(c.mismatches,
			errors.Wrapf(ErrMismatch, "frame %d: local %s, remote %s", c.frame, local, remote))
	}
	return nil
}

// Mismatches returns every recorded divergence, or nil.
func (c *Checker) Mismatches() error {
	return c.mismatches.ErrorOrNil()
}
