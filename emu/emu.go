// Package emu evaluates a generated netlist against a configuration image.
// It is a functional model: combinational logic settles by repeated
// evaluation and flip-flops update on Clock.
package emu

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sarchlab/cgrafab/bitstream"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/ctxlog"
	"github.com/sarchlab/cgrafab/netlist"
)

// ErrNoConvergence is returned when combinational logic does not settle.
var ErrNoConvergence = errors.New("combinational logic did not settle")

type driver struct {
	dst  cgra.Signal
	eval func(e *Evaluator) uint64
	name string
}

// Evaluator holds the value of every signal of a netlist.
type Evaluator struct {
	img     *bitstream.Image
	offsets map[string]int

	values  map[string]uint64
	widths  map[string]int
	drivers []driver
	driven  map[string]bool
	ffs     []netlist.DFF

	maxIter int
}

// New prepares top for evaluation under img. Every configuration register
// the netlist reads must be present in the image's address map, and every
// signal may have at most one driver.
func New(top *netlist.Module, img *bitstream.Image) (*Evaluator, error) {
	e := &Evaluator{
		img:     img,
		offsets: make(map[string]int),
		values:  make(map[string]uint64),
		widths:  make(map[string]int),
		driven:  make(map[string]bool),
	}

	for _, en := range img.AddressMap().Entries {
		e.offsets[en.Register().Path()] = en.Offset
	}

	var err error
	top.Walk(func(m *netlist.Module) {
		if err != nil {
			return
		}
		err = e.add(m)
	})
	if err != nil {
		return nil, err
	}

	e.maxIter = len(e.drivers) + 2

	return e, nil
}

func (e *Evaluator) declare(s cgra.Signal) {
	if _, ok := e.widths[s.Path()]; !ok {
		e.widths[s.Path()] = s.Width
		e.values[s.Path()] = 0
	}
}

func (e *Evaluator) drive(s cgra.Signal, name string, fn func(*Evaluator) uint64) error {
	e.declare(s)
	if e.driven[s.Path()] {
		return errors.Errorf("signal %s has more than one driver", s)
	}
	e.driven[s.Path()] = true
	e.drivers = append(e.drivers, driver{dst: s, eval: fn, name: name})
	return nil
}

func (e *Evaluator) add(m *netlist.Module) error {
	for _, s := range m.Signals {
		e.declare(s)
	}

	for _, a := range m.Assigns {
		if err := e.checkOperand(a.Src); err != nil {
			return err
		}

		src := a.Src
		err := e.drive(a.Dst, m.Path+" assign", func(e *Evaluator) uint64 {
			return e.operand(src)
		})
		if err != nil {
			return err
		}
	}

	for _, mux := range m.Muxes {
		for _, o := range append(append([]netlist.Operand(nil), mux.Inputs...), mux.Select...) {
			if err := e.checkOperand(o); err != nil {
				return err
			}
		}

		mux := mux
		err := e.drive(mux.Output, m.Path+"."+mux.Name, func(e *Evaluator) uint64 {
			var code uint64
			for i, s := range mux.Select {
				code |= (e.operand(s) & 1) << uint(i)
			}
			return e.operand(mux.Route(code))
		})
		if err != nil {
			return err
		}
	}

	for _, ff := range m.FFs {
		if err := e.checkOperand(ff.D); err != nil {
			return err
		}
		e.declare(ff.Q)
		if e.driven[ff.Q.Path()] {
			return errors.Errorf("signal %s has more than one driver", ff.Q)
		}
		e.driven[ff.Q.Path()] = true
		e.ffs = append(e.ffs, ff)
	}

	return nil
}

func (e *Evaluator) checkOperand(o netlist.Operand) error {
	switch o.Kind {
	case netlist.SignalOperand:
		e.declare(o.Signal)
	case netlist.ConfigOperand:
		if _, ok := e.offsets[o.Reg.Path()]; !ok {
			return errors.Errorf("register %s is not in the address map", o.Reg)
		}
	}
	return nil
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

func (e *Evaluator) operand(o netlist.Operand) uint64 {
	switch o.Kind {
	case netlist.SignalOperand:
		v := e.values[o.Signal.Path()]
		if o.Bit >= 0 {
			return v >> uint(o.Bit) & 1
		}
		return v & mask(o.Signal.Width)
	case netlist.ConfigOperand:
		if e.img.Bit(e.offsets[o.Reg.Path()] + o.Bit) {
			return 1
		}
		return 0
	default:
		return o.Value
	}
}

// Set drives a signal that has no driver in the netlist.
func (e *Evaluator) Set(path string, v uint64) error {
	w, ok := e.widths[path]
	if !ok {
		return errors.Errorf("unknown signal %s", path)
	}
	if e.driven[path] {
		return errors.Errorf("signal %s is driven by the netlist", path)
	}
	e.values[path] = v & mask(w)
	return nil
}

// Get returns the current value of a signal.
func (e *Evaluator) Get(path string) (uint64, error) {
	v, ok := e.values[path]
	if !ok {
		return 0, errors.Errorf("unknown signal %s", path)
	}
	return v, nil
}

// Inputs returns the paths of undriven signals in sorted order.
func (e *Evaluator) Inputs() []string {
	var in []string
	for p := range e.widths {
		if !e.driven[p] {
			in = append(in, p)
		}
	}
	sort.Strings(in)
	return in
}

// Settle evaluates combinational logic until no signal changes.
func (e *Evaluator) Settle() error {
	for i := 0; i < e.maxIter; i++ {
		changed := false
		for _, d := range e.drivers {
			v := d.eval(e) & mask(d.dst.Width)
			if e.values[d.dst.Path()] != v {
				e.values[d.dst.Path()] = v
				changed = true
			}
		}

		if !changed {
			ctxlog.Trace("Settled", "iterations", i+1)
			return nil
		}
	}

	return errors.Wrapf(ErrNoConvergence, "after %d iterations", e.maxIter)
}

// Clock settles the logic, updates every flip-flop on the named clock with
// its sampled input and settles again.
func (e *Evaluator) Clock(clock string) error {
	if err := e.Settle(); err != nil {
		return err
	}

	next := make([]uint64, len(e.ffs))
	for i, ff := range e.ffs {
		next[i] = e.operand(ff.D)
	}

	n := 0
	for i, ff := range e.ffs {
		if ff.Clock != clock {
			continue
		}
		e.values[ff.Q.Path()] = next[i] & mask(ff.Q.Width)
		n++
	}

	if n == 0 && len(e.ffs) > 0 {
		return errors.Errorf("no flip-flop is clocked by %q", clock)
	}

	return e.Settle()
}
