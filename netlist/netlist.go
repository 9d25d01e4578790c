// Package netlist defines the structural description produced by the
// generator: modules holding signals, multiplexers, flip-flops and direct
// assignments. A hardware-description backend lowers it; the emu package
// evaluates it.
package netlist

import (
	"fmt"

	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/tech"
)

// OperandKind tells what an operand refers to.
type OperandKind int

const (
	SignalOperand OperandKind = iota
	ConfigOperand
	ConstOperand
)

// Operand is a value source: a signal (or one of its bits), one bit of a
// configuration register, or a constant.
type Operand struct {
	Kind   OperandKind
	Signal cgra.Signal
	Reg    cfgreg.Register
	Bit    int
	Value  uint64
}

// Sig refers to a whole signal.
func Sig(s cgra.Signal) Operand {
	return Operand{Kind: SignalOperand, Signal: s, Bit: -1}
}

// SigBit refers to one bit of a signal.
func SigBit(s cgra.Signal, bit int) Operand {
	return Operand{Kind: SignalOperand, Signal: s, Bit: bit}
}

// Cfg refers to one bit of a configuration register.
func Cfg(r cfgreg.Register, bit int) Operand {
	if bit < 0 || bit >= r.Width {
		panic(fmt.Sprintf("bit %d out of range for register %s", bit, r))
	}
	return Operand{Kind: ConfigOperand, Reg: r, Bit: bit}
}

// CfgBits returns one operand per register bit, LSB first.
func CfgBits(r cfgreg.Register) []Operand {
	ops := make([]Operand, r.Width)
	for i := range ops {
		ops[i] = Cfg(r, i)
	}
	return ops
}

// Const is a constant value.
func Const(v uint64) Operand {
	return Operand{Kind: ConstOperand, Value: v}
}

// Width returns the number of bits the operand carries.
func (o Operand) Width() int {
	switch o.Kind {
	case SignalOperand:
		if o.Bit >= 0 {
			return 1
		}
		return o.Signal.Width
	case ConfigOperand:
		return 1
	default:
		return 1
	}
}

func (o Operand) String() string {
	switch o.Kind {
	case SignalOperand:
		if o.Bit >= 0 {
			return fmt.Sprintf("%s[%d]", o.Signal.Path(), o.Bit)
		}
		return o.Signal.Path()
	case ConfigOperand:
		return fmt.Sprintf("cfg:%s[%d]", o.Reg.Path(), o.Bit)
	default:
		return fmt.Sprintf("const:%d", o.Value)
	}
}

// Mux selects one of its inputs by the value of its select bits.
type Mux struct {
	Name   string
	Output cgra.Signal
	Inputs []Operand
	Select []Operand // LSB first
	Unused tech.UnusedSelect
}

// Route returns the operand driven to the output for a select code.
func (m Mux) Route(code uint64) Operand {
	if code < uint64(len(m.Inputs)) {
		return m.Inputs[code]
	}

	if m.Unused == tech.UnusedFirst {
		return m.Inputs[0]
	}
	return Const(0)
}

// DFF is a rising-edge flip-flop on the named clock.
type DFF struct {
	Name  string
	D     Operand
	Q     cgra.Signal
	Clock string
}

// Assign drives a signal directly from an operand.
type Assign struct {
	Dst cgra.Signal
	Src Operand
}

// Module is one level of the structural hierarchy.
type Module struct {
	Path     string
	Kind     string
	Ports    []cgra.PortSpec
	Signals  []cgra.Signal
	Muxes    []Mux
	FFs      []DFF
	Assigns  []Assign
	Children []*Module
}

// NewModule creates an empty module.
func NewModule(path, kind string) *Module {
	return &Module{Path: path, Kind: kind}
}

// AddSignal declares an internal signal in the module's scope.
func (m *Module) AddSignal(name string, width int) cgra.Signal {
	s := cgra.NewSignal(m.Path, name, width)
	m.Signals = append(m.Signals, s)
	return s
}

// AddMux appends a multiplexer.
func (m *Module) AddMux(mux Mux) {
	m.Muxes = append(m.Muxes, mux)
}

// AddDFF appends a flip-flop.
func (m *Module) AddDFF(ff DFF) {
	m.FFs = append(m.FFs, ff)
}

// AddAssign appends a direct assignment.
func (m *Module) AddAssign(dst cgra.Signal, src Operand) {
	m.Assigns = append(m.Assigns, Assign{Dst: dst, Src: src})
}

// AddChild nests a module.
func (m *Module) AddChild(c *Module) {
	m.Children = append(m.Children, c)
}

// Walk visits m and its descendants depth first, parents before children.
func (m *Module) Walk(fn func(*Module)) {
	fn(m)
	for _, c := range m.Children {
		c.Walk(fn)
	}
}

// Stats counts the primitives of a module tree.
type Stats struct {
	Modules int
	Signals int
	Muxes   int
	FFs     int
	Assigns int
}

// Stats returns primitive counts for m and its descendants.
func (m *Module) Stats() Stats {
	var s Stats
	m.Walk(func(x *Module) {
		s.Modules++
		s.Signals += len(x.Signals)
		s.Muxes += len(x.Muxes)
		s.FFs += len(x.FFs)
		s.Assigns += len(x.Assigns)
	})
	return s
}
