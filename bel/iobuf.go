package bel

import (
	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/netlist"
)

// IOBuf connects the fabric to a pad. The pad-side ports are left for a
// board wrapper to attach to physical pins.
//
// Configuration, in address order:
//
//	OE     1 bit  1 = drive the pad from I
//	INREG  1 bit  1 = drive O from a register on PAD_I, 0 = from PAD_I
type IOBuf struct {
	base

	oe    cfgreg.Register
	inReg cfgreg.Register
}

// Kind returns KindIOBuf.
func (b *IOBuf) Kind() string {
	return KindIOBuf
}

// Ports returns the fabric-side ports I and O and the pad-side ports.
func (b *IOBuf) Ports() []cgra.PortSpec {
	return []cgra.PortSpec{
		cgra.NewPort("I", cgra.In),
		cgra.NewPort("PAD_I", cgra.In),
		cgra.NewPort("O", cgra.Out),
		cgra.NewPort("PAD_O", cgra.Out),
		cgra.NewPort("PAD_OE", cgra.Out),
	}
}

// DeclareConfig declares OE and INREG.
func (b *IOBuf) DeclareConfig(scope *cfgreg.Scope) error {
	var err error

	b.oe, err = b.declare(scope, "OE", 1)
	if err != nil {
		return err
	}

	b.inReg, err = b.declare(scope, "INREG", 1)
	return err
}

// Realize wires the pad outputs and the optionally registered input path.
func (b *IOBuf) Realize(bindings map[string]cgra.Signal) (*netlist.Module, error) {
	ports := b.Ports()
	if err := checkBindings(b.path, ports, bindings); err != nil {
		return nil, err
	}

	m := netlist.NewModule(b.path, "IOBuf")
	m.Ports = ports

	m.AddAssign(bindings["PAD_O"], netlist.Sig(bindings["I"]))
	m.AddAssign(bindings["PAD_OE"], netlist.Cfg(b.oe, 0))

	inFF := m.AddSignal("in_ff", 1)
	m.AddDFF(netlist.DFF{
		Name:  "in_ff_i",
		D:     netlist.Sig(bindings["PAD_I"]),
		Q:     inFF,
		Clock: b.clock,
	})

	m.AddMux(netlist.Mux{
		Name:   "in_sel",
		Output: bindings["O"],
		Inputs: []netlist.Operand{netlist.Sig(bindings["PAD_I"]), netlist.Sig(inFF)},
		Select: []netlist.Operand{netlist.Cfg(b.inReg, 0)},
	})

	return m, nil
}
