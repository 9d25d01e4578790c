package bel

import (
	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/netlist"
)

// LogicCell is a k-input lookup table followed by an optional pipeline
// register.
//
// Configuration, in address order:
//
//	INIT  2^k bits  truth table; bit i is the output for Cat(inputs) == i
//	FF    1 bit     1 = drive O from the register, 0 = from the LUT
//
// Inputs are named A, B, C, ... and the first input is the least significant
// bit of the table index.
type LogicCell struct {
	base
	k int

	init cfgreg.Register
	ff   cfgreg.Register
}

// Kind returns KindLogicCell.
func (c *LogicCell) Kind() string {
	return KindLogicCell
}

// Ports returns the LUT inputs followed by the output O.
func (c *LogicCell) Ports() []cgra.PortSpec {
	ports := make([]cgra.PortSpec, 0, c.k+1)
	for i := 0; i < c.k; i++ {
		ports = append(ports, cgra.NewPort(InputName(i), cgra.In))
	}
	ports = append(ports, cgra.NewPort("O", cgra.Out))
	return ports
}

// InputName returns the name of the i-th LUT input.
func InputName(i int) string {
	return string(rune('A' + i))
}

// DeclareConfig declares INIT and FF.
func (c *LogicCell) DeclareConfig(scope *cfgreg.Scope) error {
	var err error

	c.init, err = c.declare(scope, "INIT", 1<<c.k)
	if err != nil {
		return err
	}

	c.ff, err = c.declare(scope, "FF", 1)
	return err
}

// Realize builds the LUT select tree, the flip-flop and the bypass mux.
func (c *LogicCell) Realize(bindings map[string]cgra.Signal) (*netlist.Module, error) {
	ports := c.Ports()
	if err := checkBindings(c.path, ports, bindings); err != nil {
		return nil, err
	}

	m := netlist.NewModule(c.path, "LogicCell")
	m.Ports = ports

	lutOut := m.AddSignal("lut_out", 1)
	netlist.SelectTree(m, "lut_mux",
		netlist.CfgBits(c.init), inputOperands(ports, bindings), lutOut)

	ffOut := m.AddSignal("ff_out", 1)
	m.AddDFF(netlist.DFF{
		Name:  "ff_i",
		D:     netlist.Sig(lutOut),
		Q:     ffOut,
		Clock: c.clock,
	})

	m.AddMux(netlist.Mux{
		Name:   "ff_sel",
		Output: bindings["O"],
		Inputs: []netlist.Operand{netlist.Sig(lutOut), netlist.Sig(ffOut)},
		Select: []netlist.Operand{netlist.Cfg(c.ff, 0)},
	})

	return m, nil
}
