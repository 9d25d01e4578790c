package bel

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/netlist"
)

// Memory is a configuration-initialized read-only memory.
//
// Word w occupies INIT bits [w*width, (w+1)*width). The address is
// Cat(ADDR0, ADDR1, ...), ADDR0 being the least significant bit.
type Memory struct {
	base
	depth, width int
	addrBits     int

	init cfgreg.Register
}

func newMemory(b base, depth, width int) (*Memory, error) {
	if depth < 1 || bits.OnesCount(uint(depth)) != 1 {
		return nil, fmt.Errorf("%s: memory depth must be a power of two, got %d", b.path, depth)
	}
	if width < 1 {
		return nil, fmt.Errorf("%s: memory width must be positive, got %d", b.path, width)
	}

	return &Memory{
		base:     b,
		depth:    depth,
		width:    width,
		addrBits: bits.TrailingZeros(uint(depth)),
	}, nil
}

// Kind returns KindMemory.
func (m *Memory) Kind() string {
	return KindMemory
}

// Ports returns the address inputs followed by the data outputs.
func (m *Memory) Ports() []cgra.PortSpec {
	ports := make([]cgra.PortSpec, 0, m.addrBits+m.width)
	for i := 0; i < m.addrBits; i++ {
		ports = append(ports, cgra.NewPort(fmt.Sprintf("ADDR%d", i), cgra.In))
	}
	for i := 0; i < m.width; i++ {
		ports = append(ports, cgra.NewPort(fmt.Sprintf("DO%d", i), cgra.Out))
	}
	return ports
}

// DeclareConfig declares INIT.
func (m *Memory) DeclareConfig(scope *cfgreg.Scope) error {
	var err error
	m.init, err = m.declare(scope, "INIT", m.depth*m.width)
	return err
}

// Realize builds one read select tree per data bit.
func (m *Memory) Realize(bindings map[string]cgra.Signal) (*netlist.Module, error) {
	ports := m.Ports()
	if err := checkBindings(m.path, ports, bindings); err != nil {
		return nil, err
	}

	mod := netlist.NewModule(m.path, "Memory")
	mod.Ports = ports
	addr := inputOperands(ports, bindings)

	for b := 0; b < m.width; b++ {
		words := make([]netlist.Operand, m.depth)
		for w := range words {
			words[w] = netlist.Cfg(m.init, w*m.width+b)
		}

		netlist.SelectTree(mod, fmt.Sprintf("rd_mux%d", b),
			words, addr, bindings[fmt.Sprintf("DO%d", b)])
	}

	return mod, nil
}
