// Package bel implements the configurable primitives placed inside a tile.
//
// The set of primitives is closed: New maps a Spec onto one of the variants
// below, and every variant implements Bel. Adding a primitive kind means
// adding a variant and a case in New.
package bel

import (
	"fmt"

	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/netlist"
	"github.com/sarchlab/cgrafab/tech"
)

// Bel kinds understood by New.
const (
	KindLogicCell = "logic_cell"
	KindIOBuf     = "iobuf"
	KindMemory    = "memory"
)

// A Bel is a configurable primitive with a fixed port list and a fixed
// configuration footprint.
type Bel interface {
	// Name returns the instance name, unique within the tile.
	Name() string

	// Kind returns one of the Kind constants.
	Kind() string

	// Prefix is prepended to port names to form tile-level signal names.
	Prefix() string

	// Ports returns the declared ports. The result is the same on every
	// call.
	Ports() []cgra.PortSpec

	// DeclareConfig declares the primitive's registers in scope. It is
	// called once, while the bel is constructed.
	DeclareConfig(scope *cfgreg.Scope) error

	// Registers returns the declared registers in declaration order.
	Registers() []cfgreg.Register

	// Realize produces the structural fragment of the primitive given a
	// concrete signal for every port.
	Realize(bindings map[string]cgra.Signal) (*netlist.Module, error)
}

// Spec declares one bel of a tile type.
type Spec struct {
	Kind   string `yaml:"kind"`
	Name   string `yaml:"name"`
	Prefix string `yaml:"prefix,omitempty"`

	// Memory geometry. Ignored by other kinds.
	Depth int `yaml:"depth,omitempty"`
	Width int `yaml:"width,omitempty"`
}

// SignalPrefix returns the prefix used for tile-level signal names, which
// defaults to the bel name followed by an underscore.
func (s Spec) SignalPrefix() string {
	if s.Prefix != "" {
		return s.Prefix
	}
	return s.Name + "_"
}

// New constructs the primitive described by spec and declares its
// configuration in scope.
func New(spec Spec, t tech.Spec, scope *cfgreg.Scope) (Bel, error) {
	base := base{
		name:   spec.Name,
		prefix: spec.SignalPrefix(),
		path:   scope.Owner(),
		clock:  t.Clock,
	}

	var b Bel
	switch spec.Kind {
	case KindLogicCell:
		b = &LogicCell{base: base, k: t.LUTInputs}
	case KindIOBuf:
		b = &IOBuf{base: base}
	case KindMemory:
		m, err := newMemory(base, spec.Depth, spec.Width)
		if err != nil {
			return nil, err
		}
		b = m
	default:
		return nil, fmt.Errorf("%s: unknown bel kind %q", scope.Owner(), spec.Kind)
	}

	if err := cgra.CheckPortNames(scope.Owner(), b.Ports()); err != nil {
		return nil, err
	}

	if err := b.DeclareConfig(scope); err != nil {
		return nil, err
	}

	return b, nil
}

type base struct {
	name   string
	prefix string
	path   string
	clock  string
	regs   []cfgreg.Register
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Prefix() string {
	return b.prefix
}

func (b *base) Registers() []cfgreg.Register {
	return append([]cfgreg.Register(nil), b.regs...)
}

func (b *base) declare(scope *cfgreg.Scope, name string, width int) (cfgreg.Register, error) {
	r, err := scope.DeclareWord(name, width)
	if err != nil {
		return cfgreg.Register{}, err
	}
	b.regs = append(b.regs, r)
	return r, nil
}

// checkBindings verifies that every port has a signal of the declared width.
func checkBindings(
	path string,
	ports []cgra.PortSpec,
	bindings map[string]cgra.Signal,
) error {
	for _, p := range ports {
		s, ok := bindings[p.Name]
		if !ok || s.IsZero() {
			return &cgra.PortBindingError{Path: path, Port: p.Name}
		}

		if s.Width != p.BitWidth() {
			return &cgra.WidthMismatchError{
				Path: path,
				Port: p.Name,
				Want: p.BitWidth(),
				Got:  s.Width,
			}
		}
	}
	return nil
}

func inputOperands(ports []cgra.PortSpec, bindings map[string]cgra.Signal) []netlist.Operand {
	var ops []netlist.Operand
	for _, p := range ports {
		if p.Dir == cgra.In {
			ops = append(ops, netlist.Sig(bindings[p.Name]))
		}
	}
	return ops
}
