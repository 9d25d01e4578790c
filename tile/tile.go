// Package tile composes bels and a switch matrix into a tile.
//
// Signals inside a tile live in one namespace: tile ports keep their names,
// bel ports are visible as prefix+port, and switch-matrix outputs use their
// route names. Ports are connected implicitly when names match and
// explicitly through Bind.
package tile

import (
	"fmt"

	"github.com/sarchlab/cgrafab/bel"
	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/switchmatrix"
	"github.com/sarchlab/cgrafab/tech"
)

// Target names the bel port or switch-matrix output a tile port binds to.
// An empty Bel selects the switch matrix.
type Target struct {
	Bel  string `yaml:"bel,omitempty"`
	Port string `yaml:"port"`
}

func (t Target) String() string {
	if t.Bel == "" {
		return "sm." + t.Port
	}
	return t.Bel + "." + t.Port
}

// Binding is a declared Bind call.
type Binding struct {
	TilePort string `yaml:"tile_port"`
	Target   Target `yaml:"target"`
}

// Spec declares a tile type.
type Spec struct {
	Name   string
	Ports  []cgra.PortSpec
	Bels   []bel.Spec
	Matrix switchmatrix.Connectivity
	Binds  []Binding
}

// Tile is one instance of a tile type.
type Tile struct {
	path string
	typ  string

	ports   []cgra.PortSpec
	portIdx map[string]int
	signals map[string]cgra.Signal

	bels   []bel.Bel
	belIdx map[string]int
	matrix *switchmatrix.SwitchMatrix

	belInputs  map[string]map[string]cgra.Signal
	outDrivers map[string]cgra.Signal
}

// New instantiates spec at path. Bels are constructed in declaration order,
// each declaring its configuration in its own registry scope, and the
// switch matrix is synthesized last. The binds listed in spec are applied
// before New returns.
func New(path string, spec Spec, t tech.Spec, reg *cfgreg.Registry) (*Tile, error) {
	if err := cgra.CheckPortNames(path, spec.Ports); err != nil {
		return nil, err
	}

	tl := &Tile{
		path:       path,
		typ:        spec.Name,
		ports:      append([]cgra.PortSpec(nil), spec.Ports...),
		portIdx:    make(map[string]int, len(spec.Ports)),
		signals:    make(map[string]cgra.Signal),
		belIdx:     make(map[string]int, len(spec.Bels)),
		belInputs:  make(map[string]map[string]cgra.Signal),
		outDrivers: make(map[string]cgra.Signal),
	}

	for i, p := range tl.ports {
		tl.portIdx[p.Name] = i
		tl.signals[p.Name] = cgra.NewSignal(path, p.Name, p.BitWidth())
	}

	if err := tl.buildBels(spec.Bels, t, reg); err != nil {
		return nil, err
	}

	if err := tl.buildMatrix(spec.Matrix, t, reg); err != nil {
		return nil, err
	}

	for _, b := range spec.Binds {
		if err := tl.Bind(b.TilePort, b.Target); err != nil {
			return nil, err
		}
	}

	return tl, nil
}

func (tl *Tile) buildBels(specs []bel.Spec, t tech.Spec, reg *cfgreg.Registry) error {
	for _, bs := range specs {
		if _, dup := tl.belIdx[bs.Name]; dup {
			return &cgra.DuplicateNameError{Path: tl.path, Name: bs.Name}
		}

		scope, err := reg.Scope(tl.path + "." + bs.Name)
		if err != nil {
			return err
		}

		b, err := bel.New(bs, t, scope)
		if err != nil {
			return err
		}

		for _, p := range b.Ports() {
			if !p.Dir.Drives() {
				continue
			}

			name := b.Prefix() + p.Name
			if existing, ok := tl.port(name); ok {
				if existing.Dir != cgra.Out {
					return &cgra.DuplicateNameError{Path: tl.path, Name: name}
				}
				if existing.BitWidth() != p.BitWidth() {
					return &cgra.WidthMismatchError{
						Path: tl.path, Port: name,
						Want: existing.BitWidth(), Got: p.BitWidth(),
					}
				}
				continue
			}

			if _, dup := tl.signals[name]; dup {
				return &cgra.DuplicateNameError{Path: tl.path, Name: name}
			}
			tl.signals[name] = cgra.NewSignal(tl.path, name, p.BitWidth())
		}

		tl.belIdx[bs.Name] = len(tl.bels)
		tl.bels = append(tl.bels, b)
	}

	return nil
}

func (tl *Tile) buildMatrix(
	conn switchmatrix.Connectivity,
	t tech.Spec,
	reg *cfgreg.Registry,
) error {
	scope, err := reg.Scope(tl.path + ".sm")
	if err != nil {
		return err
	}

	for _, r := range conn {
		if _, taken := tl.signals[r.Output]; taken {
			if p, ok := tl.port(r.Output); !ok || p.Dir != cgra.Out || tl.belDrives(r.Output) {
				return &cgra.DuplicateNameError{Path: scope.Owner(), Name: r.Output}
			}
		}
	}

	tl.matrix, err = switchmatrix.Build(scope, tl.path, conn, visible{tl}, t.UnusedSelect)
	return err
}

// visible resolves switch-matrix candidates: tile inputs and bel outputs.
type visible struct {
	tl *Tile
}

func (v visible) Resolve(name string) (cgra.Signal, bool) {
	if p, ok := v.tl.port(name); ok {
		if p.Dir.Sinks() {
			return v.tl.signals[name], true
		}
		if v.tl.belDrives(name) {
			return v.tl.signals[name], true
		}
		return cgra.Signal{}, false
	}

	s, ok := v.tl.signals[name]
	return s, ok
}

func (tl *Tile) port(name string) (cgra.PortSpec, bool) {
	i, ok := tl.portIdx[name]
	if !ok {
		return cgra.PortSpec{}, false
	}
	return tl.ports[i], true
}

// belDrives reports whether a bel output is visible under name.
func (tl *Tile) belDrives(name string) bool {
	for _, b := range tl.bels {
		for _, p := range b.Ports() {
			if p.Dir.Drives() && b.Prefix()+p.Name == name {
				return true
			}
		}
	}
	return false
}

// Path returns the instance path of the tile.
func (tl *Tile) Path() string {
	return tl.path
}

// Type returns the tile type name.
func (tl *Tile) Type() string {
	return tl.typ
}

// Ports returns the tile ports in declaration order.
func (tl *Tile) Ports() []cgra.PortSpec {
	return append([]cgra.PortSpec(nil), tl.ports...)
}

// Signal returns the tile-scope signal of a port, bel port or switch-matrix
// output.
func (tl *Tile) Signal(name string) (cgra.Signal, bool) {
	if s, ok := tl.signals[name]; ok {
		return s, true
	}
	return tl.matrix.Output(name)
}

// Bels returns the bels in construction order.
func (tl *Tile) Bels() []bel.Bel {
	return append([]bel.Bel(nil), tl.bels...)
}

// Matrix returns the switch matrix.
func (tl *Tile) Matrix() *switchmatrix.SwitchMatrix {
	return tl.matrix
}

// Registers returns the tile's registers in address order: every bel's
// registers in construction order, then the switch-matrix registers.
func (tl *Tile) Registers() []cfgreg.Register {
	var regs []cfgreg.Register
	for _, b := range tl.bels {
		regs = append(regs, b.Registers()...)
	}
	return append(regs, tl.matrix.Registers()...)
}

// AddressRange returns the tile-local address map, starting at offset 0.
func (tl *Tile) AddressRange() cfgreg.AddressMap {
	return cfgreg.Allocate(tl.Registers())
}

// Width returns the number of configuration bits the tile owns.
func (tl *Tile) Width() int {
	w := 0
	for _, r := range tl.Registers() {
		w += r.Width
	}
	return w
}

func (tl *Tile) String() string {
	return fmt.Sprintf("Tile(%s, %s)", tl.path, tl.typ)
}
