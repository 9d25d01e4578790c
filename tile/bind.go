package tile

import (
	"github.com/sarchlab/cgrafab/bel"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/netlist"
)

// Bind connects a tile port to a bel port or a switch-matrix output.
//
// A tile input may drive any number of bel inputs. A tile output is driven
// by exactly one bel output or switch-matrix output.
func (tl *Tile) Bind(tilePort string, target Target) error {
	p, ok := tl.port(tilePort)
	if !ok {
		return &cgra.PortBindingError{
			Path: tl.path, Port: tilePort, Reason: "no such tile port",
		}
	}

	if target.Bel == "" {
		return tl.bindMatrix(p, target)
	}

	b, ok := tl.bel(target.Bel)
	if !ok {
		return &cgra.PortBindingError{
			Path: tl.path, Port: target.String(), Reason: "no such bel",
		}
	}

	bp, ok := belPort(b, target.Port)
	if !ok {
		return &cgra.PortBindingError{
			Path: tl.path, Port: target.String(), Reason: "no such bel port",
		}
	}

	if bp.BitWidth() != p.BitWidth() {
		return &cgra.WidthMismatchError{
			Path: tl.path, Port: target.String(),
			Want: bp.BitWidth(), Got: p.BitWidth(),
		}
	}

	switch {
	case p.Dir.Sinks() && bp.Dir == cgra.In:
		return tl.bindBelInput(p, b, bp)
	case p.Dir == cgra.Out && bp.Dir.Drives():
		return tl.bindOutput(p, tl.signals[b.Prefix()+bp.Name], target)
	default:
		return &cgra.PortBindingError{
			Path:   tl.path,
			Port:   tilePort,
			Reason: "direction mismatch with " + target.String(),
		}
	}
}

func (tl *Tile) bindMatrix(p cgra.PortSpec, target Target) error {
	if p.Dir != cgra.Out {
		return &cgra.PortBindingError{
			Path:   tl.path,
			Port:   p.Name,
			Reason: "only tile outputs bind to switch-matrix outputs",
		}
	}

	out, ok := tl.matrix.Output(target.Port)
	if !ok {
		return &cgra.PortBindingError{
			Path: tl.path, Port: target.String(), Reason: "no such switch-matrix output",
		}
	}

	if out.Width != p.BitWidth() {
		return &cgra.WidthMismatchError{
			Path: tl.path, Port: target.String(),
			Want: p.BitWidth(), Got: out.Width,
		}
	}

	return tl.bindOutput(p, out, target)
}

func (tl *Tile) bindBelInput(p cgra.PortSpec, b bel.Bel, bp cgra.PortSpec) error {
	belPath := tl.path + "." + b.Name()

	inputs := tl.belInputs[b.Name()]
	if inputs == nil {
		inputs = make(map[string]cgra.Signal)
		tl.belInputs[b.Name()] = inputs
	}

	if _, dup := inputs[bp.Name]; dup {
		return &cgra.DuplicateNameError{Path: belPath, Name: bp.Name}
	}

	if s, ok := tl.implicitBelDriver(b.Prefix() + bp.Name); ok && s.Path() != tl.signals[p.Name].Path() {
		return &cgra.PortBindingError{
			Path: belPath, Port: bp.Name, Reason: "already driven by name",
		}
	}

	inputs[bp.Name] = tl.signals[p.Name]
	return nil
}

func (tl *Tile) bindOutput(p cgra.PortSpec, driver cgra.Signal, target Target) error {
	if _, dup := tl.outDrivers[p.Name]; dup {
		return &cgra.DuplicateNameError{Path: tl.path, Name: p.Name}
	}

	if s, ok := tl.implicitOutDriver(p.Name); ok && s.Path() != driver.Path() {
		return &cgra.PortBindingError{
			Path:   tl.path,
			Port:   p.Name,
			Reason: "already driven by name, cannot also bind " + target.String(),
		}
	}

	tl.outDrivers[p.Name] = driver
	return nil
}

// implicitBelDriver finds the signal driving a bel input by name: a
// switch-matrix output or a tile input.
func (tl *Tile) implicitBelDriver(name string) (cgra.Signal, bool) {
	if s, ok := tl.matrix.Output(name); ok {
		return s, true
	}

	if p, ok := tl.port(name); ok && p.Dir.Sinks() {
		return tl.signals[name], true
	}

	return cgra.Signal{}, false
}

// implicitOutDriver finds the signal driving a tile output by name: a
// switch-matrix output or a bel output.
func (tl *Tile) implicitOutDriver(name string) (cgra.Signal, bool) {
	if s, ok := tl.matrix.Output(name); ok {
		return s, true
	}

	if tl.belDrives(name) {
		return tl.signals[name], true
	}

	return cgra.Signal{}, false
}

func (tl *Tile) bel(name string) (bel.Bel, bool) {
	i, ok := tl.belIdx[name]
	if !ok {
		return nil, false
	}
	return tl.bels[i], true
}

func belPort(b bel.Bel, name string) (cgra.PortSpec, bool) {
	for _, p := range b.Ports() {
		if p.Name == name {
			return p, true
		}
	}
	return cgra.PortSpec{}, false
}

// Elaborate checks that every bel input and tile output has a driver and
// emits the tile module: bel fragments in construction order, then the
// switch matrix.
func (tl *Tile) Elaborate() (*netlist.Module, error) {
	m := netlist.NewModule(tl.path, tl.typ)
	m.Ports = tl.Ports()

	for _, p := range tl.ports {
		m.Signals = append(m.Signals, tl.signals[p.Name])
	}

	for _, b := range tl.bels {
		child, err := tl.realizeBel(m, b)
		if err != nil {
			return nil, err
		}
		m.AddChild(child)
	}

	for _, p := range tl.ports {
		if p.Dir != cgra.Out {
			continue
		}

		driver, ok := tl.outDrivers[p.Name]
		if !ok {
			driver, ok = tl.implicitOutDriver(p.Name)
		}
		if !ok {
			return nil, &cgra.UnboundPortError{Path: tl.path, Port: p.Name}
		}

		if driver.Width != p.BitWidth() {
			return nil, &cgra.WidthMismatchError{
				Path: tl.path, Port: p.Name, Want: p.BitWidth(), Got: driver.Width,
			}
		}

		if sig := tl.signals[p.Name]; driver.Path() != sig.Path() {
			m.AddAssign(sig, netlist.Sig(driver))
		}
	}

	for _, s := range tl.matrix.Outputs() {
		if _, isPort := tl.port(s.Name); !isPort {
			m.Signals = append(m.Signals, s)
		}
	}

	m.AddChild(tl.matrix.Realize())

	return m, nil
}

func (tl *Tile) realizeBel(m *netlist.Module, b bel.Bel) (*netlist.Module, error) {
	bindings := make(map[string]cgra.Signal)

	for _, p := range b.Ports() {
		name := b.Prefix() + p.Name

		if p.Dir.Drives() {
			s := tl.signals[name]
			bindings[p.Name] = s
			if _, isPort := tl.port(name); !isPort {
				m.Signals = append(m.Signals, s)
			}
			continue
		}

		s, ok := tl.belInputs[b.Name()][p.Name]
		if !ok {
			s, ok = tl.implicitBelDriver(name)
		}
		if !ok {
			return nil, &cgra.UnboundPortError{
				Path: tl.path + "." + b.Name(),
				Port: p.Name,
			}
		}
		bindings[p.Name] = s
	}

	return b.Realize(bindings)
}
