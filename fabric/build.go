package fabric

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/netlist"
)

// Port is a tile port left unconnected by the links and exposed at the
// fabric boundary.
type Port struct {
	Name     string
	Dir      cgra.Dir
	Width    int
	Signal   cgra.Signal
	Tile     cgra.Coord
	TilePort string
}

// Design is the result of building a fabric.
type Design struct {
	Name       string
	Module     *netlist.Module
	AddressMap cfgreg.AddressMap
	Tiles      []PlacedTile
	Ports      []Port
}

// TileAt returns the placed tile at c.
func (d *Design) TileAt(c cgra.Coord) (PlacedTile, bool) {
	for _, pt := range d.Tiles {
		if pt.Coord == c {
			return pt, true
		}
	}
	return PlacedTile{}, false
}

// TileRange returns the global address range of the tile at c.
func (d *Design) TileRange(c cgra.Coord) (cfgreg.Range, bool) {
	pt, ok := d.TileAt(c)
	return pt.Range, ok
}

// Port returns the fabric port with the given name.
func (d *Design) Port(name string) (Port, bool) {
	for _, p := range d.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Build elaborates every tile in address order and assigns each one the
// next contiguous range of the global address space. Building the same
// fabric twice yields identical designs. Hooks only observe builds that
// succeed.
func (f *Fabric) Build() (*Design, error) {
	top := netlist.NewModule(f.name, "Fabric")
	d := &Design{Name: f.name, Module: top}

	for _, pt := range f.tiles {
		m, err := pt.Tile.Elaborate()
		if err != nil {
			return nil, err
		}
		top.AddChild(m)

		base := d.AddressMap.Width()
		d.AddressMap = d.AddressMap.Concat(pt.Tile.AddressRange())

		d.Tiles = append(d.Tiles, PlacedTile{
			Coord: pt.Coord,
			Tile:  pt.Tile,
			Range: cfgreg.Range{Start: base, End: d.AddressMap.Width()},
		})
	}

	for _, l := range f.links {
		top.AddAssign(l.dst, netlist.Sig(l.src))
	}

	f.exposePorts(d)

	if err := d.AddressMap.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}

	if err := d.AddressMap.CheckRegistry(f.registry); err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}

	f.publish(d)

	return d, nil
}

func (f *Fabric) publish(d *Design) {
	for i, placed := range d.Tiles {
		f.tiles[i].Range = placed.Range

		f.InvokeHook(sim.HookCtx{
			Domain: f,
			Pos:    HookPosTileElaborated,
			Item:   placed.Tile,
		})

		f.InvokeHook(sim.HookCtx{
			Domain: f,
			Pos:    HookPosAddressAssigned,
			Item:   placed,
		})
	}
}

// exposePorts lifts tile inputs without a link driver and tile outputs no
// link consumes to the fabric boundary. A linked bidirectional port stays
// internal.
func (f *Fabric) exposePorts(d *Design) {
	top := d.Module

	for _, pt := range f.tiles {
		for _, p := range pt.Tile.Ports() {
			switch {
			case p.Dir == cgra.In && f.driven[pt.Coord][p.Name]:
				continue
			case p.Dir == cgra.Out && f.consumed[pt.Coord][p.Name]:
				continue
			case p.Dir == cgra.InOut && f.driven[pt.Coord][p.Name]:
				continue
			}

			inner, _ := pt.Tile.Signal(p.Name)
			name := TilePath(pt.Coord) + "_" + p.Name
			top.Ports = append(top.Ports, cgra.PortSpec{Name: name, Dir: p.Dir, Width: p.BitWidth()})

			// Bidirectional pads are exposed as the tile wire itself.
			outer := inner
			switch p.Dir {
			case cgra.In:
				outer = top.AddSignal(name, p.BitWidth())
				top.AddAssign(inner, netlist.Sig(outer))
			case cgra.Out:
				outer = top.AddSignal(name, p.BitWidth())
				top.AddAssign(outer, netlist.Sig(inner))
			}

			d.Ports = append(d.Ports, Port{
				Name:     name,
				Dir:      p.Dir,
				Width:    p.BitWidth(),
				Signal:   outer,
				Tile:     pt.Coord,
				TilePort: p.Name,
			})
		}
	}
}

// Builder creates fabrics.
type Builder struct {
	topo  Topology
	hooks []sim.Hook
}

// WithTopology sets the topology to build.
func (b Builder) WithTopology(t Topology) Builder {
	b.topo = t
	return b
}

// WithHook attaches a hook to the fabric before it is built.
func (b Builder) WithHook(h sim.Hook) Builder {
	b.hooks = append(append([]sim.Hook(nil), b.hooks...), h)
	return b
}

// Build constructs the fabric and builds its design.
func (b Builder) Build(name string) (*Design, error) {
	f, err := New(name, b.topo)
	if err != nil {
		return nil, err
	}

	for _, h := range b.hooks {
		f.AcceptHook(h)
	}

	return f.Build()
}
