// Package fabric composes tiles into a CGRA fabric and produces the global
// configuration address map.
//
// Building happens in two phases. New validates the topology, instantiates
// the tiles and resolves the links. Build elaborates every tile, lays the
// tile address ranges end to end and emits the structural description. The
// Builder runs both.
package fabric

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/tile"
)

// HookPosTileElaborated marks a tile whose structural fragment was emitted.
// The hook item is the *tile.Tile.
var HookPosTileElaborated = &sim.HookPos{Name: "Tile Elaborated"}

// HookPosAddressAssigned marks a tile that received its global range. The
// hook item is the PlacedTile.
var HookPosAddressAssigned = &sim.HookPos{Name: "Address Assigned"}

// PlacedTile is a tile at a grid coordinate.
type PlacedTile struct {
	Coord cgra.Coord
	Tile  *tile.Tile
	Range cfgreg.Range
}

type resolvedLink struct {
	Link
	src, dst cgra.Signal
}

// Fabric is a validated topology with instantiated tiles. It does not
// change after New returns.
type Fabric struct {
	*sim.HookableBase

	name     string
	topo     Topology
	registry *cfgreg.Registry
	tiles    []*PlacedTile
	byCoord  map[cgra.Coord]*PlacedTile
	links    []resolvedLink
	driven   map[cgra.Coord]map[string]bool
	consumed map[cgra.Coord]map[string]bool
}

// New validates topo and instantiates its tiles with a registry of their
// own.
func New(name string, topo Topology) (*Fabric, error) {
	if err := topo.Tech.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	f := &Fabric{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		topo:         topo,
		registry:     cfgreg.NewRegistry(),
		byCoord:      make(map[cgra.Coord]*PlacedTile),
		driven:       make(map[cgra.Coord]map[string]bool),
		consumed:     make(map[cgra.Coord]map[string]bool),
	}

	order, err := f.placementOrder()
	if err != nil {
		return nil, err
	}

	for _, c := range order {
		spec := topo.TileTypes[topo.Grid[c.Y][c.X]]
		t, err := tile.New(TilePath(c), spec, topo.Tech, f.registry)
		if err != nil {
			return nil, err
		}

		pt := &PlacedTile{Coord: c, Tile: t}
		f.tiles = append(f.tiles, pt)
		f.byCoord[c] = pt
	}

	links := topo.Links
	if topo.Mesh {
		links = append(f.meshLinks(), links...)
	}

	for _, l := range links {
		if err := f.resolveLink(l); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// TilePath returns the instance path of the tile at c.
func TilePath(c cgra.Coord) string {
	return fmt.Sprintf("X%dY%d", c.X, c.Y)
}

// Name returns the fabric name.
func (f *Fabric) Name() string {
	return f.name
}

// Tiles returns the placed tiles in address order. Ranges are set once
// Build succeeds.
func (f *Fabric) Tiles() []*PlacedTile {
	return append([]*PlacedTile(nil), f.tiles...)
}

// Tile returns the tile at c.
func (f *Fabric) Tile(c cgra.Coord) (*tile.Tile, bool) {
	pt, ok := f.byCoord[c]
	if !ok {
		return nil, false
	}
	return pt.Tile, true
}

func (f *Fabric) topologyError(c cgra.Coord, format string, args ...any) error {
	return &cgra.TopologyError{
		Fabric: f.name,
		Coord:  c,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (f *Fabric) placementOrder() ([]cgra.Coord, error) {
	width, height := f.topo.Size()
	if width == 0 || height == 0 {
		return nil, f.topologyError(cgra.Coord{}, "grid is empty")
	}

	var occupied []cgra.Coord
	for y, row := range f.topo.Grid {
		if len(row) != width {
			return nil, f.topologyError(cgra.Coord{X: len(row), Y: y},
				"row %d has %d cells, expected %d", y, len(row), width)
		}

		for x, typ := range row {
			if typ == "" {
				continue
			}

			c := cgra.Coord{X: x, Y: y}
			if _, ok := f.topo.TileTypes[typ]; !ok {
				return nil, f.topologyError(c, "unknown tile type %q", typ)
			}
			occupied = append(occupied, c)
		}
	}

	if len(f.topo.Order) == 0 {
		return occupied, nil
	}

	return f.declaredOrder(occupied)
}

func (f *Fabric) declaredOrder(occupied []cgra.Coord) ([]cgra.Coord, error) {
	seen := make(map[cgra.Coord]bool, len(f.topo.Order))
	for _, c := range f.topo.Order {
		if !f.inGrid(c) || f.topo.Grid[c.Y][c.X] == "" {
			return nil, f.topologyError(c, "ordered cell holds no tile")
		}
		if seen[c] {
			return nil, f.topologyError(c, "cell listed twice in order")
		}
		seen[c] = true
	}

	for _, c := range occupied {
		if !seen[c] {
			return nil, f.topologyError(c, "tile missing from order")
		}
	}

	return append([]cgra.Coord(nil), f.topo.Order...), nil
}

func (f *Fabric) inGrid(c cgra.Coord) bool {
	width, height := f.topo.Size()
	return c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height
}

func (f *Fabric) meshLinks() []Link {
	width, height := f.topo.Size()

	var links []Link
	for _, l := range MeshLinks(width, height, f.topo.Tech.Tracks) {
		if f.topo.Grid[l.From.Y][l.From.X] != "" && f.topo.Grid[l.To.Y][l.To.X] != "" {
			links = append(links, l)
		}
	}
	return links
}

func (f *Fabric) resolveLink(l Link) error {
	from, ok := f.byCoord[l.From]
	if !ok {
		return f.topologyError(l.From, "link source %s.%s references no tile", TilePath(l.From), l.FromPort)
	}

	to, ok := f.byCoord[l.To]
	if !ok {
		return f.topologyError(l.To, "link target %s.%s references no tile", TilePath(l.To), l.ToPort)
	}

	src, ok := portSignal(from.Tile, l.FromPort, cgra.Dir.Drives)
	if !ok {
		return f.topologyError(l.From, "no output port %q", l.FromPort)
	}

	dst, ok := portSignal(to.Tile, l.ToPort, cgra.Dir.Sinks)
	if !ok {
		return f.topologyError(l.To, "no input port %q", l.ToPort)
	}

	if src.Width != dst.Width {
		return f.topologyError(l.To, "port %q is %d bits wide, driven by %d bits",
			l.ToPort, dst.Width, src.Width)
	}

	if f.driven[l.To][l.ToPort] {
		return f.topologyError(l.To, "input port %q driven by more than one link", l.ToPort)
	}
	mark(f.driven, l.To, l.ToPort)
	mark(f.consumed, l.From, l.FromPort)

	f.links = append(f.links, resolvedLink{Link: l, src: src, dst: dst})
	return nil
}

func portSignal(t *tile.Tile, name string, want func(cgra.Dir) bool) (cgra.Signal, bool) {
	for _, p := range t.Ports() {
		if p.Name == name && want(p.Dir) {
			return t.Signal(name)
		}
	}
	return cgra.Signal{}, false
}

func mark(m map[cgra.Coord]map[string]bool, c cgra.Coord, port string) {
	if m[c] == nil {
		m[c] = make(map[string]bool)
	}
	m[c][port] = true
}
