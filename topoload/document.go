// Package topoload reads fabric topologies from YAML and HCL files.
//
// Both formats decode into the same document, which is then turned into a
// fabric.Topology, so equivalent files in either format give equal
// topologies.
package topoload

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/cgrafab/bel"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/fabric"
	"github.com/sarchlab/cgrafab/switchmatrix"
	"github.com/sarchlab/cgrafab/tech"
	"github.com/sarchlab/cgrafab/tile"
)

type techDoc struct {
	LUTInputs      *int   `yaml:"lut_inputs"`
	Tracks         *int   `yaml:"tracks"`
	ConfigBusWidth *int   `yaml:"config_bus_width"`
	UnusedSelect   string `yaml:"unused_select"`
	Clock          string `yaml:"clock"`
}

type portDoc struct {
	Name  string `yaml:"name"`
	Dir   string `yaml:"dir"`
	Width int    `yaml:"width"`
}

type tileDoc struct {
	Name      string                    `yaml:"name"`
	BasePorts bool                      `yaml:"base_ports"`
	Ports     []portDoc                 `yaml:"ports"`
	Bels      []bel.Spec                `yaml:"bels"`
	Matrix    switchmatrix.Connectivity `yaml:"matrix"`
	Binds     []tile.Binding            `yaml:"binds"`
}

type linkDoc struct {
	From     []int  `yaml:"from"`
	FromPort string `yaml:"from_port"`
	To       []int  `yaml:"to"`
	ToPort   string `yaml:"to_port"`
}

type document struct {
	Name      string     `yaml:"name"`
	Tech      techDoc    `yaml:"tech"`
	Mesh      bool       `yaml:"mesh"`
	TileTypes []tileDoc  `yaml:"tile_types"`
	Grid      [][]string `yaml:"grid"`
	Order     [][]int    `yaml:"order"`
	Links     []linkDoc  `yaml:"links"`
}

func (d techDoc) spec() (tech.Spec, error) {
	t := tech.Defaults()

	if d.LUTInputs != nil {
		t.LUTInputs = *d.LUTInputs
	}
	if d.Tracks != nil {
		t.Tracks = *d.Tracks
	}
	if d.ConfigBusWidth != nil {
		t.ConfigBusWidth = *d.ConfigBusWidth
	}
	if d.Clock != "" {
		t.Clock = d.Clock
	}

	var err error
	t.UnusedSelect, err = tech.ParseUnusedSelect(d.UnusedSelect)
	if err != nil {
		return tech.Spec{}, err
	}

	return t, t.Validate()
}

func coord(xy []int) (cgra.Coord, error) {
	if len(xy) != 2 {
		return cgra.Coord{}, errors.Errorf("coordinate %v must have two elements", xy)
	}
	return cgra.Coord{X: xy[0], Y: xy[1]}, nil
}

func (d tileDoc) spec(t tech.Spec) (tile.Spec, error) {
	s := tile.Spec{
		Name:   d.Name,
		Bels:   d.Bels,
		Matrix: d.Matrix,
		Binds:  d.Binds,
	}

	if d.BasePorts {
		s.Ports = tile.BasePorts(t.Tracks)
	}

	for _, p := range d.Ports {
		dir, err := cgra.ParseDir(p.Dir)
		if err != nil {
			return tile.Spec{}, errors.Wrapf(err, "tile type %s port %s", d.Name, p.Name)
		}
		s.Ports = append(s.Ports, cgra.PortSpec{Name: p.Name, Dir: dir, Width: p.Width})
	}

	return s, nil
}

func (d document) topology() (fabric.Topology, error) {
	t, err := d.Tech.spec()
	if err != nil {
		return fabric.Topology{}, errors.Wrap(err, "tech")
	}

	topo := fabric.Topology{
		Name:      d.Name,
		Tech:      t,
		TileTypes: make(map[string]tile.Spec, len(d.TileTypes)),
		Grid:      d.Grid,
		Mesh:      d.Mesh,
	}

	for _, td := range d.TileTypes {
		if _, dup := topo.TileTypes[td.Name]; dup {
			return fabric.Topology{}, &cgra.DuplicateNameError{Path: "tile_types", Name: td.Name}
		}

		s, err := td.spec(t)
		if err != nil {
			return fabric.Topology{}, err
		}
		topo.TileTypes[td.Name] = s
	}

	for _, xy := range d.Order {
		c, err := coord(xy)
		if err != nil {
			return fabric.Topology{}, errors.Wrap(err, "order")
		}
		topo.Order = append(topo.Order, c)
	}

	for i, ld := range d.Links {
		from, err := coord(ld.From)
		if err != nil {
			return fabric.Topology{}, errors.Wrapf(err, "link %d", i)
		}

		to, err := coord(ld.To)
		if err != nil {
			return fabric.Topology{}, errors.Wrapf(err, "link %d", i)
		}

		topo.Links = append(topo.Links, fabric.Link{
			From:     from,
			FromPort: ld.FromPort,
			To:       to,
			ToPort:   ld.ToPort,
		})
	}

	return topo, nil
}
