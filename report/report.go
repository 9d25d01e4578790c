// Package report renders a built fabric design for people and tools.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/fabric"
	"github.com/sarchlab/cgrafab/netlist"
	"gopkg.in/yaml.v3"
)

// AddressMapTable renders every register of m with its bit range.
func AddressMapTable(m cfgreg.AddressMap) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Configuration Address Map (%d bits)", m.Width()))
	t.AppendHeader(table.Row{"Offset", "End", "Width", "Owner", "Register"})

	for _, e := range m.Entries {
		t.AppendRow(table.Row{e.Offset, e.End(), e.Width, e.Owner, e.Name})
	}

	return t.Render()
}

// TileUsage summarizes one tile of a design.
type TileUsage struct {
	Tile  string
	Type  string
	Range cfgreg.Range
	Bels  int
	Stats netlist.Stats
}

// Usage returns the per-tile summary of d in address order.
func Usage(d *fabric.Design) []TileUsage {
	modules := make(map[string]*netlist.Module, len(d.Module.Children))
	for _, c := range d.Module.Children {
		modules[c.Path] = c
	}

	usage := make([]TileUsage, 0, len(d.Tiles))
	for _, pt := range d.Tiles {
		u := TileUsage{
			Tile:  pt.Tile.Path(),
			Type:  pt.Tile.Type(),
			Range: pt.Range,
			Bels:  len(pt.Tile.Bels()),
		}
		if m, ok := modules[pt.Tile.Path()]; ok {
			u.Stats = m.Stats()
		}
		usage = append(usage, u)
	}

	return usage
}

// UtilizationTable renders Usage as a table with a total row.
func UtilizationTable(d *fabric.Design) string {
	t := table.NewWriter()
	t.SetTitle("Tile Utilization")
	t.AppendHeader(table.Row{"Tile", "Type", "Range", "Bits", "Bels", "Muxes", "FFs", "Assigns"})

	var total TileUsage
	for _, u := range Usage(d) {
		t.AppendRow(table.Row{
			u.Tile, u.Type, u.Range.String(), u.Range.Width(),
			u.Bels, u.Stats.Muxes, u.Stats.FFs, u.Stats.Assigns,
		})

		total.Bels += u.Bels
		total.Stats.Muxes += u.Stats.Muxes
		total.Stats.FFs += u.Stats.FFs
		total.Stats.Assigns += u.Stats.Assigns
	}

	t.AppendFooter(table.Row{
		"Total", "", "", d.AddressMap.Width(),
		total.Bels, total.Stats.Muxes, total.Stats.FFs, total.Stats.Assigns,
	})

	return t.Render()
}

// Write prints the full report of d.
func Write(w io.Writer, d *fabric.Design) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "FABRIC %s\n", d.Name)
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "Tiles: %d  Ports: %d  Config bits: %d\n\n",
		len(d.Tiles), len(d.Ports), d.AddressMap.Width())

	fmt.Fprintln(w, UtilizationTable(d))
	fmt.Fprintln(w)
	fmt.Fprintln(w, AddressMapTable(d.AddressMap))
}

type yamlTile struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

type yamlPort struct {
	Name  string `yaml:"name"`
	Dir   string `yaml:"dir"`
	Width int    `yaml:"width"`
}

type yamlAddressMap struct {
	Fabric    string         `yaml:"fabric"`
	Width     int            `yaml:"width"`
	Tiles     []yamlTile     `yaml:"tiles"`
	Ports     []yamlPort     `yaml:"ports,omitempty"`
	Registers []cfgreg.Entry `yaml:"registers"`
}

// WriteAddressMapYAML exports the address map of d for bitstream tools.
func WriteAddressMapYAML(w io.Writer, d *fabric.Design) error {
	out := yamlAddressMap{
		Fabric:    d.Name,
		Width:     d.AddressMap.Width(),
		Registers: d.AddressMap.Entries,
	}

	for _, pt := range d.Tiles {
		out.Tiles = append(out.Tiles, yamlTile{
			Name:  pt.Tile.Path(),
			Type:  pt.Tile.Type(),
			Start: pt.Range.Start,
			End:   pt.Range.End,
		})
	}

	for _, p := range d.Ports {
		out.Ports = append(out.Ports, yamlPort{Name: p.Name, Dir: p.Dir.String(), Width: p.Width})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode address map: %w", err)
	}
	return enc.Close()
}

// ReadAddressMapYAML reads the registers written by WriteAddressMapYAML.
func ReadAddressMapYAML(r io.Reader) (cfgreg.AddressMap, error) {
	var in yamlAddressMap
	if err := yaml.NewDecoder(r).Decode(&in); err != nil {
		return cfgreg.AddressMap{}, fmt.Errorf("decode address map: %w", err)
	}

	m := cfgreg.AddressMap{Entries: in.Registers}
	if err := m.Validate(); err != nil {
		return cfgreg.AddressMap{}, err
	}
	return m, nil
}
