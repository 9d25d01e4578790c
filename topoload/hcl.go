package topoload

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/sarchlab/cgrafab/bel"
	"github.com/sarchlab/cgrafab/fabric"
	"github.com/sarchlab/cgrafab/switchmatrix"
	"github.com/sarchlab/cgrafab/tile"
	"github.com/zclconf/go-cty/cty"
)

// The tech block is decoded first, without variables. The rest of the file
// is decoded with tech.* in scope.
type hclTechFile struct {
	Tech   *hclTech `hcl:"tech,block"`
	Remain hcl.Body `hcl:",remain"`
}

type hclTech struct {
	LUTInputs      *int    `hcl:"lut_inputs,optional"`
	Tracks         *int    `hcl:"tracks,optional"`
	ConfigBusWidth *int    `hcl:"config_bus_width,optional"`
	UnusedSelect   *string `hcl:"unused_select,optional"`
	Clock          *string `hcl:"clock,optional"`
}

type hclBody struct {
	Name      *string        `hcl:"name,optional"`
	Mesh      *bool          `hcl:"mesh,optional"`
	Grid      [][]string     `hcl:"grid"`
	Order     [][]int        `hcl:"order,optional"`
	TileTypes []*hclTileType `hcl:"tile_type,block"`
	Links     []*hclLink     `hcl:"link,block"`
}

type hclTileType struct {
	Name      string      `hcl:"name,label"`
	BasePorts *bool       `hcl:"base_ports,optional"`
	Ports     []*hclPort  `hcl:"port,block"`
	Bels      []*hclBel   `hcl:"bel,block"`
	Routes    []*hclRoute `hcl:"route,block"`
	Binds     []*hclBind  `hcl:"bind,block"`
}

type hclPort struct {
	Name  string `hcl:"name,label"`
	Dir   string `hcl:"dir"`
	Width *int   `hcl:"width,optional"`
}

type hclBel struct {
	Kind   string  `hcl:"kind,label"`
	Name   string  `hcl:"name,label"`
	Prefix *string `hcl:"prefix,optional"`
	Depth  *int    `hcl:"depth,optional"`
	Width  *int    `hcl:"width,optional"`
}

type hclRoute struct {
	Output     string   `hcl:"output,label"`
	Candidates []string `hcl:"candidates"`
}

type hclBind struct {
	TilePort string  `hcl:"tile_port,label"`
	Bel      *string `hcl:"bel,optional"`
	Port     string  `hcl:"port"`
}

type hclLink struct {
	From     []int  `hcl:"from"`
	FromPort string `hcl:"from_port"`
	To       []int  `hcl:"to"`
	ToPort   string `hcl:"to_port"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ParseHCL decodes an HCL topology. Expressions outside the tech block may
// reference tech.lut_inputs, tech.tracks and tech.config_bus_width.
func ParseHCL(data []byte, filename string) (fabric.Topology, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return fabric.Topology{}, errors.Wrap(diags, "parse hcl")
	}

	var head hclTechFile
	if diags := gohcl.DecodeBody(file.Body, nil, &head); diags.HasErrors() {
		return fabric.Topology{}, errors.Wrap(diags, "decode tech block")
	}

	var doc document
	if head.Tech != nil {
		doc.Tech = techDoc{
			LUTInputs:      head.Tech.LUTInputs,
			Tracks:         head.Tech.Tracks,
			ConfigBusWidth: head.Tech.ConfigBusWidth,
			UnusedSelect:   deref(head.Tech.UnusedSelect),
			Clock:          deref(head.Tech.Clock),
		}
	}

	t, err := doc.Tech.spec()
	if err != nil {
		return fabric.Topology{}, errors.Wrap(err, "tech")
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"tech": cty.ObjectVal(map[string]cty.Value{
				"lut_inputs":       cty.NumberIntVal(int64(t.LUTInputs)),
				"tracks":           cty.NumberIntVal(int64(t.Tracks)),
				"config_bus_width": cty.NumberIntVal(int64(t.ConfigBusWidth)),
			}),
		},
	}

	var body hclBody
	if diags := gohcl.DecodeBody(head.Remain, ctx, &body); diags.HasErrors() {
		return fabric.Topology{}, errors.Wrap(diags, "decode hcl")
	}

	doc.Name = deref(body.Name)
	doc.Mesh = deref(body.Mesh)
	doc.Grid = body.Grid
	doc.Order = body.Order

	for _, tt := range body.TileTypes {
		doc.TileTypes = append(doc.TileTypes, tt.doc())
	}

	for _, l := range body.Links {
		doc.Links = append(doc.Links, linkDoc{
			From:     l.From,
			FromPort: l.FromPort,
			To:       l.To,
			ToPort:   l.ToPort,
		})
	}

	return doc.topology()
}

func (tt *hclTileType) doc() tileDoc {
	td := tileDoc{
		Name:      tt.Name,
		BasePorts: deref(tt.BasePorts),
	}

	for _, p := range tt.Ports {
		td.Ports = append(td.Ports, portDoc{Name: p.Name, Dir: p.Dir, Width: deref(p.Width)})
	}

	for _, b := range tt.Bels {
		td.Bels = append(td.Bels, bel.Spec{
			Kind:   b.Kind,
			Name:   b.Name,
			Prefix: deref(b.Prefix),
			Depth:  deref(b.Depth),
			Width:  deref(b.Width),
		})
	}

	for _, r := range tt.Routes {
		td.Matrix = append(td.Matrix, switchmatrix.Route{Output: r.Output, Candidates: r.Candidates})
	}

	for _, b := range tt.Binds {
		td.Binds = append(td.Binds, tile.Binding{
			TilePort: b.TilePort,
			Target:   tile.Target{Bel: deref(b.Bel), Port: b.Port},
		})
	}

	return td
}
