package fabric

import (
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/tech"
	"github.com/sarchlab/cgrafab/tile"
)

// Link drives an input port of one tile from an output port of another.
type Link struct {
	From     cgra.Coord
	FromPort string
	To       cgra.Coord
	ToPort   string
}

// Topology is the parsed, declarative description of a fabric.
type Topology struct {
	Name      string
	Tech      tech.Spec
	TileTypes map[string]tile.Spec

	// Grid[y][x] names the tile type at (x, y). An empty name leaves the
	// cell empty.
	Grid [][]string

	// Order optionally lists the occupied cells in address order. When
	// empty, cells are ordered row-major.
	Order []cgra.Coord

	Links []Link

	// Mesh adds MeshLinks between every pair of occupied neighbors.
	Mesh bool
}

// Size returns the grid width and height.
func (t Topology) Size() (width, height int) {
	if len(t.Grid) == 0 {
		return 0, 0
	}
	return len(t.Grid[0]), len(t.Grid)
}

// MeshLinks connects every tile to its four neighbors over BasePorts:
// output track i on a side drives input track i on the facing side of the
// neighbor.
func MeshLinks(width, height, tracks int) []Link {
	var links []Link
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			from := cgra.Coord{X: x, Y: y}
			for _, s := range cgra.Sides {
				to := from.Step(s)
				if to.X < 0 || to.X >= width || to.Y < 0 || to.Y >= height {
					continue
				}
				for i := 0; i < tracks; i++ {
					links = append(links, Link{
						From:     from,
						FromPort: tile.RoutingOutput(s, i),
						To:       to,
						ToPort:   tile.RoutingInput(s.Opposite(), i),
					})
				}
			}
		}
	}
	return links
}
