// Package cgra defines the commonly used data structure for CGRA fabrics.
package cgra

import "fmt"

// Side defines the side of a tile.
type Side int

const (
	North Side = iota
	East
	South
	West
)

// Sides lists all sides in declaration order.
var Sides = []Side{North, East, South, West}

// Name returns the name of the side.
func (s Side) Name() string {
	switch s {
	case North:
		return "North"
	case West:
		return "West"
	case South:
		return "South"
	case East:
		return "East"
	default:
		panic("invalid side")
	}
}

// Letter returns the one-letter prefix used in routing port names.
func (s Side) Letter() string {
	return s.Name()[:1]
}

// Opposite returns the side that faces s on the neighboring tile.
func (s Side) Opposite() Side {
	return (s + 2) % 4
}

// Offset returns the grid step towards the neighbor on side s. Row 0 is the
// northern edge.
func (s Side) Offset() (dx, dy int) {
	switch s {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		panic("invalid side")
	}
}

// Dir is the direction of a port.
type Dir int

const (
	In Dir = iota
	Out
	InOut
)

// String returns the lower case name of the direction.
func (d Dir) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	case InOut:
		return "inout"
	default:
		panic("invalid direction")
	}
}

// ParseDir converts "in", "out" or "inout" into a Dir.
func ParseDir(s string) (Dir, error) {
	switch s {
	case "in", "IN":
		return In, nil
	case "out", "OUT":
		return Out, nil
	case "inout", "INOUT":
		return InOut, nil
	}

	return In, fmt.Errorf("unknown port direction %q", s)
}

// Drives reports whether a port with direction d can drive a signal.
func (d Dir) Drives() bool {
	return d == Out || d == InOut
}

// Sinks reports whether a port with direction d receives a signal.
func (d Dir) Sinks() bool {
	return d == In || d == InOut
}

// Coord is a tile coordinate. X grows eastwards and Y southwards.
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Step returns the neighboring coordinate on the given side.
func (c Coord) Step(s Side) Coord {
	dx, dy := s.Offset()
	return Coord{X: c.X + dx, Y: c.Y + dy}
}
