package cgra

import "fmt"

// PortSpec declares one port of a bel, a switch matrix or a tile.
type PortSpec struct {
	Name  string
	Dir   Dir
	Width int
}

// NewPort creates a one-bit port.
func NewPort(name string, dir Dir) PortSpec {
	return PortSpec{Name: name, Dir: dir, Width: 1}
}

// BitWidth returns the width of the port, treating zero as one bit.
func (p PortSpec) BitWidth() int {
	if p.Width <= 0 {
		return 1
	}
	return p.Width
}

func (p PortSpec) String() string {
	return fmt.Sprintf("%s %s[%d]", p.Dir, p.Name, p.BitWidth())
}

// Signal is a named wire. Two signals with the same name in different scopes
// are different wires.
type Signal struct {
	Scope string
	Name  string
	Width int
}

// NewSignal creates a signal of the given width. A width below one is
// treated as one bit.
func NewSignal(scope, name string, width int) Signal {
	if width < 1 {
		width = 1
	}
	return Signal{Scope: scope, Name: name, Width: width}
}

// Path returns the unique identity of the signal.
func (s Signal) Path() string {
	if s.Scope == "" {
		return s.Name
	}
	return s.Scope + "." + s.Name
}

// IsZero reports whether the signal is unset.
func (s Signal) IsZero() bool {
	return s.Name == ""
}

func (s Signal) String() string {
	return s.Path()
}

// CheckPortNames returns a DuplicateNameError if two ports share a name.
func CheckPortNames(path string, ports []PortSpec) error {
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		if seen[p.Name] {
			return &DuplicateNameError{Path: path, Name: p.Name}
		}
		seen[p.Name] = true
	}
	return nil
}
