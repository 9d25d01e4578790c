package cgra

import "fmt"

// DuplicateNameError reports a name declared twice in one scope.
type DuplicateNameError struct {
	Path string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s: duplicate name %q", e.Path, e.Name)
}

// UnresolvedSignalError reports a switch-matrix candidate that does not name
// any signal visible in the enclosing scope.
type UnresolvedSignalError struct {
	Path   string
	Output string
	Name   string
}

func (e *UnresolvedSignalError) Error() string {
	return fmt.Sprintf("%s: candidate %q of output %q does not resolve to a signal",
		e.Path, e.Name, e.Output)
}

// EmptyCandidateListError reports a switch-matrix output without candidates.
type EmptyCandidateListError struct {
	Path   string
	Output string
}

func (e *EmptyCandidateListError) Error() string {
	return fmt.Sprintf("%s: output %q has no candidates", e.Path, e.Output)
}

// PortBindingError reports a port that cannot be bound as requested.
type PortBindingError struct {
	Path   string
	Port   string
	Reason string
}

func (e *PortBindingError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: port %q is not bound", e.Path, e.Port)
	}
	return fmt.Sprintf("%s: port %q: %s", e.Path, e.Port, e.Reason)
}

// WidthMismatchError reports a signal bound to a port of a different width.
type WidthMismatchError struct {
	Path string
	Port string
	Want int
	Got  int
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("%s: port %q expects width %d, got %d",
		e.Path, e.Port, e.Want, e.Got)
}

// UnboundPortError reports a bel input or tile output that has no driver.
type UnboundPortError struct {
	Path string
	Port string
}

func (e *UnboundPortError) Error() string {
	return fmt.Sprintf("%s: port %q has no driver", e.Path, e.Port)
}

// TopologyError reports an invalid grid or adjacency declaration.
type TopologyError struct {
	Fabric string
	Coord  Coord
	Reason string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("%s: tile %s: %s", e.Fabric, e.Coord, e.Reason)
}
