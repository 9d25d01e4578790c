package tile

import (
	"fmt"

	"github.com/sarchlab/cgrafab/cgra"
)

// RoutingInput names the i-th routing input on a side, e.g. N_I0.
func RoutingInput(s cgra.Side, i int) string {
	return fmt.Sprintf("%s_I%d", s.Letter(), i)
}

// RoutingOutput names the i-th routing output on a side, e.g. N_O0.
func RoutingOutput(s cgra.Side, i int) string {
	return fmt.Sprintf("%s_O%d", s.Letter(), i)
}

// BasePorts returns the neighbor routing ports of a tile: for every side,
// tracks inputs followed by tracks outputs.
func BasePorts(tracks int) []cgra.PortSpec {
	ports := make([]cgra.PortSpec, 0, 8*tracks)
	for _, s := range cgra.Sides {
		for i := 0; i < tracks; i++ {
			ports = append(ports, cgra.NewPort(RoutingInput(s, i), cgra.In))
		}
		for i := 0; i < tracks; i++ {
			ports = append(ports, cgra.NewPort(RoutingOutput(s, i), cgra.Out))
		}
	}
	return ports
}

// RoutingInputs lists the routing input names in BasePorts order.
func RoutingInputs(tracks int) []string {
	var names []string
	for _, s := range cgra.Sides {
		for i := 0; i < tracks; i++ {
			names = append(names, RoutingInput(s, i))
		}
	}
	return names
}

// RoutingOutputs lists the routing output names in BasePorts order.
func RoutingOutputs(tracks int) []string {
	var names []string
	for _, s := range cgra.Sides {
		for i := 0; i < tracks; i++ {
			names = append(names, RoutingOutput(s, i))
		}
	}
	return names
}
