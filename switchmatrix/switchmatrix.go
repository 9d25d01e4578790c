// Package switchmatrix synthesizes the configurable interconnect of a tile.
//
// A switch matrix is declared as an ordered list of routes, each naming an
// output and the ordered candidates that may drive it. Synthesis produces
// one multiplexer per output and one select register per output with more
// than one candidate. Candidate order is the select encoding: code i routes
// candidate i.
package switchmatrix

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/ctxlog"
	"github.com/sarchlab/cgrafab/netlist"
	"github.com/sarchlab/cgrafab/tech"
)

// Route declares the candidates of one output.
type Route struct {
	Output     string   `yaml:"output"`
	Candidates []string `yaml:"candidates"`
}

// Connectivity is the ordered route list of a switch matrix.
type Connectivity []Route

// A Resolver finds the signals visible to the switch matrix.
type Resolver interface {
	Resolve(name string) (cgra.Signal, bool)
}

// Signals is a Resolver backed by a map.
type Signals map[string]cgra.Signal

// Resolve looks up name.
func (s Signals) Resolve(name string) (cgra.Signal, bool) {
	sig, ok := s[name]
	return sig, ok
}

// SelectWidth returns the select register width for n candidates:
// ceil(log2(n)) for n > 1 and 0 for n == 1.
func SelectWidth(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// ResolvedRoute is a route whose output and candidates are concrete signals.
type ResolvedRoute struct {
	Output     cgra.Signal
	Candidates []string
	Inputs     []cgra.Signal
}

// Resolve validates conn and resolves every candidate. It allocates nothing
// and is safe to call any number of times. Outputs are created in sigScope.
func Resolve(
	path, sigScope string,
	conn Connectivity,
	r Resolver,
) ([]ResolvedRoute, error) {
	outputs := make(map[string]bool, len(conn))
	routes := make([]ResolvedRoute, 0, len(conn))

	for _, route := range conn {
		if outputs[route.Output] {
			return nil, &cgra.DuplicateNameError{Path: path, Name: route.Output}
		}
		outputs[route.Output] = true

		if len(route.Candidates) == 0 {
			return nil, &cgra.EmptyCandidateListError{Path: path, Output: route.Output}
		}

		rr, err := resolveRoute(path, sigScope, route, r)
		if err != nil {
			return nil, err
		}
		routes = append(routes, rr)
	}

	return routes, nil
}

func resolveRoute(
	path, sigScope string,
	route Route,
	r Resolver,
) (ResolvedRoute, error) {
	rr := ResolvedRoute{
		Candidates: append([]string(nil), route.Candidates...),
		Inputs:     make([]cgra.Signal, 0, len(route.Candidates)),
	}

	seen := make(map[string]bool, len(route.Candidates))
	for _, name := range route.Candidates {
		if seen[name] {
			return rr, &cgra.DuplicateNameError{
				Path: path + "." + route.Output,
				Name: name,
			}
		}
		seen[name] = true

		sig, ok := r.Resolve(name)
		if !ok {
			return rr, &cgra.UnresolvedSignalError{
				Path:   path,
				Output: route.Output,
				Name:   name,
			}
		}

		if len(rr.Inputs) > 0 && sig.Width != rr.Inputs[0].Width {
			return rr, &cgra.WidthMismatchError{
				Path: path + "." + route.Output,
				Port: name,
				Want: rr.Inputs[0].Width,
				Got:  sig.Width,
			}
		}
		rr.Inputs = append(rr.Inputs, sig)
	}

	rr.Output = cgra.NewSignal(sigScope, route.Output, rr.Inputs[0].Width)
	return rr, nil
}

type output struct {
	ResolvedRoute
	sel    cfgreg.Register
	hasSel bool
}

// SwitchMatrix is a synthesized crossbar.
type SwitchMatrix struct {
	path     string
	policy   tech.UnusedSelect
	outputs  []output
	byOutput map[string]int
	regs     []cfgreg.Register
}

// Build resolves conn and declares one select register per output that has
// more than one candidate. Registers are named sel_<output> and declared in
// route order.
func Build(
	scope *cfgreg.Scope,
	sigScope string,
	conn Connectivity,
	r Resolver,
	policy tech.UnusedSelect,
) (*SwitchMatrix, error) {
	path := scope.Owner()

	routes, err := Resolve(path, sigScope, conn, r)
	if err != nil {
		return nil, err
	}

	sm := &SwitchMatrix{
		path:     path,
		policy:   policy,
		byOutput: make(map[string]int, len(routes)),
	}

	for _, rr := range routes {
		o := output{ResolvedRoute: rr}

		if w := SelectWidth(len(rr.Inputs)); w > 0 {
			reg, err := scope.DeclareWord("sel_"+rr.Output.Name, w)
			if err != nil {
				return nil, err
			}
			o.sel = reg
			o.hasSel = true
			sm.regs = append(sm.regs, reg)
		}

		ctxlog.Trace("MuxSynthesized",
			"SwitchMatrix", path,
			"Output", rr.Output.Name,
			"Candidates", len(rr.Inputs),
			"SelectWidth", o.sel.Width,
		)

		sm.byOutput[rr.Output.Name] = len(sm.outputs)
		sm.outputs = append(sm.outputs, o)
	}

	return sm, nil
}

// Path returns the registry owner path of the switch matrix.
func (sm *SwitchMatrix) Path() string {
	return sm.path
}

// Registers returns the select registers in declaration order.
func (sm *SwitchMatrix) Registers() []cfgreg.Register {
	return append([]cfgreg.Register(nil), sm.regs...)
}

// Outputs returns the output signals in route order.
func (sm *SwitchMatrix) Outputs() []cgra.Signal {
	out := make([]cgra.Signal, len(sm.outputs))
	for i, o := range sm.outputs {
		out[i] = o.Output
	}
	return out
}

// Output returns the output signal with the given name.
func (sm *SwitchMatrix) Output(name string) (cgra.Signal, bool) {
	i, ok := sm.byOutput[name]
	if !ok {
		return cgra.Signal{}, false
	}
	return sm.outputs[i].Output, true
}

// Candidates returns the candidate names of an output in select order.
func (sm *SwitchMatrix) Candidates(outputName string) ([]string, error) {
	o, err := sm.lookup(outputName)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), o.Candidates...), nil
}

// SelectRegister returns the select register of an output. ok is false
// for direct connections.
func (sm *SwitchMatrix) SelectRegister(outputName string) (reg cfgreg.Register, ok bool, err error) {
	o, err := sm.lookup(outputName)
	if err != nil {
		return cfgreg.Register{}, false, err
	}
	return o.sel, o.hasSel, nil
}

func (sm *SwitchMatrix) lookup(name string) (*output, error) {
	i, ok := sm.byOutput[name]
	if !ok {
		return nil, fmt.Errorf("%s: no output %q", sm.path, name)
	}
	return &sm.outputs[i], nil
}

// Encode returns the register and value that route candidate index to the
// output. Direct connections return a zero-width register and value 0.
func (sm *SwitchMatrix) Encode(outputName string, index int) (cfgreg.Register, uint64, error) {
	o, err := sm.lookup(outputName)
	if err != nil {
		return cfgreg.Register{}, 0, err
	}

	if index < 0 || index >= len(o.Inputs) {
		return cfgreg.Register{}, 0, fmt.Errorf("%s: output %q has %d candidates, index %d out of range",
			sm.path, outputName, len(o.Inputs), index)
	}

	return o.sel, uint64(index), nil
}

// EncodeCandidate is Encode with the candidate given by name.
func (sm *SwitchMatrix) EncodeCandidate(outputName, candidate string) (cfgreg.Register, uint64, error) {
	o, err := sm.lookup(outputName)
	if err != nil {
		return cfgreg.Register{}, 0, err
	}

	for i, c := range o.Candidates {
		if c == candidate {
			return o.sel, uint64(i), nil
		}
	}

	return cfgreg.Register{}, 0, fmt.Errorf("%s: %q is not a candidate of output %q",
		sm.path, candidate, outputName)
}

// Decode returns the candidate index routed by a select value. Values past
// the candidate count follow the unused-select policy: -1 (constant zero)
// for tech.UnusedZero and 0 for tech.UnusedFirst. A direct connection only
// decodes 0.
func (sm *SwitchMatrix) Decode(outputName string, value uint64) (int, error) {
	o, err := sm.lookup(outputName)
	if err != nil {
		return 0, err
	}

	if !o.hasSel && value != 0 {
		return 0, fmt.Errorf("%s: output %q is a direct connection, value %d has no meaning",
			sm.path, outputName, value)
	}

	if o.hasSel && value>>uint(o.sel.Width) != 0 {
		return 0, fmt.Errorf("%s: value %d does not fit select register %s",
			sm.path, value, o.sel)
	}

	if value < uint64(len(o.Inputs)) {
		return int(value), nil
	}

	if sm.policy == tech.UnusedFirst {
		return 0, nil
	}
	return -1, nil
}

// Muxes returns the multiplexer of every output with more than one
// candidate, in route order.
func (sm *SwitchMatrix) Muxes() []netlist.Mux {
	var muxes []netlist.Mux
	for _, o := range sm.outputs {
		if o.hasSel {
			muxes = append(muxes, sm.mux(o))
		}
	}
	return muxes
}

func (sm *SwitchMatrix) mux(o output) netlist.Mux {
	inputs := make([]netlist.Operand, len(o.Inputs))
	for i, in := range o.Inputs {
		inputs[i] = netlist.Sig(in)
	}

	return netlist.Mux{
		Name:   "mux_" + o.Output.Name,
		Output: o.Output,
		Inputs: inputs,
		Select: netlist.CfgBits(o.sel),
		Unused: sm.policy,
	}
}

// Realize emits the structural fragment: a multiplexer per configurable
// output and a direct assignment per single-candidate output.
func (sm *SwitchMatrix) Realize() *netlist.Module {
	m := netlist.NewModule(sm.path, "SwitchMatrix")
	for _, o := range sm.outputs {
		if o.hasSel {
			m.AddMux(sm.mux(o))
		} else {
			m.AddAssign(o.Output, netlist.Sig(o.Inputs[0]))
		}
	}
	return m
}

// FullCrossbar returns connectivity in which every output can select every
// input, in the given orders.
func FullCrossbar(inputs, outputs []string) Connectivity {
	conn := make(Connectivity, 0, len(outputs))
	for _, out := range outputs {
		conn = append(conn, Route{
			Output:     out,
			Candidates: append([]string(nil), inputs...),
		})
	}
	return conn
}
