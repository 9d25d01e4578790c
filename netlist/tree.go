package netlist

import (
	"fmt"

	"github.com/sarchlab/cgrafab/cgra"
)

// SelectTree realizes out = inputs[Cat(sel)] as a balanced tree of 2:1
// multiplexers. sel[0] is the least significant select bit and picks between
// adjacent inputs at the leaves. len(inputs) must be 1<<len(sel).
func SelectTree(m *Module, name string, inputs, sel []Operand, out cgra.Signal) {
	if len(inputs) != 1<<len(sel) {
		panic(fmt.Sprintf("select tree %s: %d inputs for %d select bits",
			name, len(inputs), len(sel)))
	}

	if len(sel) == 0 {
		m.AddAssign(out, inputs[0])
		return
	}

	level := inputs
	for l, s := range sel {
		next := make([]Operand, len(level)/2)
		for i := range next {
			var y cgra.Signal
			if len(next) == 1 {
				y = out
			} else {
				y = m.AddSignal(fmt.Sprintf("%s_l%d_%d", name, l, i), out.Width)
			}

			m.AddMux(Mux{
				Name:   fmt.Sprintf("%s_l%d_%d", name, l, i),
				Output: y,
				Inputs: []Operand{level[2*i], level[2*i+1]},
				Select: []Operand{s},
			})
			next[i] = Sig(y)
		}
		level = next
	}
}
