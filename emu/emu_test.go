package emu_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cgrafab/bel"
	"github.com/sarchlab/cgrafab/bitstream"
	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/emu"
	"github.com/sarchlab/cgrafab/netlist"
	"github.com/sarchlab/cgrafab/tech"
)

// realize builds one bel with every port bound to a signal in scope "t".
func realize(spec bel.Spec, t tech.Spec) (*netlist.Module, *bitstream.Image) {
	scope, err := cfgreg.NewRegistry().Scope("t." + spec.Name)
	Expect(err).NotTo(HaveOccurred())

	b, err := bel.New(spec, t, scope)
	Expect(err).NotTo(HaveOccurred())

	bindings := make(map[string]cgra.Signal)
	for _, p := range b.Ports() {
		bindings[p.Name] = cgra.NewSignal("t", p.Name, p.BitWidth())
	}

	m, err := b.Realize(bindings)
	Expect(err).NotTo(HaveOccurred())

	return m, bitstream.New(cfgreg.Allocate(b.Registers()))
}

var _ = Describe("Evaluator", func() {
	Context("LogicCell", func() {
		var (
			m   *netlist.Module
			img *bitstream.Image
		)

		BeforeEach(func() {
			t := tech.Defaults()
			t.LUTInputs = 3
			m, img = realize(bel.Spec{Kind: bel.KindLogicCell, Name: "lc0"}, t)
		})

		It("should index INIT by Cat(inputs) with the first input as LSB", func() {
			// Only index 0b011 is set: A=1, B=1, C=0.
			Expect(img.Set("t.lc0", "INIT", 1<<3)).To(Succeed())

			e, err := emu.New(m, img)
			Expect(err).NotTo(HaveOccurred())

			for idx := 0; idx < 8; idx++ {
				for i, name := range []string{"A", "B", "C"} {
					Expect(e.Set("t."+name, uint64(idx>>i&1))).To(Succeed())
				}
				Expect(e.Settle()).To(Succeed())

				got, err := e.Get("t.O")
				Expect(err).NotTo(HaveOccurred())

				want := uint64(0)
				if idx == 3 {
					want = 1
				}
				Expect(got).To(Equal(want), fmt.Sprintf("index %d", idx))
			}
		})

		It("should realize an arbitrary truth table", func() {
			const init = 0b1001_0110 // three-input XOR
			Expect(img.Set("t.lc0", "INIT", init)).To(Succeed())

			e, err := emu.New(m, img)
			Expect(err).NotTo(HaveOccurred())

			for idx := 0; idx < 8; idx++ {
				Expect(e.Set("t.A", uint64(idx&1))).To(Succeed())
				Expect(e.Set("t.B", uint64(idx>>1&1))).To(Succeed())
				Expect(e.Set("t.C", uint64(idx>>2&1))).To(Succeed())
				Expect(e.Settle()).To(Succeed())

				got, _ := e.Get("t.O")
				Expect(got).To(Equal(uint64(init >> idx & 1)))
			}
		})

		It("should bypass the flip-flop when FF is 0", func() {
			Expect(img.Set("t.lc0", "INIT", 0b10)).To(Succeed()) // O = A

			e, err := emu.New(m, img)
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Set("t.A", 1)).To(Succeed())
			Expect(e.Settle()).To(Succeed())

			got, _ := e.Get("t.O")
			Expect(got).To(Equal(uint64(1)))
		})

		It("should select the registered value when FF is 1", func() {
			Expect(img.Set("t.lc0", "INIT", 0b10)).To(Succeed())
			Expect(img.Set("t.lc0", "FF", 1)).To(Succeed())

			e, err := emu.New(m, img)
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Set("t.A", 1)).To(Succeed())
			Expect(e.Settle()).To(Succeed())

			got, _ := e.Get("t.O")
			Expect(got).To(Equal(uint64(0)))

			Expect(e.Clock("clk")).To(Succeed())
			got, _ = e.Get("t.O")
			Expect(got).To(Equal(uint64(1)))

			Expect(e.Set("t.A", 0)).To(Succeed())
			Expect(e.Settle()).To(Succeed())
			got, _ = e.Get("t.O")
			Expect(got).To(Equal(uint64(1)))
		})

		It("should refuse to drive a driven signal", func() {
			e, err := emu.New(m, img)
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Set("t.O", 1)).NotTo(Succeed())
			Expect(e.Set("t.missing", 1)).NotTo(Succeed())
			Expect(e.Inputs()).To(Equal([]string{"t.A", "t.B", "t.C"}))
		})

		It("should reject an unknown clock", func() {
			e, err := emu.New(m, img)
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Clock("other")).NotTo(Succeed())
		})
	})

	Context("Memory", func() {
		It("should read the word at the address", func() {
			m, img := realize(bel.Spec{Kind: bel.KindMemory, Name: "rom", Depth: 4, Width: 2},
				tech.Defaults())

			words := []uint64{0b01, 0b10, 0b11, 0b00}
			var init uint64
			for w, v := range words {
				init |= v << (2 * w)
			}
			Expect(img.Set("t.rom", "INIT", init)).To(Succeed())

			e, err := emu.New(m, img)
			Expect(err).NotTo(HaveOccurred())

			for addr, want := range words {
				Expect(e.Set("t.ADDR0", uint64(addr&1))).To(Succeed())
				Expect(e.Set("t.ADDR1", uint64(addr>>1))).To(Succeed())
				Expect(e.Settle()).To(Succeed())

				d0, _ := e.Get("t.DO0")
				d1, _ := e.Get("t.DO1")
				Expect(d0 | d1<<1).To(Equal(want))
			}
		})
	})

	It("should report logic that does not settle", func() {
		m := netlist.NewModule("osc", "Test")
		a := m.AddSignal("a", 1)
		b := m.AddSignal("b", 1)
		// b = a, a = !b through a mux on b.
		m.AddAssign(b, netlist.Sig(a))
		m.AddMux(netlist.Mux{
			Name:   "inv",
			Output: a,
			Inputs: []netlist.Operand{netlist.Const(1), netlist.Const(0)},
			Select: []netlist.Operand{netlist.Sig(b)},
		})

		e, err := emu.New(m, bitstream.New(cfgreg.AddressMap{}))
		Expect(err).NotTo(HaveOccurred())

		Expect(e.Settle()).To(MatchError(ContainSubstring("did not settle")))
	})
})
