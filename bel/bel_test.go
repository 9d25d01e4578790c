package bel_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cgrafab/bel"
	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/tech"
)

func bindAll(b bel.Bel) map[string]cgra.Signal {
	bindings := make(map[string]cgra.Signal)
	for _, p := range b.Ports() {
		bindings[p.Name] = cgra.NewSignal("t", b.Prefix()+p.Name, p.BitWidth())
	}
	return bindings
}

var _ = Describe("Bel", func() {
	var (
		reg *cfgreg.Registry
		t   tech.Spec
	)

	newBel := func(spec bel.Spec) (bel.Bel, error) {
		scope, err := reg.Scope("t." + spec.Name)
		Expect(err).NotTo(HaveOccurred())
		return bel.New(spec, t, scope)
	}

	BeforeEach(func() {
		reg = cfgreg.NewRegistry()
		t = tech.Defaults()
	})

	Context("LogicCell", func() {
		It("should expose k inputs and one output", func() {
			lc, err := newBel(bel.Spec{Kind: bel.KindLogicCell, Name: "lc0"})
			Expect(err).NotTo(HaveOccurred())

			Expect(lc.Ports()).To(Equal([]cgra.PortSpec{
				{Name: "A", Dir: cgra.In, Width: 1},
				{Name: "B", Dir: cgra.In, Width: 1},
				{Name: "C", Dir: cgra.In, Width: 1},
				{Name: "D", Dir: cgra.In, Width: 1},
				{Name: "O", Dir: cgra.Out, Width: 1},
			}))
			Expect(lc.Ports()).To(Equal(lc.Ports()))
			Expect(lc.Prefix()).To(Equal("lc0_"))
		})

		It("should declare INIT then FF", func() {
			lc, err := newBel(bel.Spec{Kind: bel.KindLogicCell, Name: "lc0"})
			Expect(err).NotTo(HaveOccurred())

			Expect(lc.Registers()).To(Equal([]cfgreg.Register{
				{Owner: "t.lc0", Name: "INIT", Width: 16},
				{Owner: "t.lc0", Name: "FF", Width: 1},
			}))
		})

		It("should realize a select tree, a flip-flop and a bypass mux", func() {
			t.LUTInputs = 2
			lc, err := newBel(bel.Spec{Kind: bel.KindLogicCell, Name: "lc0"})
			Expect(err).NotTo(HaveOccurred())

			m, err := lc.Realize(bindAll(lc))
			Expect(err).NotTo(HaveOccurred())

			Expect(m.Path).To(Equal("t.lc0"))
			Expect(m.Muxes).To(HaveLen(3 + 1))
			Expect(m.FFs).To(HaveLen(1))
			Expect(m.FFs[0].Clock).To(Equal("clk"))
			Expect(m.Muxes[len(m.Muxes)-1].Name).To(Equal("ff_sel"))
		})

		It("should report a missing binding", func() {
			lc, err := newBel(bel.Spec{Kind: bel.KindLogicCell, Name: "lc0"})
			Expect(err).NotTo(HaveOccurred())

			bindings := bindAll(lc)
			delete(bindings, "C")

			_, err = lc.Realize(bindings)

			var binding *cgra.PortBindingError
			Expect(err).To(BeAssignableToTypeOf(binding))
			Expect(err.(*cgra.PortBindingError).Port).To(Equal("C"))
		})

		It("should report a width mismatch", func() {
			lc, err := newBel(bel.Spec{Kind: bel.KindLogicCell, Name: "lc0"})
			Expect(err).NotTo(HaveOccurred())

			bindings := bindAll(lc)
			bindings["A"] = cgra.NewSignal("t", "wide", 8)

			_, err = lc.Realize(bindings)

			var mismatch *cgra.WidthMismatchError
			Expect(err).To(BeAssignableToTypeOf(mismatch))
			Expect(err.(*cgra.WidthMismatchError).Want).To(Equal(1))
			Expect(err.(*cgra.WidthMismatchError).Got).To(Equal(8))
		})
	})

	Context("IOBuf", func() {
		It("should declare OE then INREG", func() {
			io, err := newBel(bel.Spec{Kind: bel.KindIOBuf, Name: "io0", Prefix: "IO_"})
			Expect(err).NotTo(HaveOccurred())

			Expect(io.Prefix()).To(Equal("IO_"))
			Expect(io.Registers()).To(Equal([]cfgreg.Register{
				{Owner: "t.io0", Name: "OE", Width: 1},
				{Owner: "t.io0", Name: "INREG", Width: 1},
			}))

			m, err := io.Realize(bindAll(io))
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Assigns).To(HaveLen(2))
			Expect(m.FFs).To(HaveLen(1))
		})
	})

	Context("Memory", func() {
		It("should size INIT by depth and width", func() {
			mem, err := newBel(bel.Spec{Kind: bel.KindMemory, Name: "rom", Depth: 8, Width: 2})
			Expect(err).NotTo(HaveOccurred())

			Expect(mem.Registers()).To(Equal([]cfgreg.Register{
				{Owner: "t.rom", Name: "INIT", Width: 16},
			}))
			Expect(mem.Ports()).To(HaveLen(3 + 2))
		})

		It("should reject a depth that is not a power of two", func() {
			_, err := newBel(bel.Spec{Kind: bel.KindMemory, Name: "rom", Depth: 6, Width: 1})
			Expect(err).To(HaveOccurred())
		})
	})

	It("should reject an unknown kind", func() {
		_, err := newBel(bel.Spec{Kind: "dsp", Name: "d0"})
		Expect(err).To(HaveOccurred())
	})
})
