package tile_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cgrafab/bel"
	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/switchmatrix"
	"github.com/sarchlab/cgrafab/tech"
	"github.com/sarchlab/cgrafab/tile"
)

// romTile has an 8-bit bel, a 1-bit bel and a 3-bit switch matrix.
func romTile() tile.Spec {
	return tile.Spec{
		Name: "rom",
		Ports: []cgra.PortSpec{
			cgra.NewPort("I0", cgra.In),
			cgra.NewPort("I1", cgra.In),
			cgra.NewPort("I2", cgra.In),
			cgra.NewPort("I3", cgra.In),
			cgra.NewPort("X", cgra.Out),
			cgra.NewPort("Y", cgra.Out),
		},
		Bels: []bel.Spec{
			{Kind: bel.KindMemory, Name: "rom8", Depth: 8, Width: 1},
			{Kind: bel.KindMemory, Name: "rom1", Depth: 1, Width: 1},
		},
		Matrix: switchmatrix.Connectivity{
			{Output: "X", Candidates: []string{"I0", "I1", "I2", "I3"}},
			{Output: "Y", Candidates: []string{"rom8_DO0", "rom1_DO0"}},
		},
		Binds: []tile.Binding{
			{TilePort: "I0", Target: tile.Target{Bel: "rom8", Port: "ADDR0"}},
			{TilePort: "I1", Target: tile.Target{Bel: "rom8", Port: "ADDR1"}},
			{TilePort: "I2", Target: tile.Target{Bel: "rom8", Port: "ADDR2"}},
		},
	}
}

// lcTile routes the base ports through a logic cell.
func lcTile(tracks int) tile.Spec {
	ins := tile.RoutingInputs(tracks)
	conn := switchmatrix.Connectivity{
		{Output: "lc0_A", Candidates: ins},
		{Output: "lc0_B", Candidates: ins},
		{Output: "lc0_C", Candidates: ins},
		{Output: "lc0_D", Candidates: ins},
	}
	conn = append(conn, switchmatrix.FullCrossbar(
		append(append([]string(nil), ins...), "lc0_O"),
		tile.RoutingOutputs(tracks),
	)...)

	return tile.Spec{
		Name:   "clb",
		Ports:  tile.BasePorts(tracks),
		Bels:   []bel.Spec{{Kind: bel.KindLogicCell, Name: "lc0"}},
		Matrix: conn,
	}
}

var _ = Describe("Tile", func() {
	var (
		reg *cfgreg.Registry
		t   tech.Spec
	)

	BeforeEach(func() {
		reg = cfgreg.NewRegistry()
		t = tech.Defaults()
	})

	It("should order the address range bels first, then the switch matrix", func() {
		tl, err := tile.New("T", romTile(), t, reg)
		Expect(err).NotTo(HaveOccurred())

		m := tl.AddressRange()
		Expect(m.Width()).To(Equal(12))
		Expect(tl.Width()).To(Equal(12))
		Expect(m.Validate()).To(Succeed())

		Expect(m.Entries).To(Equal([]cfgreg.Entry{
			{Offset: 0, Width: 8, Owner: "T.rom8", Name: "INIT"},
			{Offset: 8, Width: 1, Owner: "T.rom1", Name: "INIT"},
			{Offset: 9, Width: 2, Owner: "T.sm", Name: "sel_X"},
			{Offset: 11, Width: 1, Owner: "T.sm", Name: "sel_Y"},
		}))
	})

	It("should elaborate bels in order and the switch matrix last", func() {
		tl, err := tile.New("T", romTile(), t, reg)
		Expect(err).NotTo(HaveOccurred())

		m, err := tl.Elaborate()
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Path).To(Equal("T"))
		Expect(m.Children).To(HaveLen(3))
		Expect(m.Children[0].Path).To(Equal("T.rom8"))
		Expect(m.Children[1].Path).To(Equal("T.rom1"))
		Expect(m.Children[2].Path).To(Equal("T.sm"))
	})

	It("should name the undriven bel input", func() {
		spec := romTile()
		spec.Binds = spec.Binds[:2]

		tl, err := tile.New("T", spec, t, reg)
		Expect(err).NotTo(HaveOccurred())

		_, err = tl.Elaborate()

		var unbound *cgra.UnboundPortError
		Expect(err).To(BeAssignableToTypeOf(unbound))
		Expect(err.(*cgra.UnboundPortError).Path).To(Equal("T.rom8"))
		Expect(err.(*cgra.UnboundPortError).Port).To(Equal("ADDR2"))
	})

	It("should name the undriven tile output", func() {
		spec := romTile()
		spec.Ports = append(spec.Ports, cgra.NewPort("Z", cgra.Out))

		tl, err := tile.New("T", spec, t, reg)
		Expect(err).NotTo(HaveOccurred())

		_, err = tl.Elaborate()

		var unbound *cgra.UnboundPortError
		Expect(err).To(BeAssignableToTypeOf(unbound))
		Expect(err.(*cgra.UnboundPortError).Port).To(Equal("Z"))
	})

	It("should drive a tile output from a bound bel output", func() {
		spec := romTile()
		spec.Ports = append(spec.Ports, cgra.NewPort("Z", cgra.Out))
		spec.Binds = append(spec.Binds,
			tile.Binding{TilePort: "Z", Target: tile.Target{Bel: "rom1", Port: "DO0"}})

		tl, err := tile.New("T", spec, t, reg)
		Expect(err).NotTo(HaveOccurred())

		m, err := tl.Elaborate()
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Assigns).To(HaveLen(1))
		Expect(m.Assigns[0].Dst.Path()).To(Equal("T.Z"))
	})

	Context("Bind", func() {
		var tl *tile.Tile

		BeforeEach(func() {
			spec := romTile()
			spec.Binds = nil
			spec.Ports = append(spec.Ports,
				cgra.NewPort("Z", cgra.Out),
				cgra.PortSpec{Name: "W", Dir: cgra.In, Width: 4},
			)

			var err error
			tl, err = tile.New("T", spec, t, reg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject an unknown tile port", func() {
			err := tl.Bind("Q", tile.Target{Bel: "rom8", Port: "ADDR0"})

			var binding *cgra.PortBindingError
			Expect(err).To(BeAssignableToTypeOf(binding))
		})

		It("should reject an unknown bel or bel port", func() {
			var binding *cgra.PortBindingError

			Expect(tl.Bind("I0", tile.Target{Bel: "ram", Port: "ADDR0"})).
				To(BeAssignableToTypeOf(binding))
			Expect(tl.Bind("I0", tile.Target{Bel: "rom8", Port: "ADDR7"})).
				To(BeAssignableToTypeOf(binding))
		})

		It("should reject a direction mismatch", func() {
			var binding *cgra.PortBindingError

			Expect(tl.Bind("I0", tile.Target{Bel: "rom8", Port: "DO0"})).
				To(BeAssignableToTypeOf(binding))
			Expect(tl.Bind("Z", tile.Target{Bel: "rom8", Port: "ADDR0"})).
				To(BeAssignableToTypeOf(binding))
			Expect(tl.Bind("I0", tile.Target{Port: "X"})).
				To(BeAssignableToTypeOf(binding))
		})

		It("should reject a width mismatch", func() {
			var mismatch *cgra.WidthMismatchError

			Expect(tl.Bind("W", tile.Target{Bel: "rom8", Port: "ADDR0"})).
				To(BeAssignableToTypeOf(mismatch))
		})

		It("should reject binding a port twice", func() {
			Expect(tl.Bind("Z", tile.Target{Bel: "rom1", Port: "DO0"})).To(Succeed())

			var dup *cgra.DuplicateNameError
			Expect(tl.Bind("Z", tile.Target{Bel: "rom8", Port: "DO0"})).
				To(BeAssignableToTypeOf(dup))
		})

		It("should accept binding an output to its same-named switch-matrix output", func() {
			Expect(tl.Bind("X", tile.Target{Port: "X"})).To(Succeed())
		})

		It("should reject binding an output that is already driven by name", func() {
			var binding *cgra.PortBindingError

			Expect(tl.Bind("X", tile.Target{Bel: "rom1", Port: "DO0"})).
				To(BeAssignableToTypeOf(binding))
		})
	})

	It("should reject a switch-matrix output that collides with a tile input", func() {
		spec := romTile()
		spec.Matrix = append(spec.Matrix, switchmatrix.Route{
			Output: "I0", Candidates: []string{"I1"},
		})

		_, err := tile.New("T", spec, t, reg)

		var dup *cgra.DuplicateNameError
		Expect(err).To(BeAssignableToTypeOf(dup))
	})

	It("should reject two bels with one name", func() {
		spec := romTile()
		spec.Bels = append(spec.Bels, spec.Bels[0])

		_, err := tile.New("T", spec, t, reg)

		var dup *cgra.DuplicateNameError
		Expect(err).To(BeAssignableToTypeOf(dup))
	})

	It("should build a logic tile over the base ports", func() {
		tl, err := tile.New("X0Y0", lcTile(2), t, reg)
		Expect(err).NotTo(HaveOccurred())

		Expect(tl.Ports()).To(HaveLen(16))
		_, err = tl.Elaborate()
		Expect(err).NotTo(HaveOccurred())

		// 16 + 1 LUT/FF bits, 4 LUT input selects of 3 bits, 8 output
		// selects over 9 candidates of 4 bits.
		Expect(tl.Width()).To(Equal(17 + 4*3 + 8*4))
	})
})

var _ = Describe("BasePorts", func() {
	It("should list inputs then outputs per side", func() {
		ports := tile.BasePorts(1)

		Expect(ports).To(HaveLen(8))
		Expect(ports[0]).To(Equal(cgra.NewPort("N_I0", cgra.In)))
		Expect(ports[1]).To(Equal(cgra.NewPort("N_O0", cgra.Out)))
		Expect(ports[7]).To(Equal(cgra.NewPort("W_O0", cgra.Out)))
	})
})
