package cfgreg_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cgrafab/cfgreg"
)

var _ = Describe("AddressMap", func() {
	regs := []cfgreg.Register{
		{Owner: "t.mem", Name: "INIT", Width: 8},
		{Owner: "t.io", Name: "OE", Width: 1},
		{Owner: "t.sm", Name: "sel_X", Width: 3},
	}

	It("should allocate contiguously from zero", func() {
		m := cfgreg.Allocate(regs)

		Expect(m.Entries).To(Equal([]cfgreg.Entry{
			{Offset: 0, Width: 8, Owner: "t.mem", Name: "INIT"},
			{Offset: 8, Width: 1, Owner: "t.io", Name: "OE"},
			{Offset: 9, Width: 3, Owner: "t.sm", Name: "sel_X"},
		}))
		Expect(m.Width()).To(Equal(12))
		Expect(m.Range()).To(Equal(cfgreg.Range{Start: 0, End: 12}))
		Expect(m.Validate()).To(Succeed())
	})

	It("should concatenate with shifted offsets", func() {
		a := cfgreg.Allocate(regs[:1])
		b := cfgreg.Allocate(regs[1:])

		m := a.Concat(b)

		Expect(m).To(Equal(cfgreg.Allocate(regs)))
		Expect(a.Width()).To(Equal(8))
	})

	It("should locate the register and bit of an offset", func() {
		m := cfgreg.Allocate(regs)

		e, bit, ok := m.Locate(10)
		Expect(ok).To(BeTrue())
		Expect(e.Name).To(Equal("sel_X"))
		Expect(bit).To(Equal(1))

		e, bit, ok = m.Locate(0)
		Expect(ok).To(BeTrue())
		Expect(e.Name).To(Equal("INIT"))
		Expect(bit).To(Equal(0))

		_, _, ok = m.Locate(12)
		Expect(ok).To(BeFalse())
		_, _, ok = m.Locate(-1)
		Expect(ok).To(BeFalse())
	})

	It("should find entries by owner and name", func() {
		m := cfgreg.Allocate(regs)

		e, ok := m.Find("t.io", "OE")
		Expect(ok).To(BeTrue())
		Expect(e.Offset).To(Equal(8))

		_, ok = m.Find("t.io", "INREG")
		Expect(ok).To(BeFalse())
	})

	It("should list the entries inside a range", func() {
		m := cfgreg.Allocate(regs)

		Expect(m.Within(cfgreg.Range{Start: 8, End: 12})).To(HaveLen(2))
	})

	It("should detect gaps and overlaps", func() {
		gap := cfgreg.AddressMap{Entries: []cfgreg.Entry{
			{Offset: 0, Width: 2, Owner: "a", Name: "x"},
			{Offset: 3, Width: 1, Owner: "a", Name: "y"},
		}}
		overlap := cfgreg.AddressMap{Entries: []cfgreg.Entry{
			{Offset: 0, Width: 2, Owner: "a", Name: "x"},
			{Offset: 1, Width: 1, Owner: "a", Name: "y"},
		}}
		late := cfgreg.Allocate(regs).Shift(4)

		Expect(gap.Validate()).NotTo(Succeed())
		Expect(overlap.Validate()).NotTo(Succeed())
		Expect(late.Validate()).NotTo(Succeed())
	})

	It("should match the registers of a registry", func() {
		reg := cfgreg.NewRegistry()
		var declared []cfgreg.Register
		for _, r := range regs {
			s, err := reg.Scope(r.Owner)
			Expect(err).NotTo(HaveOccurred())
			d, err := s.DeclareWord(r.Name, r.Width)
			Expect(err).NotTo(HaveOccurred())
			declared = append(declared, d)
		}

		m := cfgreg.Allocate(declared)
		Expect(m.CheckRegistry(reg)).To(Succeed())

		Expect(cfgreg.Allocate(declared[:2]).CheckRegistry(reg)).
			To(MatchError(ContainSubstring("registry declares 3")))

		wrong := cfgreg.Allocate(declared)
		wrong.Entries[2].Width = 4
		Expect(wrong.CheckRegistry(reg)).To(MatchError(ContainSubstring("declared width 3")))

		stray := cfgreg.Allocate(declared)
		stray.Entries[1].Owner = "t.dsp"
		Expect(stray.CheckRegistry(reg)).To(MatchError(ContainSubstring("owner has no scope")))

		renamed := cfgreg.Allocate(declared)
		renamed.Entries[1].Name = "IE"
		Expect(renamed.CheckRegistry(reg)).To(MatchError(ContainSubstring("not declared")))
	})
})
