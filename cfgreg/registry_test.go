package cfgreg_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cgrafab/cfgreg"
	"github.com/sarchlab/cgrafab/cgra"
)

var _ = Describe("Registry", func() {
	var (
		reg   *cfgreg.Registry
		scope *cfgreg.Scope
	)

	BeforeEach(func() {
		reg = cfgreg.NewRegistry()

		var err error
		scope, err = reg.Scope("X0Y0.lc0")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should declare words and bits in order", func() {
		init, err := scope.DeclareWord("INIT", 16)
		Expect(err).NotTo(HaveOccurred())
		ff, err := scope.DeclareBit("FF")
		Expect(err).NotTo(HaveOccurred())

		Expect(init).To(Equal(cfgreg.Register{Owner: "X0Y0.lc0", Name: "INIT", Width: 16}))
		Expect(ff.Width).To(Equal(1))
		Expect(scope.Registers()).To(Equal([]cfgreg.Register{init, ff}))
		Expect(scope.Width()).To(Equal(17))
		Expect(reg.Width()).To(Equal(17))
	})

	It("should reject a name declared twice in one scope", func() {
		_, err := scope.DeclareBit("FF")
		Expect(err).NotTo(HaveOccurred())

		_, err = scope.DeclareWord("FF", 4)

		var dup *cgra.DuplicateNameError
		Expect(err).To(BeAssignableToTypeOf(dup))
		Expect(err.(*cgra.DuplicateNameError).Name).To(Equal("FF"))
		Expect(err.(*cgra.DuplicateNameError).Path).To(Equal("X0Y0.lc0"))
		Expect(scope.Registers()).To(HaveLen(1))
	})

	It("should allow the same name in different scopes", func() {
		other, err := reg.Scope("X1Y0.lc0")
		Expect(err).NotTo(HaveOccurred())

		_, err = scope.DeclareBit("FF")
		Expect(err).NotTo(HaveOccurred())
		_, err = other.DeclareBit("FF")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject a zero width register", func() {
		_, err := scope.DeclareWord("EMPTY", 0)
		Expect(err).To(HaveOccurred())
		Expect(scope.Registers()).To(BeEmpty())
	})

	It("should register each owner once", func() {
		_, err := reg.Scope("X0Y0.lc0")

		var dup *cgra.DuplicateNameError
		Expect(err).To(BeAssignableToTypeOf(dup))
	})

	It("should look up scopes and registers", func() {
		_, err := scope.DeclareWord("INIT", 4)
		Expect(err).NotTo(HaveOccurred())

		s, ok := reg.Lookup("X0Y0.lc0")
		Expect(ok).To(BeTrue())
		r, ok := s.Lookup("INIT")
		Expect(ok).To(BeTrue())
		Expect(r.Path()).To(Equal("X0Y0.lc0.INIT"))

		_, ok = s.Lookup("FF")
		Expect(ok).To(BeFalse())
		Expect(reg.Scopes()).To(HaveLen(1))
	})
})
