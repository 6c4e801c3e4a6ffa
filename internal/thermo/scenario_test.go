package thermo_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/twotemp/internal/physics"
	"github.com/san-kum/twotemp/internal/thermo"
)

var _ = Describe("air heat bath", func() {
	var (
		mix *thermo.Mixture
		Y   []float64
	)

	BeforeEach(func() {
		lib, err := physics.NewAirRRHO("air5")
		Expect(err).NotTo(HaveOccurred())
		mix, err = thermo.NewMixture(lib)
		Expect(err).NotTo(HaveOccurred())
		Y = []float64{0.79, 0.21, 0, 0, 0}
	})

	Describe("vibrational energy", func() {
		It("reproduces the hand-computed value at 2000 K", func() {
			Expect(mix.EvFromTv(2000, 1, Y)).To(BeNumerically("~", 238752.22692616333, 1e-6))
		})

		It("round-trips through the inversion", func() {
			for _, tv := range []float64{400, 1500, 6000, 15000} {
				ev := mix.EvFromTv(tv, 0.05, Y)
				Expect(mix.InvertTv(ev, 0.05, Y, 3000)).To(BeNumerically("~", tv, 1e-6*tv))
			}
		})

		It("is idempotent at a converged temperature", func() {
			ev := mix.EvFromTv(3300, 0.05, Y)
			first := mix.InvertTv(ev, 0.05, Y, 3000)
			Expect(mix.InvertTv(ev, 0.05, Y, first)).To(Equal(first))
		})

		It("maps non-positive targets to 300 K", func() {
			Expect(mix.InvertTv(0, 1, Y, 5000)).To(Equal(300.0))
			Expect(mix.InvertTv(-1, 1, Y, 5000)).To(Equal(300.0))
		})
	})

	Describe("translational energy", func() {
		It("is the ideal-gas reservoir energy", func() {
			rho := 0.2
			rs := 0.79*thermo.Ru/28.0134e-3 + 0.21*thermo.Ru/31.9988e-3
			Expect(mix.EtFromState(6000, 2000, rho, Y)).To(BeNumerically("~", rho*2.5*rs*6000, 1e-3))
		})

		It("inverts back to 6000 K", func() {
			rho := 0.2
			et := mix.EtFromState(6000, 2000, rho, Y)
			Expect(mix.InvertTtr(et, rho, Y, 2000, 3000)).To(BeNumerically("~", 6000, 1e-4))
			Expect(mix.Diagnostics().TtrUnconverged).To(BeZero())
		})

		It("maps non-positive targets to 300 K", func() {
			Expect(mix.InvertTtr(0, 1, Y, 2000, 9000)).To(Equal(300.0))
			Expect(mix.InvertTtr(math.NaN(), 1, Y, 2000, 9000)).To(Equal(300.0))
		})
	})

	Describe("relaxation", func() {
		var (
			rho, et, ev, ttr, tv float64
		)

		BeforeEach(func() {
			ttr, tv = 12000, 2000
			rho = 101325 / (mix.Rmix(Y) * ttr)
			ev = mix.EvFromTv(tv, rho, Y)
			et = mix.EtFromState(ttr, tv, rho, Y)
		})

		It("moves energy from the hot translational reservoir", func() {
			et0, ev0 := et, ev
			Expect(mix.Step(1e-8, rho, Y, &et, &ev, &ttr, &tv)).To(Succeed())

			Expect(ev).To(BeNumerically(">", ev0))
			Expect(et).To(BeNumerically("<", et0))
			Expect((et + ev) - (et0 + ev0)).To(BeNumerically("~", 0, 1e-9))
		})

		It("equilibrates the two temperatures when resynchronized", func() {
			total := et + ev
			prevTtr := ttr
			for i := 0; i < 400; i++ {
				Expect(mix.Step(1e-8, rho, Y, &et, &ev, &ttr, &tv)).To(Succeed())
				mix.Resync(rho, Y, et, ev, &ttr, &tv)
				Expect(ttr).To(BeNumerically("<=", prevTtr+1e-6))
				prevTtr = ttr
			}

			Expect(math.Abs(ttr - tv)).To(BeNumerically("<", 1))
			Expect(ttr).To(BeNumerically("~", 9232.7, 1))
			Expect(et + ev).To(BeNumerically("~", total, 1e-9*total))
			Expect(mix.Diagnostics().Steps).To(Equal(400))
		})

		It("leaves temperatures stale without a resync", func() {
			for i := 0; i < 10; i++ {
				Expect(mix.Step(1e-8, rho, Y, &et, &ev, &ttr, &tv)).To(Succeed())
			}
			Expect(ttr).To(Equal(12000.0))
			Expect(tv).To(Equal(2000.0))
		})
	})
})
