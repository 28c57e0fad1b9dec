package probmath_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"aerial-triage/pkg/probmath"
)

var _ = Describe("Round2", func() {
	It("rounds to two decimal places", func() {
		Expect(probmath.Round2(0.456)).To(Equal(0.46))
		Expect(probmath.Round2(0.454)).To(Equal(0.45))
	})

	It("rounds half away from zero at the boundary", func() {
		Expect(probmath.Round2(0.145)).To(Equal(0.15))
		Expect(probmath.Round2(0.125)).To(Equal(0.13))
	})

	It("leaves two-digit values untouched", func() {
		Expect(probmath.Round2(0.54)).To(Equal(0.54))
		Expect(probmath.Round2(0.95)).To(Equal(0.95))
	})
})

var _ = Describe("Clamp", func() {
	It("forces values into [0,1]", func() {
		Expect(probmath.Clamp(-0.2)).To(Equal(0.0))
		Expect(probmath.Clamp(1.3)).To(Equal(1.0))
		Expect(probmath.Clamp(0.5)).To(Equal(0.5))
	})

	It("keeps the boundaries exact", func() {
		Expect(probmath.Clamp(0)).To(Equal(0.0))
		Expect(probmath.Clamp(1)).To(Equal(1.0))
	})
})

var _ = Describe("WeightedSum", func() {
	It("combines scores and weights", func() {
		got := probmath.WeightedSum([]float64{0.30, 0.60, 0.50}, []float64{0.4, 0.3, 0.3})
		Expect(got).To(BeNumerically("~", 0.45, 1e-9))
	})

	It("is order invariant", func() {
		a := probmath.WeightedSum([]float64{0.30, 0.60}, []float64{0.4, 0.6})
		b := probmath.WeightedSum([]float64{0.60, 0.30}, []float64{0.6, 0.4})
		Expect(a).To(BeNumerically("~", b, 1e-12))
	})

	It("returns 0 on mismatched lengths", func() {
		Expect(probmath.WeightedSum([]float64{0.5}, []float64{0.4, 0.6})).To(Equal(0.0))
	})
})

var _ = Describe("MinCeiling", func() {
	It("takes the lowest applicable ceiling", func() {
		Expect(probmath.MinCeiling(0.80, []float64{0.70, 0.50})).To(Equal(0.50))
	})

	It("ignores ceilings above the value", func() {
		Expect(probmath.MinCeiling(0.40, []float64{0.70, 0.50})).To(Equal(0.40))
	})

	It("leaves the value untouched with no ceilings", func() {
		Expect(probmath.MinCeiling(0.80, nil)).To(Equal(0.80))
	})
})

var _ = Describe("Posterior", func() {
	It("applies Bayes' rule with rounding", func() {
		// P(E|NH)=0.46, P(E|H)=0.63, prior=0.20
		Expect(probmath.Posterior(0.46, 0.63, 0.20)).To(Equal(0.15))
	})

	It("returns 0 when both likelihoods are zero", func() {
		Expect(probmath.Posterior(0, 0, 0.20)).To(Equal(0.0))
	})

	It("returns the prior-dominated extreme at certainty", func() {
		Expect(probmath.Posterior(1, 0, 0.20)).To(Equal(1.0))
		Expect(probmath.Posterior(0, 1, 0.20)).To(Equal(0.0))
	})
})
