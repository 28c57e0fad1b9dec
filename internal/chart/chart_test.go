package chart_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"aerial-triage/internal/chart"
	"aerial-triage/internal/fusion"
)

var _ = Describe("Renderer", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("writes one SVG per case", func() {
		r := chart.NewRenderer(dir)
		path, err := r.Render(fusion.Assessment{Case: "Gimbal", PriorNH: 0.20, Posterior: 0.15})
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "chart_Gimbal.svg")))

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("<svg"))
		Expect(string(data)).To(ContainSubstring("Prior vs Posterior: Gimbal"))
		Expect(string(data)).To(ContainSubstring("0.20"))
		Expect(string(data)).To(ContainSubstring("0.15"))
	})

	It("sanitizes case names containing spaces and separators", func() {
		r := chart.NewRenderer(dir)
		path, err := r.Render(fusion.Assessment{Case: "Nimitz / Tic Tac", PriorNH: 0.20, Posterior: 0.47})
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Base(path)).To(Equal("chart_Nimitz___Tic_Tac.svg"))
	})

	It("clamps out-of-range values before drawing", func() {
		r := chart.NewRenderer(dir)
		path, err := r.Render(fusion.Assessment{Case: "odd", PriorNH: -0.5, Posterior: 1.5})
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("0.00"))
		Expect(string(data)).To(ContainSubstring("1.00"))
	})
})
