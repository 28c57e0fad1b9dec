package caselog_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"aerial-triage/db/caselog"
	"aerial-triage/internal/fusion"
)

var _ = Describe("CSVStore", func() {
	var path string

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "session_log.csv")
	})

	readAll := func() [][]string {
		f, err := os.Open(path)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		records, err := csv.NewReader(f).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		return records
	}

	sampleRow := func() caselog.Row {
		return caselog.Row{
			Case: "Gimbal", C: 0.30, E: 0.60, P: 0.50,
			FlightMod: 0.04, PFinal: 0.54, SOP: 0.45, NHP: 0.46, PosteriorNH: 0.15,
		}
	}

	It("writes the header exactly once for a new file", func() {
		store, err := caselog.NewCSVStore(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Close()).To(Succeed())

		records := readAll()
		Expect(records).To(HaveLen(1))
		Expect(records[0]).To(Equal(caselog.Header))
	})

	It("appends rows with two-decimal formatting", func() {
		store, err := caselog.NewCSVStore(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Append(context.Background(), sampleRow())).To(Succeed())
		Expect(store.Close()).To(Succeed())

		records := readAll()
		Expect(records).To(HaveLen(2))
		Expect(records[1]).To(Equal([]string{
			"Gimbal", "0.30", "0.60", "0.50", "0.04", "0.54", "0.45", "0.46", "0.15",
		}))
	})

	It("does not repeat the header when reopening an existing log", func() {
		store, err := caselog.NewCSVStore(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Append(context.Background(), sampleRow())).To(Succeed())
		Expect(store.Close()).To(Succeed())

		store, err = caselog.NewCSVStore(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Append(context.Background(), sampleRow())).To(Succeed())
		Expect(store.Close()).To(Succeed())

		records := readAll()
		Expect(records).To(HaveLen(3))
		Expect(records[0]).To(Equal(caselog.Header))
		Expect(records[1][0]).To(Equal("Gimbal"))
		Expect(records[2][0]).To(Equal("Gimbal"))
	})

	It("creates parent-relative paths as given", func() {
		store, err := caselog.NewCSVStore(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Path()).To(Equal(path))
		Expect(store.Close()).To(Succeed())
	})
})

var _ = Describe("RowFromAssessment", func() {
	It("maps the raw physical score and the tier delta", func() {
		a := fusion.Assessment{
			Case: "Tic-Tac", C: 0.78, E: 0.70, PRaw: 0.80,
			FlightDelta: 0.05, PFinal: 0.85, SOP: 0.76, NHP: 0.78, Posterior: 0.47,
		}
		row := caselog.RowFromAssessment(a)
		Expect(row.Case).To(Equal("Tic-Tac"))
		Expect(row.P).To(Equal(0.80))
		Expect(row.FlightMod).To(Equal(0.05))
		Expect(row.PFinal).To(Equal(0.85))
		Expect(row.PosteriorNH).To(Equal(0.47))
	})
})
