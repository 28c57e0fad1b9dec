package session_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"aerial-triage/db/caselog"
	"aerial-triage/internal/fusion"
	"aerial-triage/internal/policy"
	"aerial-triage/internal/session"
)

// memStore collects appended rows in memory.
type memStore struct {
	rows   []caselog.Row
	closed bool
}

func (m *memStore) Append(_ context.Context, row caselog.Row) error {
	m.rows = append(m.rows, row)
	return nil
}

func (m *memStore) Close() error {
	m.closed = true
	return nil
}

// scriptedSource feeds a fixed list of case requests.
type scriptedSource struct {
	params fusion.Params
	cases  []session.CaseRequest
	pos    int
}

func (s *scriptedSource) TweakParams(fusion.Params) (fusion.Params, error) {
	return s.params, nil
}

func (s *scriptedSource) Next() (*session.CaseRequest, error) {
	if s.pos >= len(s.cases) {
		return nil, nil
	}
	req := s.cases[s.pos]
	s.pos++
	return &req, nil
}

var _ = Describe("Assess", func() {
	params := fusion.DefaultParams()

	It("scores a camera-only case with the default credibility", func() {
		a, err := session.Assess(params, session.CaseRequest{
			Name: "Gimbal",
			Rubric: &session.RubricEntry{
				Environment: session.FactorEntry{Base: 0.60},
				Physical:    session.FactorEntry{Base: 0.50},
				FlightTier:  "Moderate Anomaly",
			},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(a.C).To(Equal(0.30))
		Expect(a.PFinal).To(Equal(0.54))
		Expect(a.FlightDelta).To(Equal(0.04))
		Expect(a.SOP).To(Equal(0.45))
		Expect(a.NHP).To(Equal(0.46))
		Expect(a.Posterior).To(Equal(0.15))
	})

	It("scores the witness factor when one is present", func() {
		a, err := session.Assess(params, session.CaseRequest{
			Name: "Nimitz",
			Rubric: &session.RubricEntry{
				HasWitness: true,
				Witness: session.FactorEntry{
					Base:        0.75,
					ModifierIDs: []string{"Independent written reports"},
				},
				Environment: session.FactorEntry{Base: 0.70},
				Physical:    session.FactorEntry{Base: 0.80},
				FlightTier:  "Major Anomaly",
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.C).To(Equal(0.78))
		Expect(a.PFinal).To(Equal(0.85))
	})

	It("records the tier delta even when the ceiling clamps the score", func() {
		a, err := session.Assess(params, session.CaseRequest{
			Name: "ceiling",
			Rubric: &session.RubricEntry{
				Environment: session.FactorEntry{Base: 0.60},
				Physical:    session.FactorEntry{Base: 0.94},
				FlightTier:  "Major Anomaly",
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.PFinal).To(Equal(0.95))
		Expect(a.FlightDelta).To(Equal(0.05))
	})

	It("fuses a direct SOP/NHP entry", func() {
		a, err := session.Assess(params, session.CaseRequest{
			Name:   "manual",
			Direct: &session.DirectEntry{SOP: 0.45, NHP: 0.46},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Manual).To(BeTrue())
		Expect(a.Posterior).To(Equal(0.15))
	})

	It("rejects a request with neither entry kind", func() {
		_, err := session.Assess(params, session.CaseRequest{Name: "empty"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unknown flight tier", func() {
		_, err := session.Assess(params, session.CaseRequest{
			Name: "bad-tier",
			Rubric: &session.RubricEntry{
				Environment: session.FactorEntry{Base: 0.60},
				Physical:    session.FactorEntry{Base: 0.50},
				FlightTier:  "Warp",
			},
		})
		Expect(err).To(HaveOccurred())
	})

	It("propagates unknown modifier errors", func() {
		_, err := session.Assess(params, session.CaseRequest{
			Name: "bad-mod",
			Rubric: &session.RubricEntry{
				Environment: session.FactorEntry{Base: 0.60, ModifierIDs: []string{"Nope"}},
				Physical:    session.FactorEntry{Base: 0.50},
				FlightTier:  "Minor Anomaly",
			},
		})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Runner", func() {
	newRubricCase := func(name string) session.CaseRequest {
		return session.CaseRequest{
			Name: name,
			Rubric: &session.RubricEntry{
				Environment: session.FactorEntry{Base: 0.60},
				Physical:    session.FactorEntry{Base: 0.50},
				FlightTier:  "Moderate Anomaly",
			},
		}
	}

	It("scores and logs every case from the source", func() {
		store := &memStore{}
		source := &scriptedSource{
			params: fusion.DefaultParams(),
			cases:  []session.CaseRequest{newRubricCase("one"), newRubricCase("two")},
		}

		runner := &session.Runner{Store: store, Log: zerolog.Nop()}
		Expect(runner.Run(context.Background(), source)).To(Succeed())

		Expect(store.rows).To(HaveLen(2))
		Expect(store.rows[0].Case).To(Equal("one"))
		Expect(store.rows[1].Case).To(Equal("two"))
		Expect(store.rows[0].PosteriorNH).To(Equal(0.15))
	})

	It("renormalizes tweaked weights before scoring", func() {
		store := &memStore{}
		source := &scriptedSource{
			params: fusion.Params{PriorNH: 0.2, CalibrationK: 0.2, WeightC: 0.5, WeightE: 0.5, WeightP: 0.5},
			cases:  []session.CaseRequest{newRubricCase("equal-weights")},
		}

		var got fusion.Assessment
		runner := &session.Runner{
			Store:    store,
			Log:      zerolog.Nop(),
			OnResult: func(a fusion.Assessment, _ *policy.Evaluation) { got = a },
		}
		Expect(runner.Run(context.Background(), source)).To(Succeed())

		// (0.30 + 0.60 + 0.50) / 3
		Expect(got.SOP).To(Equal(0.47))
	})

	It("passes triage findings to the result callback", func() {
		store := &memStore{}
		source := &scriptedSource{
			params: fusion.DefaultParams(),
			cases: []session.CaseRequest{{
				Name:   "manual",
				Direct: &session.DirectEntry{SOP: 0.9, NHP: 0.95},
			}},
		}

		var eval *policy.Evaluation
		runner := &session.Runner{
			Store:    store,
			Policies: policy.NewEngine(),
			Log:      zerolog.Nop(),
			OnResult: func(_ fusion.Assessment, e *policy.Evaluation) { eval = e },
		}
		Expect(runner.Run(context.Background(), source)).To(Succeed())

		Expect(eval).NotTo(BeNil())
		Expect(eval.Decision).To(Equal(policy.DecisionEscalate))
	})

	It("stops on an empty source without touching the store", func() {
		store := &memStore{}
		runner := &session.Runner{Store: store, Log: zerolog.Nop()}
		Expect(runner.Run(context.Background(), &scriptedSource{params: fusion.DefaultParams()})).To(Succeed())
		Expect(store.rows).To(BeEmpty())
	})
})
