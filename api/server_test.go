package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"aerial-triage/api"
	"aerial-triage/db/caselog"
	"aerial-triage/internal/fusion"
	"aerial-triage/internal/policy"
)

type memStore struct {
	rows []caselog.Row
}

func (m *memStore) Append(_ context.Context, row caselog.Row) error {
	m.rows = append(m.rows, row)
	return nil
}

func (m *memStore) Close() error { return nil }

var _ = Describe("Server", func() {
	var (
		store   *memStore
		handler http.Handler
	)

	BeforeEach(func() {
		store = &memStore{}
		server := api.NewServer(fusion.DefaultParams(), store, policy.NewEngine(), nil, zerolog.Nop())
		handler = server.Handler()
	})

	post := func(path string, body any) *httptest.ResponseRecorder {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	Describe("POST /api/v1/assess", func() {
		It("scores a camera-only case", func() {
			rec := post("/api/v1/assess", api.AssessRequest{
				Case:        "Gimbal",
				Environment: api.FactorRequest{Base: 0.60},
				Physical:    api.FactorRequest{Base: 0.50},
				FlightTier:  "Moderate Anomaly",
			})
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp api.AssessResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.C).To(Equal(0.30))
			Expect(resp.PFinal).To(Equal(0.54))
			Expect(resp.SOP).To(Equal(0.45))
			Expect(resp.NHP).To(Equal(0.46))
			Expect(resp.Posterior).To(Equal(0.15))
			Expect(resp.PolicyDecision).To(Equal("pass"))

			Expect(store.rows).To(HaveLen(1))
			Expect(store.rows[0].Case).To(Equal("Gimbal"))
		})

		It("scores a witnessed case with modifiers and caps", func() {
			rec := post("/api/v1/assess", api.AssessRequest{
				Case: "Nimitz",
				Witness: &api.FactorRequest{
					Base:      0.80,
					Modifiers: []string{"Independent written reports"},
					Caps:      []string{"No trained observer"},
				},
				Environment: api.FactorRequest{Base: 0.70},
				Physical:    api.FactorRequest{Base: 0.80},
				FlightTier:  "Major Anomaly",
			})
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp api.AssessResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.C).To(Equal(0.70))
			Expect(resp.FlightDelta).To(Equal(0.05))
		})

		It("rejects a missing case name", func() {
			rec := post("/api/v1/assess", api.AssessRequest{
				Environment: api.FactorRequest{Base: 0.60},
				Physical:    api.FactorRequest{Base: 0.50},
				FlightTier:  "Minor Anomaly",
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unknown modifier as a client error", func() {
			rec := post("/api/v1/assess", api.AssessRequest{
				Case:        "bad",
				Environment: api.FactorRequest{Base: 0.60, Modifiers: []string{"Nope"}},
				Physical:    api.FactorRequest{Base: 0.50},
				FlightTier:  "Minor Anomaly",
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/assess", bytes.NewReader([]byte("{")))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /api/v1/fuse", func() {
		It("fuses a direct SOP/NHP pair", func() {
			rec := post("/api/v1/fuse", api.FuseRequest{Case: "manual", SOP: 0.45, NHP: 0.46})
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp api.AssessResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Manual).To(BeTrue())
			Expect(resp.Posterior).To(Equal(0.15))
		})

		It("rejects out-of-range probabilities", func() {
			rec := post("/api/v1/fuse", api.FuseRequest{Case: "bad", SOP: 1.2, NHP: 0.4})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/v1/rubric", func() {
		It("exposes the factor tables and flight tiers", func() {
			rec := get("/api/v1/rubric")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp api.RubricResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Factors).To(HaveLen(3))
			Expect(resp.FlightTiers).To(HaveLen(4))
		})
	})

	Describe("GET /api/v1/params", func() {
		It("returns the session parameters", func() {
			rec := get("/api/v1/params")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var p fusion.Params
			Expect(json.Unmarshal(rec.Body.Bytes(), &p)).To(Succeed())
			Expect(p.PriorNH).To(Equal(0.20))
		})
	})

	Describe("health probes", func() {
		It("reports healthy", func() {
			Expect(get("/health").Code).To(Equal(http.StatusOK))
		})

		It("reports ready for stores without a live connection", func() {
			Expect(get("/ready").Code).To(Equal(http.StatusOK))
		})
	})
})
