// Package api provides the HTTP surface for case assessment: scoring,
// direct fusion, rubric introspection and health probes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"aerial-triage/db/caselog"
	"aerial-triage/internal/fusion"
	"aerial-triage/internal/policy"
	"aerial-triage/internal/rubric"
	"aerial-triage/internal/session"
	trierr "aerial-triage/pkg/errors"
	"aerial-triage/pkg/platform"
)

// Config holds server configuration.
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           platform.GetEnvInt("TRIAGE_PORT", 8080),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 1 * 1024 * 1024, // 1MB, assessments are small
	}
}

// Server is the HTTP assessment server. Store and PolicyEngine are
// optional: a nil store means assessments are computed but not logged.
type Server struct {
	httpServer   *http.Server
	store        caselog.Store
	policyEngine *policy.Engine
	params       fusion.Params
	config       *Config
	log          zerolog.Logger
}

// NewServer creates an assessment server with the given session
// parameters. Weights are renormalized once at construction.
func NewServer(params fusion.Params, store caselog.Store, policyEngine *policy.Engine, config *Config, log zerolog.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{
		store:        store,
		policyEngine: policyEngine,
		params:       params.Normalized(),
		config:       config,
		log:          log,
	}
}

// Handler builds the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(platform.APIKeyMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/assess", s.handleAssess)
		r.Post("/fuse", s.handleFuse)
		r.Get("/rubric", s.handleRubric)
		r.Get("/params", s.handleParams)
	})

	return r
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info().Int("port", s.config.Port).Msg("assessment server starting")
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts the server and drains it on SIGINT/SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.log.Info().Msg("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// FactorRequest is one rubric factor submission.
type FactorRequest struct {
	Base      float64  `json:"base"`
	Modifiers []string `json:"modifiers,omitempty"`
	Caps      []string `json:"caps,omitempty"`
}

// AssessRequest is the API request for a full rubric assessment.
type AssessRequest struct {
	Case        string         `json:"case"`
	Witness     *FactorRequest `json:"witness,omitempty"`
	Environment FactorRequest  `json:"environment"`
	Physical    FactorRequest  `json:"physical"`
	FlightTier  string         `json:"flight_tier"`
}

// FuseRequest is the API request for direct SOP/NHP fusion.
type FuseRequest struct {
	Case string  `json:"case"`
	SOP  float64 `json:"sop"`
	NHP  float64 `json:"nhp"`
}

// AssessResponse carries the full assessment plus any policy findings.
type AssessResponse struct {
	Case        string  `json:"case"`
	C           float64 `json:"c"`
	E           float64 `json:"e"`
	PRaw        float64 `json:"p_raw"`
	FlightDelta float64 `json:"flight_delta"`
	PFinal      float64 `json:"p_final"`
	SOP         float64 `json:"sop"`
	NHP         float64 `json:"nhp"`
	PEGivenNH   float64 `json:"p_e_given_nh"`
	PEGivenH    float64 `json:"p_e_given_h"`
	Posterior   float64 `json:"posterior_nh"`
	PriorNH     float64 `json:"prior_nh"`
	Manual      bool    `json:"manual"`
	ScoredAt    string  `json:"scored_at"`

	PolicyDecision string           `json:"policy_decision,omitempty"`
	Findings       []policy.Finding `json:"findings,omitempty"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Case == "" {
		s.jsonError(w, http.StatusBadRequest, "case name is required")
		return
	}
	if req.FlightTier == "" {
		s.jsonError(w, http.StatusBadRequest, "flight_tier is required")
		return
	}

	entry := &session.RubricEntry{
		Environment: session.FactorEntry{Base: req.Environment.Base, ModifierIDs: req.Environment.Modifiers, CapIDs: req.Environment.Caps},
		Physical:    session.FactorEntry{Base: req.Physical.Base, ModifierIDs: req.Physical.Modifiers, CapIDs: req.Physical.Caps},
		FlightTier:  req.FlightTier,
	}
	if req.Witness != nil {
		entry.HasWitness = true
		entry.Witness = session.FactorEntry{Base: req.Witness.Base, ModifierIDs: req.Witness.Modifiers, CapIDs: req.Witness.Caps}
	}

	assessment, err := session.Assess(s.params, session.CaseRequest{Name: req.Case, Rubric: entry})
	if err != nil {
		status := http.StatusInternalServerError
		var te *trierr.TriageError
		if errors.As(err, &te) && te.Code != trierr.ErrCodeStoreFailed {
			status = http.StatusBadRequest
		}
		s.jsonError(w, status, err.Error())
		return
	}

	s.respondAssessment(w, r, assessment)
}

func (s *Server) handleFuse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req FuseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Case == "" {
		s.jsonError(w, http.StatusBadRequest, "case name is required")
		return
	}
	if req.SOP < 0 || req.SOP > 1 || req.NHP < 0 || req.NHP > 1 {
		s.jsonError(w, http.StatusBadRequest, "sop and nhp must be in [0,1]")
		return
	}

	assessment := fusion.FuseDirect(s.params, req.Case, req.SOP, req.NHP)
	s.respondAssessment(w, r, assessment)
}

func (s *Server) respondAssessment(w http.ResponseWriter, r *http.Request, a fusion.Assessment) {
	resp := AssessResponse{
		Case:        a.Case,
		C:           a.C,
		E:           a.E,
		PRaw:        a.PRaw,
		FlightDelta: a.FlightDelta,
		PFinal:      a.PFinal,
		SOP:         a.SOP,
		NHP:         a.NHP,
		PEGivenNH:   a.PEGivenNH,
		PEGivenH:    a.PEGivenH,
		Posterior:   a.Posterior,
		PriorNH:     a.PriorNH,
		Manual:      a.Manual,
		ScoredAt:    a.ScoredAt.Format(time.RFC3339),
	}

	if s.policyEngine != nil {
		eval, err := s.policyEngine.Evaluate(r.Context(), a)
		if err != nil {
			// Policy evaluation is advisory; log and continue.
			s.log.Warn().Err(err).Str("case", a.Case).Msg("policy evaluation failed")
		} else {
			resp.PolicyDecision = string(eval.Decision)
			resp.Findings = eval.Findings
		}
	}

	if s.store != nil {
		if err := s.store.Append(r.Context(), caselog.RowFromAssessment(a)); err != nil {
			s.log.Error().Err(err).Str("case", a.Case).Msg("failed to persist assessment")
		}
	}

	s.log.Info().
		Str("case", a.Case).
		Float64("sop", a.SOP).
		Float64("nhp", a.NHP).
		Float64("posterior_nh", a.Posterior).
		Msg("case assessed")

	s.jsonResponse(w, http.StatusOK, resp)
}

// RubricResponse exposes the scoring tables so clients can build
// submissions without hardcoding modifier and cap identifiers.
type RubricResponse struct {
	Factors     []rubric.FactorTable `json:"factors"`
	FlightTiers []rubric.FlightTier  `json:"flight_tiers"`
}

func (s *Server) handleRubric(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, RubricResponse{
		Factors:     rubric.Tables(),
		FlightTiers: rubric.FlightTiers(),
	})
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.params)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "1.0.0",
	})
}

// Pinger is implemented by stores backed by a live connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.jsonError(w, http.StatusServiceUnavailable, "case log not ready")
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
