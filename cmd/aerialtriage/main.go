// Aerial Triage CLI - Bayesian case assessment for aerial phenomena reports
//
// Usage:
//   aerialtriage score                      (interactive session)
//   aerialtriage assess --case "Gimbal" --env-base 0.6 --phys-base 0.5 --flight Moderate
//   aerialtriage fuse --case "Gimbal" --sop 0.45 --nhp 0.46
//   aerialtriage rubric [--format table|json|markdown]
//   aerialtriage serve
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"aerial-triage/api"
	"aerial-triage/db/caselog"
	"aerial-triage/internal/chart"
	"aerial-triage/internal/fusion"
	"aerial-triage/internal/interactive"
	"aerial-triage/internal/policy"
	"aerial-triage/internal/rubric"
	"aerial-triage/internal/session"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "aerialtriage",
		Usage:   "Bayesian anomalousness scoring for aerial phenomena case reports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"TRIAGE_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   "csv",
				Usage:   "Case log backend (csv, clickhouse, postgres)",
				EnvVars: []string{"TRIAGE_STORE"},
			},
			&cli.StringFlag{
				Name:    "csv-path",
				Value:   "jor_session_log.csv",
				Usage:   "CSV case log path",
				EnvVars: []string{"TRIAGE_CSV_PATH"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "aerialtriage",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "postgres-dsn",
				Usage:   "Postgres DSN for the case log",
				EnvVars: []string{"TRIAGE_POSTGRES_DSN"},
			},
			&cli.StringFlag{
				Name:    "policies-dir",
				Usage:   "Directory of Rego triage policies",
				EnvVars: []string{"TRIAGE_POLICIES_DIR"},
			},
			&cli.Float64Flag{
				Name:    "prior",
				Value:   fusion.DefaultParams().PriorNH,
				Usage:   "Prior probability P(NH)",
				EnvVars: []string{"TRIAGE_PRIOR_NH"},
			},
			&cli.Float64Flag{
				Name:    "calibration-k",
				Value:   fusion.DefaultParams().CalibrationK,
				Usage:   "Calibration constant K",
				EnvVars: []string{"TRIAGE_CALIBRATION_K"},
			},
			&cli.Float64Flag{
				Name:  "weight-c",
				Value: fusion.DefaultParams().WeightC,
				Usage: "Evidence weight for witness credibility",
			},
			&cli.Float64Flag{
				Name:  "weight-e",
				Value: fusion.DefaultParams().WeightE,
				Usage: "Evidence weight for environment",
			},
			&cli.Float64Flag{
				Name:  "weight-p",
				Value: fusion.DefaultParams().WeightP,
				Usage: "Evidence weight for physical evidence",
			},
		},

		Commands: []*cli.Command{
			scoreCommand(),
			assessCommand(),
			fuseCommand(),
			rubricCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// SHARED WIRING
// =============================================================================

func newLogger(c *cli.Context) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.String("log-level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func buildParams(c *cli.Context) fusion.Params {
	return fusion.Params{
		PriorNH:      c.Float64("prior"),
		CalibrationK: c.Float64("calibration-k"),
		WeightC:      c.Float64("weight-c"),
		WeightE:      c.Float64("weight-e"),
		WeightP:      c.Float64("weight-p"),
	}.Normalized()
}

func buildStore(c *cli.Context) (caselog.Store, error) {
	switch c.String("store") {
	case "clickhouse":
		return caselog.NewClickHouseStore(&caselog.ClickHouseConfig{
			Host:     c.String("clickhouse-host"),
			Port:     c.Int("clickhouse-port"),
			Database: c.String("clickhouse-database"),
			Username: c.String("clickhouse-user"),
			Password: c.String("clickhouse-password"),
		})
	case "postgres":
		dsn := c.String("postgres-dsn")
		if dsn == "" {
			return nil, fmt.Errorf("--postgres-dsn is required with --store postgres")
		}
		return caselog.NewPostgresStore(dsn)
	default:
		return caselog.NewCSVStore(c.String("csv-path"))
	}
}

func buildPolicyEngine(c *cli.Context) *policy.Engine {
	engine := policy.NewEngine()
	if dir := c.String("policies-dir"); dir != "" {
		engine.WithRegoDir(dir)
	}
	return engine
}

// =============================================================================
// SCORE COMMAND (interactive session)
// =============================================================================

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Run an interactive scoring session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "charts",
				Value: true,
				Usage: "Write a prior/posterior chart per case",
			},
			&cli.StringFlag{
				Name:  "charts-dir",
				Value: ".",
				Usage: "Directory for chart output",
			},
		},
		Action: runScore,
	}
}

func runScore(c *cli.Context) error {
	log := newLogger(c)

	store, err := buildStore(c)
	if err != nil {
		return fmt.Errorf("failed to open case log: %w", err)
	}
	defer store.Close()

	runner := &session.Runner{
		Store:    store,
		Policies: buildPolicyEngine(c),
		Log:      log,
		OnResult: printAssessment,
	}
	if c.Bool("charts") {
		runner.Charts = chart.NewRenderer(c.String("charts-dir"))
	}

	fmt.Println("=== Aerial Phenomena Bayesian Triage ===")
	return runner.Run(context.Background(), interactive.New())
}

func printAssessment(a fusion.Assessment, eval *policy.Evaluation) {
	fmt.Println()
	fmt.Printf("--- Results for %s ---\n", a.Case)
	if !a.Manual {
		fmt.Printf("C (witness credibility):  %.2f\n", a.C)
		fmt.Printf("E (environment):          %.2f\n", a.E)
		fmt.Printf("P (physical, raw):        %.2f\n", a.PRaw)
		fmt.Printf("P (physical, final):      %.2f  (flight %+.2f)\n", a.PFinal, a.FlightDelta)
	}
	fmt.Printf("SOP:                      %.2f\n", a.SOP)
	fmt.Printf("NHP:                      %.2f\n", a.NHP)
	fmt.Printf("Posterior P(NH|E):        %.2f  (prior %.2f)\n", a.Posterior, a.PriorNH)
	if eval != nil && eval.Decision != policy.DecisionPass {
		fmt.Printf("Triage decision:          %s\n", eval.Decision)
		for _, f := range eval.Findings {
			fmt.Printf("  [%s] %s: %s\n", f.Severity, f.RuleName, f.Message)
		}
	}
}

// =============================================================================
// ASSESS COMMAND (one-shot rubric scoring)
// =============================================================================

func assessCommand() *cli.Command {
	return &cli.Command{
		Name:  "assess",
		Usage: "Score one case from flags or a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Path to a JSON case request (overrides other flags)",
			},
			&cli.StringFlag{Name: "case", Usage: "Case name"},
			&cli.Float64Flag{Name: "witness-base", Usage: "Witness credibility base value"},
			&cli.StringSliceFlag{Name: "witness-mod", Usage: "Witness modifier identifier (repeatable)"},
			&cli.StringSliceFlag{Name: "witness-cap", Usage: "Witness hard-cap identifier (repeatable)"},
			&cli.Float64Flag{Name: "env-base", Usage: "Environment base value"},
			&cli.StringSliceFlag{Name: "env-mod", Usage: "Environment modifier identifier (repeatable)"},
			&cli.StringSliceFlag{Name: "env-cap", Usage: "Environment hard-cap identifier (repeatable)"},
			&cli.Float64Flag{Name: "phys-base", Usage: "Physical evidence base value"},
			&cli.StringSliceFlag{Name: "phys-mod", Usage: "Physical modifier identifier (repeatable)"},
			&cli.StringSliceFlag{Name: "phys-cap", Usage: "Physical hard-cap identifier (repeatable)"},
			&cli.StringFlag{Name: "flight", Value: "None", Usage: "Flight behavior tier"},
			&cli.BoolFlag{Name: "no-log", Usage: "Skip the case log"},
			&cli.StringFlag{Name: "format", Value: "table", Usage: "Output format (table, json, markdown)"},
		},
		Action: runAssess,
	}
}

func runAssess(c *cli.Context) error {
	req, err := caseRequestFromFlags(c)
	if err != nil {
		return err
	}

	a, err := session.Assess(buildParams(c), req)
	if err != nil {
		return err
	}
	return finishOneShot(c, a)
}

func caseRequestFromFlags(c *cli.Context) (session.CaseRequest, error) {
	if path := c.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return session.CaseRequest{}, fmt.Errorf("failed to read case file: %w", err)
		}
		var req session.CaseRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return session.CaseRequest{}, fmt.Errorf("invalid case file: %w", err)
		}
		return req, nil
	}

	name := c.String("case")
	if name == "" {
		return session.CaseRequest{}, fmt.Errorf("--case is required (or use --file)")
	}

	entry := &session.RubricEntry{
		Environment: session.FactorEntry{
			Base:        c.Float64("env-base"),
			ModifierIDs: c.StringSlice("env-mod"),
			CapIDs:      c.StringSlice("env-cap"),
		},
		Physical: session.FactorEntry{
			Base:        c.Float64("phys-base"),
			ModifierIDs: c.StringSlice("phys-mod"),
			CapIDs:      c.StringSlice("phys-cap"),
		},
		FlightTier: c.String("flight"),
	}
	if c.IsSet("witness-base") {
		entry.HasWitness = true
		entry.Witness = session.FactorEntry{
			Base:        c.Float64("witness-base"),
			ModifierIDs: c.StringSlice("witness-mod"),
			CapIDs:      c.StringSlice("witness-cap"),
		}
	}

	return session.CaseRequest{Name: name, Rubric: entry}, nil
}

// =============================================================================
// FUSE COMMAND (direct SOP/NHP entry)
// =============================================================================

func fuseCommand() *cli.Command {
	return &cli.Command{
		Name:  "fuse",
		Usage: "Fuse a manually supplied SOP/NHP pair",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "case", Required: true, Usage: "Case name"},
			&cli.Float64Flag{Name: "sop", Required: true, Usage: "Strangeness-of-phenomenon probability [0,1]"},
			&cli.Float64Flag{Name: "nhp", Required: true, Usage: "Non-human probability [0,1]"},
			&cli.BoolFlag{Name: "no-log", Usage: "Skip the case log"},
			&cli.StringFlag{Name: "format", Value: "table", Usage: "Output format (table, json, markdown)"},
		},
		Action: runFuse,
	}
}

func runFuse(c *cli.Context) error {
	sop, nhp := c.Float64("sop"), c.Float64("nhp")
	if sop < 0 || sop > 1 || nhp < 0 || nhp > 1 {
		return fmt.Errorf("sop and nhp must be in [0,1]")
	}
	a := fusion.FuseDirect(buildParams(c), c.String("case"), sop, nhp)
	return finishOneShot(c, a)
}

func finishOneShot(c *cli.Context, a fusion.Assessment) error {
	ctx := context.Background()

	if !c.Bool("no-log") {
		store, err := buildStore(c)
		if err != nil {
			return fmt.Errorf("failed to open case log: %w", err)
		}
		defer store.Close()
		if err := store.Append(ctx, caselog.RowFromAssessment(a)); err != nil {
			return fmt.Errorf("failed to log case: %w", err)
		}
	}

	eval, err := buildPolicyEngine(c).Evaluate(ctx, a)
	if err != nil {
		logger := newLogger(c)
		logger.Warn().Err(err).Msg("triage evaluation failed")
	}

	switch c.String("format") {
	case "json":
		return outputJSON(a, eval)
	case "markdown":
		return outputMarkdown(a, eval)
	default:
		printAssessment(a, eval)
		return nil
	}
}

// =============================================================================
// RUBRIC COMMAND
// =============================================================================

func rubricCommand() *cli.Command {
	return &cli.Command{
		Name:  "rubric",
		Usage: "Print the scoring rubric",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "table", Usage: "Output format (table, json, markdown)"},
		},
		Action: runRubric,
	}
}

func runRubric(c *cli.Context) error {
	tables := rubric.Tables()
	tiers := rubric.FlightTiers()

	switch c.String("format") {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(api.RubricResponse{Factors: tables, FlightTiers: tiers})
	case "markdown":
		for _, t := range tables {
			fmt.Printf("## %s (%s)\n\n", t.Name, t.Factor)
			fmt.Println("| Category | Range | Description |")
			fmt.Println("|----------|-------|-------------|")
			for _, cat := range t.Categories {
				fmt.Printf("| %s | %.2f-%.2f | %s |\n", cat.ID, cat.Min, cat.Max, cat.Description)
			}
			if len(t.Modifiers) > 0 {
				fmt.Println("\n| Modifier | Delta |")
				fmt.Println("|----------|-------|")
				for _, m := range t.Modifiers {
					fmt.Printf("| %s | %+.2f |\n", m.ID, m.Delta)
				}
			}
			if len(t.HardCaps) > 0 {
				fmt.Println("\n| Hard cap | Ceiling |")
				fmt.Println("|----------|---------|")
				for _, h := range t.HardCaps {
					fmt.Printf("| %s | %.2f |\n", h.ID, h.Ceiling)
				}
			}
			fmt.Println()
		}
		fmt.Printf("## Flight behavior tiers\n\n")
		fmt.Println("| Tier | Delta |")
		fmt.Println("|------|-------|")
		for _, tier := range tiers {
			fmt.Printf("| %s | %+.2f |\n", tier.ID, tier.Delta)
		}
		return nil
	default:
		for _, t := range tables {
			fmt.Printf("\n%s (%s)\n%s\n", t.Name, t.Factor, strings.Repeat("-", 60))
			for _, cat := range t.Categories {
				fmt.Printf("  %-38s %.2f-%.2f\n", cat.ID, cat.Min, cat.Max)
			}
			for _, m := range t.Modifiers {
				fmt.Printf("  mod: %-33s %+.2f\n", m.ID, m.Delta)
			}
			for _, h := range t.HardCaps {
				fmt.Printf("  cap: %-33s max %.2f\n", h.ID, h.Ceiling)
			}
		}
		fmt.Printf("\nFlight behavior tiers\n%s\n", strings.Repeat("-", 60))
		for _, tier := range tiers {
			fmt.Printf("  %-38s %+.2f\n", tier.ID, tier.Delta)
		}
		return nil
	}
}

// =============================================================================
// SERVE COMMAND
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP assessment server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP port",
				EnvVars: []string{"TRIAGE_PORT"},
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	log := newLogger(c)

	store, err := buildStore(c)
	if err != nil {
		return fmt.Errorf("failed to open case log: %w", err)
	}
	defer store.Close()

	cfg := api.DefaultConfig()
	cfg.Port = c.Int("port")

	server := api.NewServer(buildParams(c), store, buildPolicyEngine(c), cfg, log)
	return server.StartWithGracefulShutdown()
}

// =============================================================================
// OUTPUT FORMATTERS
// =============================================================================

type jsonOutput struct {
	fusion.Assessment
	PolicyDecision string           `json:"policy_decision,omitempty"`
	Findings       []policy.Finding `json:"findings,omitempty"`
}

func outputJSON(a fusion.Assessment, eval *policy.Evaluation) error {
	out := jsonOutput{Assessment: a}
	if eval != nil {
		out.PolicyDecision = string(eval.Decision)
		out.Findings = eval.Findings
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func outputMarkdown(a fusion.Assessment, eval *policy.Evaluation) error {
	fmt.Printf("## %s\n\n", a.Case)
	fmt.Println("| Metric | Value |")
	fmt.Println("|--------|-------|")
	if !a.Manual {
		fmt.Printf("| C (witness credibility) | %.2f |\n", a.C)
		fmt.Printf("| E (environment) | %.2f |\n", a.E)
		fmt.Printf("| P (physical, raw) | %.2f |\n", a.PRaw)
		fmt.Printf("| P (physical, final) | %.2f |\n", a.PFinal)
	}
	fmt.Printf("| SOP | %.2f |\n", a.SOP)
	fmt.Printf("| NHP | %.2f |\n", a.NHP)
	fmt.Printf("| Prior P(NH) | %.2f |\n", a.PriorNH)
	fmt.Printf("| Posterior P(NH) | %.2f |\n", a.Posterior)
	if eval != nil {
		fmt.Printf("\nTriage decision: **%s**\n", eval.Decision)
		for _, f := range eval.Findings {
			fmt.Printf("- [%s] %s: %s\n", f.Severity, f.RuleName, f.Message)
		}
	}
	return nil
}
