// Package main provides the standalone assessment API server. Unlike
// the aerialtriage CLI it is configured purely from the environment,
// which suits containerized deployments.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"aerial-triage/api"
	"aerial-triage/db/caselog"
	"aerial-triage/internal/fusion"
	"aerial-triage/internal/policy"
	"aerial-triage/pkg/platform"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	params := fusion.Params{
		PriorNH:      platform.GetEnvFloat("TRIAGE_PRIOR_NH", fusion.DefaultParams().PriorNH),
		CalibrationK: platform.GetEnvFloat("TRIAGE_CALIBRATION_K", fusion.DefaultParams().CalibrationK),
		WeightC:      platform.GetEnvFloat("TRIAGE_WEIGHT_C", fusion.DefaultParams().WeightC),
		WeightE:      platform.GetEnvFloat("TRIAGE_WEIGHT_E", fusion.DefaultParams().WeightE),
		WeightP:      platform.GetEnvFloat("TRIAGE_WEIGHT_P", fusion.DefaultParams().WeightP),
	}

	store, err := buildStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open case log")
	}
	defer store.Close()

	engine := policy.NewEngine()
	if dir := platform.GetEnv("TRIAGE_POLICIES_DIR", ""); dir != "" {
		engine.WithRegoDir(dir)
	}

	server := api.NewServer(params, store, engine, nil, log.Logger)
	if err := server.StartWithGracefulShutdown(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func buildStore() (caselog.Store, error) {
	switch platform.GetEnv("TRIAGE_STORE", "csv") {
	case "clickhouse":
		return caselog.NewClickHouseStore(&caselog.ClickHouseConfig{
			Host:     platform.GetEnv("CLICKHOUSE_HOST", "localhost"),
			Port:     platform.GetEnvInt("CLICKHOUSE_PORT", 9000),
			Database: platform.GetEnv("CLICKHOUSE_DATABASE", "aerialtriage"),
			Username: platform.GetEnv("CLICKHOUSE_USER", "default"),
			Password: platform.GetEnv("CLICKHOUSE_PASSWORD", ""),
		})
	case "postgres":
		return caselog.NewPostgresStore(platform.GetEnv("TRIAGE_POSTGRES_DSN", ""))
	default:
		return caselog.NewCSVStore(platform.GetEnv("TRIAGE_CSV_PATH", "jor_session_log.csv"))
	}
}
