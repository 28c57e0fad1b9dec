package caselog

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClickHouseConfig holds ClickHouse connection configuration.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultClickHouseConfig returns default development configuration.
func DefaultClickHouseConfig() *ClickHouseConfig {
	return &ClickHouseConfig{
		Host:     "localhost",
		Port:     9000,
		Database: "aerialtriage",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// ClickHouseStore archives case assessments in ClickHouse for
// fleet-level analytics across many scoring sessions.
type ClickHouseStore struct {
	conn clickhouse.Conn
	cfg  *ClickHouseConfig
}

// NewClickHouseStore connects to ClickHouse with the given configuration.
func NewClickHouseStore(cfg *ClickHouseConfig) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	return &ClickHouseStore{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *ClickHouseStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}

// Append archives one scored case.
func (s *ClickHouseStore) Append(ctx context.Context, row Row) error {
	query := `
		INSERT INTO case_assessments (
			id, case_name, c, e, p_raw, flight_mod, p_final,
			sop, nhp, posterior_nh, scored_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return s.conn.Exec(ctx, query,
		uuid.New(),
		row.Case,
		decimal.NewFromFloat(row.C),
		decimal.NewFromFloat(row.E),
		decimal.NewFromFloat(row.P),
		decimal.NewFromFloat(row.FlightMod),
		decimal.NewFromFloat(row.PFinal),
		decimal.NewFromFloat(row.SOP),
		decimal.NewFromFloat(row.NHP),
		decimal.NewFromFloat(row.PosteriorNH),
		time.Now(),
	)
}

// BulkAppend archives multiple scored cases with a batch insert.
func (s *ClickHouseStore) BulkAppend(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO case_assessments (
			id, case_name, c, e, p_raw, flight_mod, p_final,
			sop, nhp, posterior_nh, scored_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	now := time.Now()
	for _, row := range rows {
		if err := batch.Append(
			uuid.New(),
			row.Case,
			decimal.NewFromFloat(row.C),
			decimal.NewFromFloat(row.E),
			decimal.NewFromFloat(row.P),
			decimal.NewFromFloat(row.FlightMod),
			decimal.NewFromFloat(row.PFinal),
			decimal.NewFromFloat(row.SOP),
			decimal.NewFromFloat(row.NHP),
			decimal.NewFromFloat(row.PosteriorNH),
			now,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}

// Recent returns the most recently scored cases, newest first.
func (s *ClickHouseStore) Recent(ctx context.Context, limit int) ([]Row, error) {
	query := `
		SELECT case_name, c, e, p_raw, flight_mod, p_final, sop, nhp, posterior_nh
		FROM case_assessments
		ORDER BY scored_at DESC
		LIMIT ?
	`
	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent cases: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var c, e, pRaw, flightMod, pFinal, sop, nhp, posterior decimal.Decimal
		if err := rows.Scan(&r.Case, &c, &e, &pRaw, &flightMod, &pFinal, &sop, &nhp, &posterior); err != nil {
			return nil, fmt.Errorf("failed to scan case row: %w", err)
		}
		r.C = c.InexactFloat64()
		r.E = e.InexactFloat64()
		r.P = pRaw.InexactFloat64()
		r.FlightMod = flightMod.InexactFloat64()
		r.PFinal = pFinal.InexactFloat64()
		r.SOP = sop.InexactFloat64()
		r.NHP = nhp.InexactFloat64()
		r.PosteriorNH = posterior.InexactFloat64()
		out = append(out, r)
	}
	return out, nil
}
