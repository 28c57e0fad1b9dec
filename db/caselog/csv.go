package caselog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// CSVStore appends case rows to a local CSV file. The header row is
// written exactly once, when the file is newly created or empty.
type CSVStore struct {
	path string
	file *os.File
	w    *csv.Writer
}

// NewCSVStore opens (or creates) the log file at path.
func NewCSVStore(path string) (*CSVStore, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open case log: %w", err)
	}

	s := &CSVStore{path: path, file: file, w: csv.NewWriter(file)}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat case log: %w", err)
	}
	if info.Size() == 0 {
		if err := s.w.Write(Header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write case log header: %w", err)
		}
		s.w.Flush()
	}

	return s, nil
}

// Append writes one case row and flushes it to disk.
func (s *CSVStore) Append(_ context.Context, row Row) error {
	record := []string{
		row.Case,
		formatScore(row.C),
		formatScore(row.E),
		formatScore(row.P),
		formatScore(row.FlightMod),
		formatScore(row.PFinal),
		formatScore(row.SOP),
		formatScore(row.NHP),
		formatScore(row.PosteriorNH),
	}
	if err := s.w.Write(record); err != nil {
		return fmt.Errorf("failed to append case row: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the underlying file.
func (s *CSVStore) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Path returns the log file location.
func (s *CSVStore) Path() string { return s.path }

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
