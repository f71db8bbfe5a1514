package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/mavunolabs/shamba/internal/config"
	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/store"
)

// seedReferenceData loads the boundary and school reference tables from the
// configured CSV files. Inserts are idempotent (existing ids are kept), so
// seeding runs on every start.
func seedReferenceData(ctx context.Context, repo store.Repository, cfg *config.Config) error {
	if cfg.BoundarySeedPath != "" {
		n, err := seedBoundaries(ctx, repo, cfg.BoundarySeedPath)
		if err != nil {
			return fmt.Errorf("seed boundaries: %w", err)
		}
		slog.Info("Boundary seed processed", "path", cfg.BoundarySeedPath, "rows", n)
	}
	if cfg.SchoolSeedPath != "" {
		n, err := seedSchools(ctx, repo, cfg.SchoolSeedPath)
		if err != nil {
			return fmt.Errorf("seed schools: %w", err)
		}
		slog.Info("School seed processed", "path", cfg.SchoolSeedPath, "rows", n)
	}
	return nil
}

// seedBoundaries reads id,name,level,parent_id,country rows.
func seedBoundaries(ctx context.Context, repo store.Repository, path string) (int, error) {
	rows, err := readCSV(path, 5)
	if err != nil {
		return 0, err
	}
	for i, rec := range rows {
		b := &domain.Boundary{
			ID:       rec[0],
			Name:     rec[1],
			Level:    rec[2],
			ParentID: rec[3],
			Country:  rec[4],
		}
		if err := repo.AddBoundary(ctx, b); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}

// seedSchools reads id,name,region_id,lat,lon rows.
func seedSchools(ctx context.Context, repo store.Repository, path string) (int, error) {
	rows, err := readCSV(path, 5)
	if err != nil {
		return 0, err
	}
	for i, rec := range rows {
		lat, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return i, fmt.Errorf("row %d: bad lat %q", i+1, rec[3])
		}
		lon, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return i, fmt.Errorf("row %d: bad lon %q", i+1, rec[4])
		}
		sc := &domain.School{
			ID:       rec[0],
			Name:     rec[1],
			RegionID: rec[2],
			Lat:      lat,
			Lon:      lon,
		}
		if err := repo.AddSchool(ctx, sc); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}

// readCSV reads all rows, skipping a header row when the first field of the
// first row is "id".
func readCSV(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields

	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(out) == 0 && rec[0] == "id" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
