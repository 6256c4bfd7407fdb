package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/banshee-data/dwell.report/internal/rtls"
	"github.com/banshee-data/dwell.report/internal/rtls/pipeline"
)

// Timestamps are stored as fixed-width RFC3339 UTC text so rows stay
// readable in the tailSQL debugger and lexicographic ORDER BY matches
// chronological order. The columns are declared TIMESTAMP, so the
// driver decodes them back into time.Time on read; scans must target
// time.Time, not string.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// RunSummary is one analysis_runs row.
type RunSummary struct {
	RunID             string    `json:"run_id"`
	Scope             string    `json:"scope"`
	CreatedAt         time.Time `json:"created_at"`
	StationCount      int       `json:"station_count"`
	Silhouette        float64   `json:"silhouette"`
	Inertia           float64   `json:"inertia"`
	RadiusPercentile  float64   `json:"radius_percentile"`
	ClusterSeed       int64     `json:"cluster_seed"`
	MinimumDwellSecs  float64   `json:"minimum_dwell_seconds"`
	MonotonicProgress bool      `json:"monotonic_progress"`
	SampleCount       int       `json:"sample_count"`
}

// SaveRun publishes one scope's results in a single transaction: the
// run row, the station table, retained samples, visits and all metric
// records. Either everything lands or nothing does, so readers never
// observe a scope with a partial station table.
func (db *DB) SaveRun(ctx context.Context, scope *rtls.Scope, res *pipeline.Result) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			// ErrTxDone means the transaction already committed.
			log.Printf("warning: failed to rollback transaction: %v", err)
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			run_id, scope, created_at, station_count, silhouette, inertia,
			radius_percentile, cluster_seed, minimum_dwell_seconds,
			monotonic_progress, sample_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Scope, res.CreatedAt.UTC().Format(timeFormat),
		len(res.Detection.Stations), res.Detection.Silhouette, res.Detection.Inertia,
		res.Params.Detector.RadiusPercentile, res.Params.Detector.Seed,
		res.Params.Segment.MinimumDwell.Seconds(), res.Params.Segment.MonotonicProgress,
		scope.SampleCount(),
	)
	if err != nil {
		return fmt.Errorf("insert analysis run: %w", err)
	}

	for _, g := range res.Detection.Stations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stations (run_id, station_id, center_x, center_y, radius, member_count)
			VALUES (?, ?, ?, ?, ?, ?)`,
			res.RunID, g.ID, g.Center.X, g.Center.Y, g.Radius, g.MemberCount,
		); err != nil {
			return fmt.Errorf("insert station %d: %w", g.ID, err)
		}
	}

	for _, s := range scope.AllSamples() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO samples (run_id, entity, ts, x, y) VALUES (?, ?, ?, ?, ?)`,
			res.RunID, s.Entity, s.Timestamp.UTC().Format(timeFormat), s.X, s.Y,
		); err != nil {
			return fmt.Errorf("insert sample: %w", err)
		}
	}

	entities := make([]string, 0, len(res.Visits))
	for entity := range res.Visits {
		entities = append(entities, entity)
	}
	sort.Strings(entities)
	for _, entity := range entities {
		for seq, v := range res.Visits[entity] {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO visits (run_id, entity, seq, station_id, entry_time, exit_time)
				VALUES (?, ?, ?, ?, ?, ?)`,
				res.RunID, entity, seq, v.Station,
				v.Entry.UTC().Format(timeFormat), v.Exit.UTC().Format(timeFormat),
			); err != nil {
				return fmt.Errorf("insert visit: %w", err)
			}
		}
	}

	for _, d := range res.Dwell {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dwell_times (run_id, entity, station_id, seconds)
			VALUES (?, ?, ?, ?)`,
			res.RunID, d.Entity, d.Station, d.Seconds,
		); err != nil {
			return fmt.Errorf("insert dwell time: %w", err)
		}
	}

	seqByEntity := make(map[string]int)
	for _, t := range res.Transitions {
		seq := seqByEntity[t.Entity]
		seqByEntity[t.Entity] = seq + 1
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transitions (run_id, entity, seq, from_station, to_station, seconds)
			VALUES (?, ?, ?, ?, ?, ?)`,
			res.RunID, t.Entity, seq, t.From, t.To, t.Seconds,
		); err != nil {
			return fmt.Errorf("insert transition: %w", err)
		}
	}

	for _, p := range res.Production {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO production_times (run_id, entity, start_time, end_time, visit_count)
			VALUES (?, ?, ?, ?, ?)`,
			res.RunID, p.Entity,
			p.Start.UTC().Format(timeFormat), p.End.UTC().Format(timeFormat),
			p.VisitCount,
		); err != nil {
			return fmt.Errorf("insert production time: %w", err)
		}
	}

	for entity, cause := range res.Skipped {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO skipped_entities (run_id, entity, cause) VALUES (?, ?, ?)`,
			res.RunID, entity, cause.Error(),
		); err != nil {
			return fmt.Errorf("insert skipped entity: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns all analysis runs, newest first.
func (db *DB) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, scope, created_at, station_count, silhouette, inertia,
		       radius_percentile, cluster_seed, minimum_dwell_seconds,
		       monotonic_progress, sample_count
		FROM analysis_runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Scope, &r.CreatedAt, &r.StationCount,
			&r.Silhouette, &r.Inertia, &r.RadiusPercentile, &r.ClusterSeed,
			&r.MinimumDwellSecs, &r.MonotonicProgress, &r.SampleCount); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRunID returns the most recent run for a scope, or for any
// scope when scope is empty. sql.ErrNoRows when the table is empty.
func (db *DB) LatestRunID(ctx context.Context, scope string) (string, error) {
	q := `SELECT run_id FROM analysis_runs ORDER BY created_at DESC, run_id LIMIT 1`
	args := []any{}
	if scope != "" {
		q = `SELECT run_id FROM analysis_runs WHERE scope = ? ORDER BY created_at DESC, run_id LIMIT 1`
		args = append(args, scope)
	}
	var runID string
	err := db.QueryRowContext(ctx, q, args...).Scan(&runID)
	return runID, err
}

// Stations returns a run's geometry table ordered by station id.
func (db *DB) Stations(ctx context.Context, runID string) ([]rtls.StationGeometry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT station_id, center_x, center_y, radius, member_count
		FROM stations WHERE run_id = ? ORDER BY station_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var geometries []rtls.StationGeometry
	for rows.Next() {
		var g rtls.StationGeometry
		if err := rows.Scan(&g.ID, &g.CenterX, &g.CenterY, &g.Radius, &g.MemberCount); err != nil {
			return nil, err
		}
		g.Center.X, g.Center.Y = g.CenterX, g.CenterY
		geometries = append(geometries, g)
	}
	return geometries, rows.Err()
}

// Dwell returns a run's dwell table ordered by entity then station.
func (db *DB) Dwell(ctx context.Context, runID string) ([]rtls.DwellRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT entity, station_id, seconds FROM dwell_times
		WHERE run_id = ? ORDER BY entity, station_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []rtls.DwellRecord
	for rows.Next() {
		var d rtls.DwellRecord
		if err := rows.Scan(&d.Entity, &d.Station, &d.Seconds); err != nil {
			return nil, err
		}
		records = append(records, d)
	}
	return records, rows.Err()
}

// Transitions returns a run's raw transition events in original order.
func (db *DB) Transitions(ctx context.Context, runID string) ([]rtls.TransitionRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT entity, from_station, to_station, seconds FROM transitions
		WHERE run_id = ? ORDER BY entity, seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []rtls.TransitionRecord
	for rows.Next() {
		var t rtls.TransitionRecord
		if err := rows.Scan(&t.Entity, &t.From, &t.To, &t.Seconds); err != nil {
			return nil, err
		}
		records = append(records, t)
	}
	return records, rows.Err()
}

// Production returns a run's production spans ordered by entity.
func (db *DB) Production(ctx context.Context, runID string) ([]rtls.ProductionRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT entity, start_time, end_time, visit_count FROM production_times
		WHERE run_id = ? ORDER BY entity`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []rtls.ProductionRecord
	for rows.Next() {
		var p rtls.ProductionRecord
		if err := rows.Scan(&p.Entity, &p.Start, &p.End, &p.VisitCount); err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

// Visits returns a run's visit sequences ordered by entity then
// sequence number.
func (db *DB) Visits(ctx context.Context, runID string) ([]rtls.Visit, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT entity, station_id, entry_time, exit_time FROM visits
		WHERE run_id = ? ORDER BY entity, seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []rtls.Visit
	for rows.Next() {
		var v rtls.Visit
		if err := rows.Scan(&v.Entity, &v.Station, &v.Entry, &v.Exit); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// Samples returns a run's retained samples, optionally filtered to one
// entity, ordered by entity then time.
func (db *DB) Samples(ctx context.Context, runID, entity string) ([]rtls.Sample, error) {
	q := `SELECT entity, ts, x, y FROM samples WHERE run_id = ? ORDER BY entity, ts`
	args := []any{runID}
	if entity != "" {
		q = `SELECT entity, ts, x, y FROM samples WHERE run_id = ? AND entity = ? ORDER BY ts`
		args = append(args, entity)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []rtls.Sample
	for rows.Next() {
		var s rtls.Sample
		if err := rows.Scan(&s.Entity, &s.Timestamp, &s.X, &s.Y); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
