// Package ingest loads raw RTLS exports into immutable scopes.
//
// Exports are CSV with a header naming at least the name, time, x and
// y columns; a z column, when present, is ignored (the analysis is
// strictly 2D). Rows with an unparseable timestamp or coordinate are
// fatal for that row's entity — the entity is dropped with its cause
// rather than silently zero-filled — but never for the rest of the
// scope.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/dwell.report/internal/rtls"
)

// timeLayouts are tried in order when parsing the time column.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// ReadScope parses one scope's CSV stream. It returns the scope built
// from all well-formed entities plus a map of dropped entities to
// their first failure. The error return is reserved for stream-level
// failures (missing header columns, unreadable input).
func ReadScope(name string, r io.Reader) (*rtls.Scope, map[string]error, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var samples []rtls.Sample
	dropped := make(map[string]error)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}

		entity := strings.TrimSpace(record[cols.name])
		if entity == "" {
			continue
		}
		if _, bad := dropped[entity]; bad {
			continue
		}

		s, err := parseSample(entity, record, cols)
		if err != nil {
			dropped[entity] = &rtls.DataError{Entity: entity, Err: fmt.Errorf("line %d: %w", line, err)}
			continue
		}
		samples = append(samples, s)
	}

	// A dropped entity keeps none of its rows, including the ones that
	// parsed before the failure.
	if len(dropped) > 0 {
		kept := samples[:0]
		for _, s := range samples {
			if _, bad := dropped[s.Entity]; !bad {
				kept = append(kept, s)
			}
		}
		samples = kept
	}

	return rtls.NewScope(name, samples), dropped, nil
}

// ReadScopeFile loads a scope from a CSV file. The scope name is the
// file's base name without extension (e.g. Workshop1.csv → Workshop1).
func ReadScopeFile(path string) (*rtls.Scope, map[string]error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadScope(name, f)
}

type columnIndex struct {
	name, time, x, y int
}

func resolveColumns(header []string) (columnIndex, error) {
	cols := columnIndex{name: -1, time: -1, x: -1, y: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name", "entity", "group":
			cols.name = i
		case "time", "timestamp":
			cols.time = i
		case "x":
			cols.x = i
		case "y":
			cols.y = i
		}
		// "z" and any other columns are dropped here.
	}
	if cols.name < 0 || cols.time < 0 || cols.x < 0 || cols.y < 0 {
		return cols, fmt.Errorf("header missing required columns (need name, time, x, y; got %q)", header)
	}
	return cols, nil
}

func parseSample(entity string, record []string, cols columnIndex) (rtls.Sample, error) {
	max := cols.name
	for _, c := range []int{cols.time, cols.x, cols.y} {
		if c > max {
			max = c
		}
	}
	if len(record) <= max {
		return rtls.Sample{}, fmt.Errorf("row has %d fields, need %d", len(record), max+1)
	}

	ts, err := parseTime(record[cols.time])
	if err != nil {
		return rtls.Sample{}, err
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(record[cols.x]), 64)
	if err != nil {
		return rtls.Sample{}, fmt.Errorf("parse x %q: %w", record[cols.x], err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(record[cols.y]), 64)
	if err != nil {
		return rtls.Sample{}, fmt.Errorf("parse y %q: %w", record[cols.y], err)
	}

	return rtls.Sample{Entity: entity, Timestamp: ts, X: x, Y: y}, nil
}

func parseTime(field string) (time.Time, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, field); err == nil {
			return ts, nil
		}
	}
	// Plain unix seconds also occur in the wild.
	if unix, err := strconv.ParseFloat(field, 64); err == nil {
		sec := int64(unix)
		return time.Unix(sec, int64((unix-float64(sec))*1e9)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parse time %q: unrecognised format", field)
}
