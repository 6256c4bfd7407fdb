package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/dwell.report/internal/rtls"
)

func TestReadScopeBasic(t *testing.T) {
	input := strings.Join([]string{
		"name,time,x,y,z",
		"g1,2026-03-02 08:00:00,1.5,2.5,0.9",
		"g1,2026-03-02 08:00:05,1.6,2.4,0.9",
		"g2,2026-03-02 08:00:01,10.0,2.0,1.1",
	}, "\n")

	scope, dropped, err := ReadScope("Workshop1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadScope failed: %v", err)
	}
	if len(dropped) != 0 {
		t.Errorf("expected no dropped entities, got %v", dropped)
	}
	if scope.Name() != "Workshop1" {
		t.Errorf("scope name = %q, want Workshop1", scope.Name())
	}
	if got := scope.Entities(); len(got) != 2 || got[0] != "g1" || got[1] != "g2" {
		t.Errorf("entities = %v, want [g1 g2]", got)
	}
	if scope.SampleCount() != 3 {
		t.Errorf("sample count = %d, want 3", scope.SampleCount())
	}

	g1 := scope.EntitySamples("g1")
	want := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	if !g1[0].Timestamp.Equal(want) {
		t.Errorf("first g1 timestamp = %v, want %v", g1[0].Timestamp, want)
	}
	if g1[0].X != 1.5 || g1[0].Y != 2.5 {
		t.Errorf("first g1 position = (%v, %v), want (1.5, 2.5)", g1[0].X, g1[0].Y)
	}
}

func TestReadScopeHeaderAliases(t *testing.T) {
	input := strings.Join([]string{
		"group,timestamp,x,y",
		"cart-7,2026-03-02T08:00:00Z,3,4",
	}, "\n")

	scope, dropped, err := ReadScope("s", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadScope failed: %v", err)
	}
	if len(dropped) != 0 {
		t.Errorf("unexpected drops: %v", dropped)
	}
	if got := scope.Entities(); len(got) != 1 || got[0] != "cart-7" {
		t.Errorf("entities = %v, want [cart-7]", got)
	}
}

func TestReadScopeUnixSeconds(t *testing.T) {
	input := strings.Join([]string{
		"name,time,x,y",
		"g1,1764662400,0,0",
		"g1,1764662405.5,1,1",
	}, "\n")

	scope, _, err := ReadScope("s", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadScope failed: %v", err)
	}
	samples := scope.EntitySamples("g1")
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	gap := samples[1].Timestamp.Sub(samples[0].Timestamp)
	if gap != 5500*time.Millisecond {
		t.Errorf("gap = %v, want 5.5s", gap)
	}
}

func TestReadScopeDropsEntityOnBadRow(t *testing.T) {
	// g1's second row has a bad x; g1 must vanish entirely, including
	// the first row that parsed fine. g2 is unaffected.
	input := strings.Join([]string{
		"name,time,x,y",
		"g1,2026-03-02 08:00:00,1,1",
		"g1,2026-03-02 08:00:05,not-a-number,1",
		"g1,2026-03-02 08:00:10,2,2",
		"g2,2026-03-02 08:00:00,5,5",
	}, "\n")

	scope, dropped, err := ReadScope("s", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadScope failed: %v", err)
	}
	if len(dropped) != 1 {
		t.Fatalf("dropped = %v, want exactly g1", dropped)
	}
	cause, ok := dropped["g1"]
	if !ok {
		t.Fatalf("g1 not in dropped map: %v", dropped)
	}
	var dataErr *rtls.DataError
	if !errors.As(cause, &dataErr) {
		t.Errorf("cause = %T, want *rtls.DataError", cause)
	}
	if got := scope.Entities(); len(got) != 1 || got[0] != "g2" {
		t.Errorf("entities = %v, want [g2]", got)
	}
	if len(scope.EntitySamples("g1")) != 0 {
		t.Error("dropped entity retained samples")
	}
}

func TestReadScopeBadTimestampDrops(t *testing.T) {
	input := strings.Join([]string{
		"name,time,x,y",
		"g1,yesterday,1,1",
		"g2,2026-03-02 08:00:00,1,1",
	}, "\n")

	scope, dropped, err := ReadScope("s", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadScope failed: %v", err)
	}
	if _, ok := dropped["g1"]; !ok {
		t.Errorf("expected g1 dropped for bad timestamp, got %v", dropped)
	}
	if got := scope.Entities(); len(got) != 1 || got[0] != "g2" {
		t.Errorf("entities = %v, want [g2]", got)
	}
}

func TestReadScopeSkipsBlankNames(t *testing.T) {
	input := strings.Join([]string{
		"name,time,x,y",
		",2026-03-02 08:00:00,1,1",
		"g1,2026-03-02 08:00:00,1,1",
	}, "\n")

	scope, dropped, err := ReadScope("s", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadScope failed: %v", err)
	}
	if len(dropped) != 0 {
		t.Errorf("blank name should be skipped, not dropped: %v", dropped)
	}
	if scope.SampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", scope.SampleCount())
	}
}

func TestReadScopeMissingColumns(t *testing.T) {
	input := "name,time,x\ng1,2026-03-02 08:00:00,1\n"
	if _, _, err := ReadScope("s", strings.NewReader(input)); err == nil {
		t.Error("expected an error for a header missing the y column")
	}
}

func TestReadScopeFileNameFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Workshop2.csv")
	content := "name,time,x,y\ng1,2026-03-02 08:00:00,1,1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	scope, _, err := ReadScopeFile(path)
	if err != nil {
		t.Fatalf("ReadScopeFile failed: %v", err)
	}
	if scope.Name() != "Workshop2" {
		t.Errorf("scope name = %q, want Workshop2", scope.Name())
	}
}
