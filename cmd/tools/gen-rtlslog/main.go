// Command gen-rtlslog generates a synthetic RTLS workshop CSV for
// testing and demos: entities walk left to right through a row of
// stations, dwelling at each with Gaussian position noise.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"
)

func main() {
	output := flag.String("o", "workshop.csv", "output path")
	entities := flag.Int("entities", 5, "number of tracked entities")
	stationCount := flag.Int("stations", 6, "number of stations")
	dwellSamples := flag.Int("dwell", 60, "samples per station visit")
	transitSamples := flag.Int("transit", 10, "samples per transition")
	noise := flag.Float64("noise", 0.4, "position noise std dev (m)")
	spacing := flag.Float64("spacing", 8.0, "station spacing (m)")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"name", "time", "x", "y", "z"}); err != nil {
		log.Fatalf("write header: %v", err)
	}

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	rows := 0
	for e := 0; e < *entities; e++ {
		name := fmt.Sprintf("group_%02d", e+1)
		ts := base.Add(time.Duration(e) * time.Minute)
		for st := 0; st < *stationCount; st++ {
			cx := float64(st) * *spacing
			for i := 0; i < *dwellSamples; i++ {
				writeRow(w, name, ts, cx+rng.NormFloat64()**noise, rng.NormFloat64()**noise)
				ts = ts.Add(time.Second)
				rows++
			}
			if st == *stationCount-1 {
				break
			}
			for i := 1; i <= *transitSamples; i++ {
				x := cx + *spacing*float64(i)/float64(*transitSamples+1)
				writeRow(w, name, ts, x+rng.NormFloat64()**noise, rng.NormFloat64()**noise)
				ts = ts.Add(time.Second)
				rows++
			}
		}
	}

	log.Printf("✓ Created: %s (%d rows, %d entities, %d stations)", *output, rows, *entities, *stationCount)
}

func writeRow(w *csv.Writer, name string, ts time.Time, x, y float64) {
	err := w.Write([]string{
		name,
		ts.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("%.3f", x),
		fmt.Sprintf("%.3f", y),
		"0.0",
	})
	if err != nil {
		log.Fatalf("write row: %v", err)
	}
}
