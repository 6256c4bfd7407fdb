package api

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/dwell.report/internal/httputil"
	"github.com/banshee-data/dwell.report/internal/rtls"
)

// Browser chart handlers. These render self-contained HTML via
// go-echarts; the dashboard page stitches them together with iframes.

const dashboardHTML = `<!DOCTYPE html>
<html>
<head><title>Station Flow Dashboard</title>
<style>
body { font-family: sans-serif; margin: 1em; background: #111; color: #eee; }
iframe { border: 1px solid #333; width: 100%%; height: 640px; margin-bottom: 1em; }
</style>
</head>
<body>
<h1>Station Flow Dashboard</h1>
<iframe src="/charts/stations%[1]s"></iframe>
<iframe src="/charts/trajectories%[1]s"></iframe>
<iframe src="/charts/dwell%[1]s"></iframe>
<iframe src="/charts/transitions%[1]s"></iframe>
</body>
</html>`

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.NotFound(w, "not found")
		return
	}
	qs := ""
	if runID := r.URL.Query().Get("run"); runID != "" {
		qs = "?run=" + url.QueryEscape(runID)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, dashboardHTML, qs)
}

// handleStationChart renders the scope's positions as a scatter with
// the detected zone centres overlaid.
// Query params:
//   - run (optional; defaults to the latest run)
//   - max_points (optional; default 8000) to reduce payload size
func (s *Server) handleStationChart(w http.ResponseWriter, r *http.Request) {
	runID, err := s.resolveRun(r)
	if err != nil {
		httputil.NotFound(w, "no analysis runs recorded")
		return
	}
	geometries, err := s.db.Stations(r.Context(), runID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	samples, err := s.db.Samples(r.Context(), runID, "")
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}
	stride := 1
	if len(samples) > maxPoints {
		stride = int(math.Ceil(float64(len(samples)) / float64(maxPoints)))
	}

	background := make([]opts.ScatterData, 0, len(samples)/stride+1)
	for i := 0; i < len(samples); i += stride {
		background = append(background, opts.ScatterData{
			Value: []interface{}{samples[i].X, samples[i].Y},
		})
	}

	centres := make([]opts.ScatterData, 0, len(geometries))
	for _, g := range geometries {
		centres = append(centres, opts.ScatterData{
			Name:       fmt.Sprintf("Station %d (r=%.2fm)", g.ID, g.Radius),
			Value:      []interface{}{g.Center.X, g.Center.Y},
			Symbol:     "diamond",
			SymbolSize: 18,
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Detected Stations", Theme: "dark", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Detected Stations", Subtitle: fmt.Sprintf("run=%s stations=%d points=%d stride=%d", runID, len(geometries), len(background), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("positions", background, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	scatter.AddSeries("stations", centres)

	s.renderChart(w, scatter)
}

// handleDwellChart renders dwell time per entity as bars stacked by
// station.
func (s *Server) handleDwellChart(w http.ResponseWriter, r *http.Request) {
	runID, err := s.resolveRun(r)
	if err != nil {
		httputil.NotFound(w, "no analysis runs recorded")
		return
	}
	records, err := s.db.Dwell(r.Context(), runID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	entities, stations := dwellAxes(records)
	minutes := make(map[string]map[int]float64, len(entities))
	for _, d := range records {
		if minutes[d.Entity] == nil {
			minutes[d.Entity] = make(map[int]float64)
		}
		minutes[d.Entity][d.Station] = d.Seconds / 60
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Dwell Time", Theme: "dark", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Station Dwell Time", Subtitle: fmt.Sprintf("run=%s, minutes per entity stacked by station", runID)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(entities)
	for _, station := range stations {
		data := make([]opts.BarData, len(entities))
		for i, entity := range entities {
			data[i] = opts.BarData{Value: minutes[entity][station]}
		}
		bar.AddSeries(fmt.Sprintf("Station %d", station), data,
			charts.WithBarChartOpts(opts.BarChart{Stack: "dwell"}))
	}

	s.renderChart(w, bar)
}

// handleTransitionChart renders transition time per entity, stacked by
// station pair. Raw events are summed by (entity, from, to) here for
// display only; the stored table keeps every individual event.
func (s *Server) handleTransitionChart(w http.ResponseWriter, r *http.Request) {
	runID, err := s.resolveRun(r)
	if err != nil {
		httputil.NotFound(w, "no analysis runs recorded")
		return
	}
	records, err := s.db.Transitions(r.Context(), runID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	type pair struct{ from, to int }
	entitySet := make(map[string]bool)
	pairSet := make(map[pair]bool)
	minutes := make(map[string]map[pair]float64)
	for _, t := range records {
		p := pair{t.From, t.To}
		entitySet[t.Entity] = true
		pairSet[p] = true
		if minutes[t.Entity] == nil {
			minutes[t.Entity] = make(map[pair]float64)
		}
		minutes[t.Entity][p] += t.Seconds / 60
	}

	entities := make([]string, 0, len(entitySet))
	for e := range entitySet {
		entities = append(entities, e)
	}
	sort.Strings(entities)
	pairs := make([]pair, 0, len(pairSet))
	for p := range pairSet {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].from != pairs[j].from {
			return pairs[i].from < pairs[j].from
		}
		return pairs[i].to < pairs[j].to
	})

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Transition Time", Theme: "dark", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Station Transition Time", Subtitle: fmt.Sprintf("run=%s, minutes per entity stacked by station pair", runID)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(entities)
	for _, p := range pairs {
		data := make([]opts.BarData, len(entities))
		for i, entity := range entities {
			data[i] = opts.BarData{Value: minutes[entity][p]}
		}
		bar.AddSeries(fmt.Sprintf("S%d→S%d", p.from, p.to), data,
			charts.WithBarChartOpts(opts.BarChart{Stack: "transition"}))
	}

	s.renderChart(w, bar)
}

// handleTrajectoryChart renders each entity's raw path as a scatter
// series (the classic spaghetti view).
// Query params:
//   - run (optional), entity (optional; restricts to one entity)
func (s *Server) handleTrajectoryChart(w http.ResponseWriter, r *http.Request) {
	runID, err := s.resolveRun(r)
	if err != nil {
		httputil.NotFound(w, "no analysis runs recorded")
		return
	}
	samples, err := s.db.Samples(r.Context(), runID, r.URL.Query().Get("entity"))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	byEntity := make(map[string][]opts.ScatterData)
	for _, smp := range samples {
		byEntity[smp.Entity] = append(byEntity[smp.Entity], opts.ScatterData{
			Value: []interface{}{smp.X, smp.Y},
		})
	}
	entities := make([]string, 0, len(byEntity))
	for e := range byEntity {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Trajectories", Theme: "dark", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Entity Trajectories", Subtitle: fmt.Sprintf("run=%s entities=%d", runID, len(entities))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	for _, entity := range entities {
		scatter.AddSeries(entity, byEntity[entity], charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}

	s.renderChart(w, scatter)
}

type chartRenderer interface {
	Render(w io.Writer) error
}

func (s *Server) renderChart(w http.ResponseWriter, chart chartRenderer) {
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// dwellAxes returns the sorted entity and station axes of a dwell
// table.
func dwellAxes(records []rtls.DwellRecord) ([]string, []int) {
	entitySet := make(map[string]bool)
	stationSet := make(map[int]bool)
	for _, d := range records {
		entitySet[d.Entity] = true
		stationSet[d.Station] = true
	}
	entities := make([]string, 0, len(entitySet))
	for e := range entitySet {
		entities = append(entities, e)
	}
	sort.Strings(entities)
	stations := make([]int, 0, len(stationSet))
	for s := range stationSet {
		stations = append(stations, s)
	}
	sort.Ints(stations)
	return entities, stations
}
