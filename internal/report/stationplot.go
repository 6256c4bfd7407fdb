// Package report renders static PNG figures of analysis output for
// inclusion in written reports. The interactive equivalents live on
// the HTTP dashboard; these files exist for offline use.
package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/dwell.report/internal/rtls"
)

// circleSegments controls how finely station boundaries are drawn.
const circleSegments = 64

// stationPalette cycles across station boundary colours.
var stationPalette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
}

// SaveStationMap writes a PNG of the scope's positions with the
// detected station boundaries overlaid. outputPath's directory is
// created if needed.
func SaveStationMap(samples []rtls.Sample, geometries []rtls.StationGeometry, title, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = s.X
		pts[i].Y = s.Y
	}
	background, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("build position scatter: %w", err)
	}
	background.GlyphStyle.Radius = vg.Points(1)
	background.GlyphStyle.Color = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0x60}
	p.Add(background)

	for i, g := range geometries {
		ring := make(plotter.XYs, circleSegments+1)
		for s := 0; s <= circleSegments; s++ {
			theta := 2 * math.Pi * float64(s) / circleSegments
			ring[s].X = g.Center.X + g.Radius*math.Cos(theta)
			ring[s].Y = g.Center.Y + g.Radius*math.Sin(theta)
		}
		boundary, err := plotter.NewLine(ring)
		if err != nil {
			return fmt.Errorf("build station %d boundary: %w", g.ID, err)
		}
		boundary.Width = vg.Points(2)
		boundary.Color = stationPalette[i%len(stationPalette)]
		p.Add(boundary)
		p.Legend.Add(fmt.Sprintf("Station %d", g.ID), boundary)

		centre, err := plotter.NewScatter(plotter.XYs{{X: g.Center.X, Y: g.Center.Y}})
		if err != nil {
			return fmt.Errorf("build station %d centre: %w", g.ID, err)
		}
		centre.GlyphStyle.Shape = draw.CrossGlyph{}
		centre.GlyphStyle.Radius = vg.Points(4)
		centre.GlyphStyle.Color = stationPalette[i%len(stationPalette)]
		p.Add(centre)
	}

	if err := p.Save(10*vg.Inch, 7*vg.Inch, outputPath); err != nil {
		return fmt.Errorf("save station map: %w", err)
	}
	return nil
}
