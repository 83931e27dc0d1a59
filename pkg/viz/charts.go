// Package viz renders prediction charts to PNG files with gonum/plot.
package viz

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/insight"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/stats"
)

var (
	orange = color.RGBA{R: 255, G: 165, A: 255}
	red    = color.RGBA{R: 220, G: 20, B: 60, A: 255}
	green  = color.RGBA{R: 34, G: 139, B: 34, A: 255}
	gold   = color.RGBA{R: 218, G: 165, B: 32, A: 255}
)

const histogramBins = 20

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("viz: save %s: %w", path, err)
	}
	return nil
}

func vline(x, y0, y1 float64, c color.Color, dashed bool) (*plotter.Line, error) {
	l, err := plotter.NewLine(plotter.XYs{{X: x, Y: y0}, {X: x, Y: y1}})
	if err != nil {
		return nil, err
	}
	l.Color = c
	l.Width = vg.Points(2)
	if dashed {
		l.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	}
	return l, nil
}

func hline(y, x0, x1 float64, c color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}})
	if err != nil {
		return nil, err
	}
	l.Color = c
	l.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	return l, nil
}

// Histogram plots the distribution of batch scores with the mean and the
// hit threshold marked.
func Histogram(scores []float64, hitThreshold float64, path string) error {
	if len(scores) == 0 {
		return fmt.Errorf("viz: no scores to plot")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Popularity of %d generated tracks", len(scores))
	p.X.Label.Text = "Predicted popularity"
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(plotter.Values(scores), histogramBins)
	if err != nil {
		return err
	}
	h.FillColor = orange
	p.Add(h)

	top := 0.0
	for _, b := range h.Bins {
		top = max(top, b.Weight)
	}
	mean := stats.Mean(scores)
	ml, err := vline(mean, 0, top, red, true)
	if err != nil {
		return err
	}
	tl, err := vline(hitThreshold, 0, top, green, true)
	if err != nil {
		return err
	}
	p.Add(ml, tl)
	p.Legend.Add(fmt.Sprintf("Mean: %.2f", mean), ml)
	p.Legend.Add(fmt.Sprintf("Hit threshold (%.0f)", hitThreshold), tl)
	p.Add(plotter.NewGrid())

	return save(p, 8*vg.Inch, 5*vg.Inch, path)
}

// Timeline plots scores in draw order and marks the hits.
func Timeline(scores []float64, hitThreshold float64, path string) error {
	if len(scores) == 0 {
		return fmt.Errorf("viz: no scores to plot")
	}
	p := plot.New()
	p.Title.Text = "Prediction timeline"
	p.X.Label.Text = "Track #"
	p.Y.Label.Text = "Popularity"
	p.Y.Min, p.Y.Max = 0, 100

	pts := make(plotter.XYs, len(scores))
	var hits plotter.XYs
	for i, s := range scores {
		pts[i] = plotter.XY{X: float64(i + 1), Y: s}
		if s >= hitThreshold {
			hits = append(hits, pts[i])
		}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = orange
	line.Width = vg.Points(2)
	points.Color = orange
	points.Radius = vg.Points(2)
	p.Add(line, points)

	th, err := hline(hitThreshold, 1, float64(len(scores)), green)
	if err != nil {
		return err
	}
	p.Add(th)

	if len(hits) > 0 {
		s, err := plotter.NewScatter(hits)
		if err != nil {
			return err
		}
		s.Color = red
		s.Shape = draw.PyramidGlyph{}
		s.Radius = vg.Points(5)
		p.Add(s)
		p.Legend.Add("Hit!", s)
	}
	p.Add(plotter.NewGrid())

	return save(p, 10*vg.Inch, 5*vg.Inch, path)
}

// HitCountries draws the hit ranking as horizontal bars.
func HitCountries(rep insight.HitReport, path string) error {
	if len(rep.Countries) == 0 {
		return fmt.Errorf("viz: no hits at threshold %d", rep.Threshold)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top countries by hits (pop >= %d)", rep.Threshold)
	p.X.Label.Text = "Number of hits"

	// bottom-up so the leader is drawn on top
	n := len(rep.Countries)
	vals := make(plotter.Values, n)
	names := make([]string, n)
	for i, c := range rep.Countries {
		vals[n-1-i] = float64(c.Hits)
		names[n-1-i] = c.Country
	}
	bars, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return err
	}
	bars.Horizontal = true
	bars.Color = green
	p.Add(bars)
	p.NominalY(names...)

	return save(p, 8*vg.Inch, 6*vg.Inch, path)
}
