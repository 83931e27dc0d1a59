package viz

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	waveSamples   = 300
	waveSpan      = 4 * math.Pi
	waveSnapshots = 3
	snapshotStep  = 10 // frames between snapshots
)

// Wave is a sound wave shaped by a prediction: popularity sets the
// amplitude, energy the frequency and speed, danceability the number of
// harmonics.
type Wave struct {
	Prediction float64
	Amplitude  float64
	Frequency  float64
	Harmonics  int
	Speed      float64
}

// NewWave derives the wave parameters. Energy and danceability are
// expected in [0,1].
func NewWave(prediction, energy, danceability float64) Wave {
	return Wave{
		Prediction: prediction,
		Amplitude:  0.5 + prediction/100*1.5,
		Frequency:  3 + energy*15,
		Harmonics:  int(1 + danceability*4),
		Speed:      0.1 + energy*0.4,
	}
}

// At evaluates the wave at time t for animation frame f. Harmonic i has
// amplitude Amplitude/i.
func (w Wave) At(t float64, frame int) float64 {
	y := 0.0
	for i := 1; i <= w.Harmonics; i++ {
		y += w.Amplitude / float64(i) * math.Sin(w.Frequency*float64(i)*t+w.Speed*float64(frame))
	}
	return y
}

// Samples returns the wave over [0, 4π] at frame f.
func (w Wave) Samples(frame int) plotter.XYs {
	pts := make(plotter.XYs, waveSamples)
	for i := range pts {
		t := waveSpan * float64(i) / float64(waveSamples-1)
		pts[i] = plotter.XY{X: t, Y: w.At(t, frame)}
	}
	return pts
}

func background(pred float64) color.Color {
	switch {
	case pred >= 80:
		return color.RGBA{R: 0xe8, G: 0xf5, B: 0xe9, A: 255}
	case pred >= 60:
		return color.RGBA{R: 0xff, G: 0xf9, B: 0xc4, A: 255}
	default:
		return color.RGBA{R: 0xfc, G: 0xe4, B: 0xec, A: 255}
	}
}

// SoundWave renders a few successive frames of the wave, newest in front.
func SoundWave(w Wave, caption, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Sound wave - popularity %.1f/100", w.Prediction)
	if caption != "" {
		p.Title.Text += "\n" + caption
	}
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Amplitude"
	p.X.Min, p.X.Max = 0, waveSpan
	// harmonics can add up past the base amplitude
	bound := 0.0
	for i := 1; i <= w.Harmonics; i++ {
		bound += w.Amplitude / float64(i)
	}
	p.Y.Min, p.Y.Max = -bound*1.1, bound*1.1
	p.BackgroundColor = background(w.Prediction)

	for k := waveSnapshots - 1; k >= 0; k-- {
		l, err := plotter.NewLine(w.Samples(k * snapshotStep))
		if err != nil {
			return err
		}
		alpha := uint8(255 / (k + 1))
		l.Color = color.RGBA{R: 220, G: 20, B: 60, A: alpha}
		l.Width = vg.Points(2)
		p.Add(l)
	}
	p.Add(plotter.NewGrid())

	return save(p, 10*vg.Inch, 5*vg.Inch, path)
}
