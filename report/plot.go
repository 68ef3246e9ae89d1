// Package report renders evaluation plots.
package report

import (
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
)

// PlotSize is the width and height of saved plots.
const PlotSize = 5 * vg.Inch

// PredictedVsActual plots predictions against true targets with the y = x
// reference line and saves it to path. The image format follows the file
// extension (.png, .svg, .pdf, ...).
func PredictedVsActual(yTrue, yPred []float64, path string) error {
	p, err := predictedVsActual(yTrue, yPred)
	if err != nil {
		return err
	}
	if err := p.Save(PlotSize, PlotSize, path); err != nil {
		return errors.Wrapf(err, "carprice: save plot %s", path)
	}

	log.GetLoggerWithName("report").Info("plot saved",
		log.SourceKey, path,
		log.SamplesKey, len(yTrue),
	)
	return nil
}

func predictedVsActual(yTrue, yPred []float64) (*plot.Plot, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewModelError("PredictedVsActual", "empty data", errors.ErrEmptyData)
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("PredictedVsActual", len(yTrue), len(yPred), 0)
	}

	p := plot.New()
	p.Title.Text = "Predicted vs actual price"
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(yTrue))
	for i := range yTrue {
		pts[i].X = yTrue[i]
		pts[i].Y = yPred[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "carprice: build scatter")
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Color = color.RGBA{B: 200, A: 255}

	lo := min(floats.Min(yTrue), floats.Min(yPred))
	hi := max(floats.Max(yTrue), floats.Max(yPred))
	l, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, errors.Wrap(err, "carprice: build reference line")
	}
	l.LineStyle.Width = vg.Points(1)
	l.LineStyle.Color = color.RGBA{R: 200, A: 255}
	l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(s, l)
	p.Legend.Add("predictions", s)
	p.Legend.Add("y = x", l)
	return p, nil
}
