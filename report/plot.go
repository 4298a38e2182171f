package report

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/gblup/pkg/errors"
	"github.com/YuminosukeSato/gblup/rrblup"
)

// PlotAccuracyHistogram saves a histogram of the per-repetition correlations
// of successful runs. The output format follows the file extension (.png,
// .pdf, .svg).
func PlotAccuracyHistogram(path string, res *rrblup.CVResult) error {
	const op = "report.PlotAccuracyHistogram"
	if res == nil {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	var corrs plotter.Values
	for i := range res.Runs {
		if !res.Runs[i].Failed() {
			corrs = append(corrs, res.Runs[i].Correlation)
		}
	}
	if len(corrs) == 0 {
		return errors.NewValueError(op, "no successful repetitions to plot")
	}

	bins := int(math.Sqrt(float64(len(corrs))))
	if bins < 5 {
		bins = 5
	}
	if bins > 20 {
		bins = 20
	}
	h, err := plotter.NewHist(corrs, bins)
	if err != nil {
		return errors.Wrap(err, "building histogram")
	}

	p := plot.New()
	p.Title.Text = "Predictive ability"
	p.X.Label.Text = "Pearson correlation"
	p.Y.Label.Text = "Repetitions"
	p.Add(h)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "saving plot")
	}
	return nil
}

// PlotPredictedObserved saves a scatter of predicted against observed values
// for one validation run, with the identity line for reference.
func PlotPredictedObserved(path string, run *rrblup.CVRun) error {
	const op = "report.PlotPredictedObserved"
	if run == nil {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if len(run.Predicted) == 0 {
		return errors.NewValueError(op, "run carries no predictions")
	}
	if len(run.Predicted) != len(run.Observed) {
		return errors.NewDimensionError(op, len(run.Observed), len(run.Predicted), 0)
	}

	pts := make(plotter.XYs, len(run.Predicted))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range pts {
		pts[i].X = run.Observed[i]
		pts[i].Y = run.Predicted[i]
		lo = math.Min(lo, math.Min(pts[i].X, pts[i].Y))
		hi = math.Max(hi, math.Max(pts[i].X, pts[i].Y))
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "building scatter")
	}
	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "building identity line")
	}

	p := plot.New()
	p.Title.Text = "Predicted vs observed"
	p.X.Label.Text = "Observed"
	p.Y.Label.Text = "Predicted"
	p.Add(identity, s)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrap(err, "saving plot")
	}
	return nil
}
