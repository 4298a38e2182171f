package rrblup

import (
	"math"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/gblup/core/parallel"
	"github.com/YuminosukeSato/gblup/genotype"
	"github.com/YuminosukeSato/gblup/pkg/errors"
)

// MarkerVariances holds the per-marker one-way ANOVA screen that feeds
// heterogeneous shrinkage. Contributions carries each marker's share of the
// phenotypic variance (between-genotype sum of squares over n−1); FStats and
// PValues carry the accompanying test, useful for reporting but not required
// by the shrinkage itself.
type MarkerVariances struct {
	Markers       []string
	Contributions []float64
	FStats        []float64
	PValues       []float64
}

// SingleMarkerVariances runs a one-way ANOVA of y against each marker's
// genotype classes.
//
// Monomorphic markers (one genotype class) carry no between-class variance:
// their contribution is 0, F is 0 and the p-value is 1. A marker whose
// classes separate y perfectly has zero within-class variance: F is +Inf and
// the p-value is 0.
func SingleMarkerVariances(g *genotype.Matrix, y []float64) (*MarkerVariances, error) {
	const op = "SingleMarkerVariances"

	if g == nil {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	n := g.NumIndividuals()
	m := g.NumMarkers()
	if len(y) != n {
		return nil, errors.NewDimensionError(op, n, len(y), 0)
	}
	if n < 2 {
		return nil, errors.NewDegenerateInputError(op,
			"at least two individuals are required to partition variance")
	}
	if err := errors.CheckNumericalStability(op, y, 0); err != nil {
		return nil, err
	}

	grand := vek.Mean(y)
	dev := vek.SubNumber(y, grand)
	ssTotal := vek.Dot(dev, dev)

	mv := &MarkerVariances{
		Markers:       g.MarkerNames(),
		Contributions: make([]float64, m),
		FStats:        make([]float64, m),
		PValues:       make([]float64, m),
	}

	// Marker panels at or below this size are screened sequentially.
	const parallelThreshold = 512

	codes := g.Codes()
	type class struct {
		sum float64
		n   int
	}
	parallel.ParallelizeWithThreshold(m, parallelThreshold, func(start, end int) {
		col := make([]float64, n)
		for j := start; j < end; j++ {
			mat.Col(col, j, codes)

			classes := make(map[float64]class, 3)
			for i, code := range col {
				c := classes[code]
				c.sum += y[i]
				c.n++
				classes[code] = c
			}

			var ssBetween float64
			for _, c := range classes {
				d := c.sum/float64(c.n) - grand
				ssBetween += float64(c.n) * d * d
			}
			mv.Contributions[j] = ssBetween / float64(n-1)

			k := len(classes)
			dfWithin := n - k
			if k < 2 || dfWithin < 1 {
				mv.FStats[j] = 0
				mv.PValues[j] = 1
				continue
			}

			ssWithin := ssTotal - ssBetween
			if ssWithin < 0 {
				ssWithin = 0
			}
			msBetween := ssBetween / float64(k-1)
			msWithin := ssWithin / float64(dfWithin)

			switch {
			case msWithin == 0 && msBetween > 0:
				mv.FStats[j] = math.Inf(1)
				mv.PValues[j] = 0
			case msWithin == 0:
				mv.FStats[j] = 0
				mv.PValues[j] = 1
			default:
				f := msBetween / msWithin
				dist := distuv.F{D1: float64(k - 1), D2: float64(dfWithin)}
				mv.FStats[j] = f
				mv.PValues[j] = dist.Survival(f)
			}
		}
	})

	return mv, nil
}
