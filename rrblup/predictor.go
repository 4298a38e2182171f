package rrblup

import (
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gblup/genotype"
	"github.com/YuminosukeSato/gblup/pkg/errors"
)

// Prediction pairs each individual's ID with its predicted trait value, in
// the row order of the genotype matrix that was scored.
type Prediction struct {
	IDs    []string
	Values []float64
}

// Predictor scores new individuals against fitted marker effects. Marker sets
// are matched by label identity, not by position: the prediction matrix must
// carry exactly the training markers, in the training order.
type Predictor struct {
	markers []string
	effects []float64
	fixed   []float64
}

// NewPredictor wraps fitted marker effects for scoring.
func NewPredictor(me *MarkerEffects) (*Predictor, error) {
	const op = "NewPredictor"
	if me == nil {
		return nil, errors.NewModelError(op, "missing marker effects", errors.ErrEmptyData)
	}
	if len(me.Effects) != len(me.Markers) {
		return nil, errors.NewDimensionError(op, len(me.Markers), len(me.Effects), 1)
	}
	if len(me.FixedCoefficients) == 0 {
		return nil, errors.NewValueError(op, "marker effects carry no intercept")
	}

	p := &Predictor{
		markers: make([]string, len(me.Markers)),
		effects: make([]float64, len(me.Effects)),
		fixed:   make([]float64, len(me.FixedCoefficients)),
	}
	copy(p.markers, me.Markers)
	copy(p.effects, me.Effects)
	copy(p.fixed, me.FixedCoefficients)
	return p, nil
}

// Predict scores the individuals in g: intercept plus the dot product of each
// genotype row with the marker effects.
//
// Models fitted with covariates cannot be scored without covariate values for
// the new individuals; use PredictWithCovariates instead.
func (p *Predictor) Predict(g *genotype.Matrix) (*Prediction, error) {
	const op = "Predictor.Predict"
	if g == nil {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if len(p.fixed) > 1 {
		return nil, errors.NewValueError(op,
			"the model was fitted with covariates; use PredictWithCovariates")
	}
	if err := p.checkMarkers(op, g); err != nil {
		return nil, err
	}
	return p.score(op, g, nil)
}

// PredictWithCovariates scores the individuals in g with their covariate
// values, one row per individual in the training covariate order.
func (p *Predictor) PredictWithCovariates(g *genotype.Matrix, covariates *mat.Dense) (*Prediction, error) {
	const op = "Predictor.PredictWithCovariates"
	if g == nil {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if err := p.checkMarkers(op, g); err != nil {
		return nil, err
	}

	q := len(p.fixed) - 1
	if q == 0 && covariates == nil {
		return p.score(op, g, nil)
	}
	if covariates == nil {
		return nil, errors.NewDimensionError(op, q, 0, 1)
	}
	cr, cc := covariates.Dims()
	if cr != g.NumIndividuals() {
		return nil, errors.NewDimensionError(op, g.NumIndividuals(), cr, 0)
	}
	if cc != q {
		return nil, errors.NewDimensionError(op, q, cc, 1)
	}
	if err := errors.CheckMatrix(op, covariates, cr, cc, 0); err != nil {
		return nil, err
	}
	return p.score(op, g, covariates)
}

// checkMarkers verifies label identity between the training markers and g.
func (p *Predictor) checkMarkers(op string, g *genotype.Matrix) error {
	names := g.MarkerNames()
	if len(names) != len(p.markers) {
		return errors.NewMarkerMismatchError(op, -1, "", "", len(p.markers), len(names))
	}
	for j := range names {
		if names[j] != p.markers[j] {
			return errors.NewMarkerMismatchError(op, j, p.markers[j], names[j], len(p.markers), len(names))
		}
	}
	return nil
}

func (p *Predictor) score(op string, g *genotype.Matrix, covariates *mat.Dense) (*Prediction, error) {
	n := g.NumIndividuals()
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		v := p.fixed[0] + vek.Dot(g.Row(i), p.effects)
		if covariates != nil {
			for k := 1; k < len(p.fixed); k++ {
				v += covariates.At(i, k-1) * p.fixed[k]
			}
		}
		values[i] = v
	}
	if err := errors.CheckNumericalStability(op, values, 0); err != nil {
		return nil, err
	}
	return &Prediction{IDs: g.IDs(), Values: values}, nil
}
