package rrblup

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gblup/genotype"
	"github.com/YuminosukeSato/gblup/pkg/errors"
)

// MarkerEffects holds the fitted model: one additive effect per marker plus
// the fixed-effect coefficients (intercept first, then covariates in design
// order). Spec records the penalties the effects were estimated under.
type MarkerEffects struct {
	Markers           []string
	Effects           []float64
	FixedCoefficients []float64
	Spec              *ShrinkageSpec
}

// EstimateEffects solves the ridge system for marker effects.
//
// Fixed effects are estimated first by least squares on X; marker effects are
// then the penalized regression of the residual on the genotype codes,
// (Z'Z + D)a = Z'r with D the diagonal of penalties from spec.
//
// The normal equations are solved by Cholesky factorization. When the
// penalized system is not positive definite (rank-deficient Z with zero
// penalties), estimation falls back to least squares on the augmented system
// [Z; sqrt(D)] with a warning; if that also fails the system is reported as
// singular.
func EstimateEffects(X mat.Matrix, g *genotype.Matrix, y []float64, spec *ShrinkageSpec) (me *MarkerEffects, err error) {
	defer errors.Recover(&err, "EstimateEffects")
	const op = "EstimateEffects"

	if g == nil {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if spec == nil {
		return nil, errors.NewModelError(op, "missing shrinkage specification", errors.ErrEmptyData)
	}
	n := g.NumIndividuals()
	m := g.NumMarkers()
	if len(y) != n {
		return nil, errors.NewDimensionError(op, n, len(y), 0)
	}
	xr, p := X.Dims()
	if xr != n {
		return nil, errors.NewDimensionError(op, n, xr, 0)
	}
	if err := validateSpec(op, spec, m); err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability(op, y, 0); err != nil {
		return nil, err
	}

	// Fixed effects by least squares on X.
	var qr mat.QR
	qr.Factorize(X)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(n, y)); err != nil {
		return nil, errors.NewNumericalInstabilityError("fixed-effect regression", nil, 0)
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)
	resid := make([]float64, n)
	for i := range resid {
		resid[i] = y[i] - fitted.AtVec(i)
	}

	codes := g.Codes()

	// Z'Z + D
	var ztz mat.SymDense
	ztz.SymOuterK(1, codes.T())
	for j := 0; j < m; j++ {
		ztz.SetSym(j, j, ztz.At(j, j)+spec.At(j))
	}

	var ztr mat.VecDense
	ztr.MulVec(codes.T(), mat.NewVecDense(n, resid))

	var sol mat.VecDense
	var chol mat.Cholesky
	if chol.Factorize(&ztz) {
		if err := chol.SolveVecTo(&sol, &ztr); err != nil {
			return nil, errors.NewSingularSystemError(op, m, "the penalized normal equations could not be solved")
		}
	} else {
		errors.Warn(errors.NewConvergenceWarning("EstimateEffects", 0,
			"penalized normal equations are not positive definite; falling back to augmented least squares"))
		if err := solveAugmented(&sol, codes, resid, spec, n, m); err != nil {
			return nil, err
		}
	}

	effects := make([]float64, m)
	for j := range effects {
		effects[j] = sol.AtVec(j)
	}
	fixed := make([]float64, p)
	for k := range fixed {
		fixed[k] = beta.AtVec(k)
	}

	if err := errors.CheckNumericalStability(op, effects, 0); err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability(op, fixed, 0); err != nil {
		return nil, err
	}

	return &MarkerEffects{
		Markers:           g.MarkerNames(),
		Effects:           effects,
		FixedCoefficients: fixed,
		Spec:              spec,
	}, nil
}

func validateSpec(op string, spec *ShrinkageSpec, m int) error {
	switch spec.Mode {
	case ShrinkageHomogeneous:
		if spec.Lambda < 0 {
			return errors.NewInvalidParameterError("lambda",
				"ridge penalties must be non-negative", spec.Lambda)
		}
		return errors.CheckNumericalStability(op, []float64{spec.Lambda}, 0)
	case ShrinkageHeterogeneous:
		if len(spec.Lambdas) != m {
			return errors.NewDimensionError(op, m, len(spec.Lambdas), 1)
		}
		for _, l := range spec.Lambdas {
			if l < 0 {
				return errors.NewInvalidParameterError("lambda",
					"ridge penalties must be non-negative", l)
			}
		}
		return errors.CheckNumericalStability(op, spec.Lambdas, 0)
	default:
		return errors.NewValidationError("shrinkage_mode", "unknown shrinkage mode", int(spec.Mode))
	}
}

// solveAugmented solves min ||[Z; sqrt(D)]a − [r; 0]|| by QR, the stable route
// for a semidefinite penalized system.
func solveAugmented(sol *mat.VecDense, codes mat.Matrix, resid []float64, spec *ShrinkageSpec, n, m int) error {
	aug := mat.NewDense(n+m, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			aug.Set(i, j, codes.At(i, j))
		}
	}
	for j := 0; j < m; j++ {
		aug.Set(n+j, j, math.Sqrt(spec.At(j)))
	}
	rhs := mat.NewVecDense(n+m, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, resid[i])
	}

	var qr mat.QR
	qr.Factorize(aug)
	if err := qr.SolveVecTo(sol, false, rhs); err != nil {
		return errors.NewSingularSystemError("EstimateEffects", m,
			"the augmented marker system is rank deficient")
	}
	return nil
}
