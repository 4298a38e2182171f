package rrblup

import "gonum.org/v1/gonum/mat"

// Option is a function that configures GBLUPRegressor
type Option func(*GBLUPRegressor)

// WithMaxIterations sets the REML iteration bound per Newton bracket
func WithMaxIterations(n int) Option {
	return func(r *GBLUPRegressor) {
		r.maxIterations = n
	}
}

// WithTolerance sets the REML convergence tolerance
func WithTolerance(tol float64) Option {
	return func(r *GBLUPRegressor) {
		r.tolerance = tol
	}
}

// WithShrinkageMode selects homogeneous or heterogeneous marker penalties
func WithShrinkageMode(mode ShrinkageMode) Option {
	return func(r *GBLUPRegressor) {
		r.shrinkage = mode
	}
}

// WithHeritability fixes the heritability instead of estimating it by REML
func WithHeritability(hsq float64) Option {
	return func(r *GBLUPRegressor) {
		r.heritability = hsq
	}
}

// WithNormalization selects the relationship matrix normalization policy
func WithNormalization(policy Normalization) Option {
	return func(r *GBLUPRegressor) {
		r.normalization = policy
	}
}

// WithCovariates adds fixed-effect covariates, one row per training individual
func WithCovariates(c *mat.Dense) Option {
	return func(r *GBLUPRegressor) {
		r.covariates = c
	}
}
